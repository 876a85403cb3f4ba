package main

// Messages coming from clients, discriminated by Type.
type ClientMessage struct {
	Type       string `json:"type"`                  // see roomHub.apply for the full list
	Name       string `json:"name,omitempty"`        // create / join / rename_team
	Mode       string `json:"mode,omitempty"`        // create: "buzzer" or "turns"
	Team       int    `json:"team,omitempty"`        // join / score / rename_team / set_turn
	Category   int    `json:"category,omitempty"`    // pick
	Row        int    `json:"row,omitempty"`         // pick
	MarkUsed   bool   `json:"mark_used,omitempty"`   // close
	Delta      int    `json:"delta,omitempty"`       // score
	KeepScores bool   `json:"keep_scores,omitempty"` // new_round
}

// RoomCreatedMessage goes to the creating connection only.
type RoomCreatedMessage struct {
	Type string   `json:"type"` // "room_created"
	Code string   `json:"code"`
	Room Snapshot `json:"room"`
}

// RoomUpdateMessage carries the full snapshot to every room member.
type RoomUpdateMessage struct {
	Type string   `json:"type"` // "room_update"
	Room Snapshot `json:"room"`
}

// PlayerJoinedMessage confirms a join to the joining connection.
type PlayerJoinedMessage struct {
	Type string   `json:"type"` // "player_joined"
	Name string   `json:"name"`
	Team int      `json:"team"`
	Room Snapshot `json:"room"`
}

// RoomErrorMessage goes to a single requester.
type RoomErrorMessage struct {
	Type    string `json:"type"` // "room_error"
	Message string `json:"message"`
}

// RoomEndedMessage tells members the host left and the room is gone.
type RoomEndedMessage struct {
	Type string `json:"type"` // "room_ended"
}
