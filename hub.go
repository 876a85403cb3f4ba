package main

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection, host or player.
type Client struct {
	conn   *websocket.Conn
	send   chan any
	connID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

// roomHub is the per-room half of the connection dispatcher: it owns the
// room's channel membership and runs the command loop that serializes every
// operation on the room. Nothing touches a Room except its own hub goroutine.
type roomHub struct {
	room       *Room
	dispatcher *Dispatcher

	clients  map[*Client]bool
	register chan *Client
	unreg    chan *Client
	actions  chan command

	// closed when the loop exits, so pump goroutines never block on a
	// channel nobody is draining
	done chan struct{}

	hostSeen bool
}

func newRoomHub(room *Room, d *Dispatcher) *roomHub {
	return &roomHub{
		room:       room,
		dispatcher: d,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan command, 16),
		done:       make(chan struct{}),
	}
}

func (h *roomHub) run() {
	logger := roomLogger(h.room.code)

	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

			if !h.hostSeen && c.connID == h.room.hostConnID {
				h.hostSeen = true
				h.deliver(c, RoomCreatedMessage{Type: "room_created", Code: h.room.code, Room: h.room.Snapshot()})
				continue
			}
			h.deliver(c, RoomUpdateMessage{Type: "room_update", Room: h.room.Snapshot()})

		case c := <-h.unreg:
			if c.connID == h.room.hostConnID {
				// Host disconnect ends the room immediately: no grace
				// period, no reconnection.
				h.broadcast(RoomEndedMessage{Type: "room_ended"})
				h.closeAll()
				h.dispatcher.remove(h.room.code)
				close(h.done)
				logger.Info().Msg("Room ended")
				return
			}

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			if h.room.RemovePlayer(c.connID) {
				logger.Debug().Msg("Player left")
				h.broadcast(RoomUpdateMessage{Type: "room_update", Room: h.room.Snapshot()})
			}

		case cmd := <-h.actions:
			if h.apply(cmd) {
				h.broadcast(RoomUpdateMessage{Type: "room_update", Room: h.room.Snapshot()})
			}
		}
	}
}

// apply runs one client action against the room and reports whether state
// changed. Rejected actions fall through silently.
func (h *roomHub) apply(cmd command) bool {
	room := h.room
	connID := cmd.client.connID
	msg := cmd.msg

	switch msg.Type {
	case "join":
		if !room.JoinPlayer(connID, msg.Name, msg.Team) {
			return false
		}
		joined := room.players[connID]
		h.deliver(cmd.client, PlayerJoinedMessage{
			Type: "player_joined",
			Name: joined.Name,
			Team: joined.Team,
			Room: room.Snapshot(),
		})
		return true
	case "pick":
		return room.PickClue(connID, msg.Category, msg.Row)
	case "show_answer":
		return room.ShowAnswer(connID)
	case "close":
		return room.CloseClue(connID, msg.MarkUsed)
	case "buzz":
		return room.Buzz(connID)
	case "unlock":
		return room.UnlockBuzzer(connID)
	case "score":
		return room.Score(connID, msg.Team, msg.Delta)
	case "rename_team":
		return room.RenameTeam(connID, msg.Team, msg.Name)
	case "set_turn":
		return room.SetTurn(connID, msg.Team)
	case "next_turn":
		return room.NextTurn(connID)
	case "new_round":
		return room.NewRound(connID, msg.KeepScores)
	}

	return false
}

// deliver sends to one client, evicting it if its buffer is full.
func (h *roomHub) deliver(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *roomHub) broadcast(msg any) {
	for c := range h.clients {
		h.deliver(c, msg)
	}
}

func (h *roomHub) closeAll() {
	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, c)
	}
}

// Dispatcher bridges connections to rooms: it resolves room codes to hubs and
// owns hub lifecycle alongside the registry's room lifecycle.
type Dispatcher struct {
	mu       sync.Mutex
	registry *Registry
	hubs     map[string]*roomHub
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		hubs:     make(map[string]*roomHub),
	}
}

// CreateRoom allocates a room for the given host connection and starts its
// command loop.
func (d *Dispatcher) CreateRoom(hostConnID, hostName string, mode GameMode) (*roomHub, error) {
	room, err := d.registry.Create(hostConnID, hostName, mode)
	if err != nil {
		return nil, err
	}

	hub := newRoomHub(room, d)

	d.mu.Lock()
	d.hubs[room.code] = hub
	d.mu.Unlock()

	go hub.run()

	return hub, nil
}

func (d *Dispatcher) Hub(code string) (*roomHub, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	hub, exists := d.hubs[code]

	return hub, exists
}

// remove is called by a hub tearing itself down on host disconnect.
func (d *Dispatcher) remove(code string) {
	d.mu.Lock()
	delete(d.hubs, code)
	d.mu.Unlock()

	d.registry.Destroy(code)
}

func (c *Client) readPump(h *roomHub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join", "pick", "show_answer", "close", "buzz", "unlock",
			"score", "rename_team", "set_turn", "next_turn", "new_round":
			select {
			case h.actions <- command{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
