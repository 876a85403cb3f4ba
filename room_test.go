package main

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const hostID = "host-conn"

func newTestRoom(t *testing.T, mode GameMode) *Room {
	t.Helper()

	provider, err := NewStaticProvider()
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	return newRoom("GAME", hostID, "Alex", mode, provider)
}

func TestFirstBuzzWins(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)
	room.JoinPlayer("conn-b", "Ben", 1)
	room.JoinPlayer("conn-c", "Cam", 2)

	if !room.PickClue(hostID, 0, 0) {
		t.Fatal("pick rejected")
	}

	if !room.Buzz("conn-a") {
		t.Fatal("first buzz rejected")
	}
	if room.Buzz("conn-b") || room.Buzz("conn-c") {
		t.Error("later buzzes accepted")
	}

	if room.buzzer.Winner == nil || room.buzzer.Winner.Name != "Ada" || room.buzzer.Winner.Team != 0 {
		t.Errorf("wrong winner: %+v", room.buzzer.Winner)
	}
}

func TestBuzzRejections(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	if room.Buzz("conn-a") {
		t.Error("buzz accepted with no active clue")
	}

	room.PickClue(hostID, 0, 0)
	if room.Buzz("stranger") {
		t.Error("buzz accepted from unregistered connection")
	}

	turns := newTestRoom(t, ModeTurns)
	turns.JoinPlayer("conn-a", "Ada", 0)
	turns.PickClue(hostID, 0, 0)
	if turns.Buzz("conn-a") {
		t.Error("buzz accepted in turns mode")
	}
}

func TestPickClueResetsBuzzer(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	room.PickClue(hostID, 0, 0)
	room.Buzz("conn-a")
	room.CloseClue(hostID, false)

	room.PickClue(hostID, 1, 0)
	if room.buzzer.Locked || room.buzzer.Winner != nil {
		t.Errorf("buzzer not reset: %+v", room.buzzer)
	}
}

func TestPickClueRejections(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)

	if room.PickClue(hostID, -1, 0) || room.PickClue(hostID, 0, boardRows) || room.PickClue(hostID, boardCategories, 0) {
		t.Error("out-of-bounds pick accepted")
	}

	room.PickClue(hostID, 2, 3)
	if room.PickClue(hostID, 2, 3) {
		t.Error("re-picking the active clue accepted")
	}
	if room.PickClue(hostID, 0, 0) {
		t.Error("pick accepted while another clue is active")
	}

	room.CloseClue(hostID, true)
	if room.PickClue(hostID, 2, 3) {
		t.Error("used clue accepted")
	}
}

func TestShowAnswer(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)

	if room.ShowAnswer(hostID) {
		t.Error("show_answer accepted with no active clue")
	}

	room.PickClue(hostID, 0, 0)
	if !room.ShowAnswer(hostID) {
		t.Fatal("show_answer rejected")
	}
	if room.activeClue.Reveal != RevealAnswer {
		t.Errorf("reveal state %q", room.activeClue.Reveal)
	}
	if room.ShowAnswer(hostID) {
		t.Error("repeated show_answer reported a change")
	}
}

func TestCloseClueIdempotent(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)

	room.PickClue(hostID, 2, 3)
	if !room.CloseClue(hostID, true) {
		t.Fatal("close rejected")
	}
	if !room.board[2].Clues[3].Used {
		t.Error("clue not marked used")
	}
	if room.activeClue != nil {
		t.Error("active clue not cleared")
	}
	if room.CloseClue(hostID, true) {
		t.Error("second close accepted with no active clue")
	}
}

func TestCloseClueKeepsBuzzer(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	room.PickClue(hostID, 0, 0)
	room.Buzz("conn-a")
	room.CloseClue(hostID, true)

	if !room.buzzer.Locked || room.buzzer.Winner == nil {
		t.Error("close touched the buzzer")
	}
}

func TestUnlockBuzzer(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	room.PickClue(hostID, 0, 0)
	room.Buzz("conn-a")

	if !room.UnlockBuzzer(hostID) {
		t.Fatal("unlock rejected")
	}
	if room.buzzer.Locked || room.buzzer.Winner != nil {
		t.Errorf("buzzer not cleared: %+v", room.buzzer)
	}
	if room.activeClue == nil {
		t.Error("unlock cleared the active clue")
	}
	if !room.Buzz("conn-a") {
		t.Error("re-buzz rejected after unlock")
	}
}

func TestNextTurnCycles(t *testing.T) {
	for _, mode := range []GameMode{ModeTurns, ModeBuzzer} {
		room := newTestRoom(t, mode)

		if room.turn.Team != 0 {
			t.Fatalf("turn starts at %d", room.turn.Team)
		}
		for i := 0; i < teamCount; i++ {
			room.NextTurn(hostID)
		}
		if room.turn.Team != 0 {
			t.Errorf("mode %s: turn %d after full cycle", mode, room.turn.Team)
		}
	}
}

func TestSetTurnClamps(t *testing.T) {
	room := newTestRoom(t, ModeTurns)

	room.SetTurn(hostID, 7)
	if room.turn.Team != teamCount-1 {
		t.Errorf("turn %d, want %d", room.turn.Team, teamCount-1)
	}
	room.SetTurn(hostID, -2)
	if room.turn.Team != 0 {
		t.Errorf("turn %d, want 0", room.turn.Team)
	}
}

func TestScore(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)

	room.Score(hostID, 1, 400)
	room.Score(hostID, 1, -600)
	if got := room.teams[1].Score; got != -200 {
		t.Errorf("score %d, want -200", got)
	}

	room.Score(hostID, 99, 100)
	if got := room.teams[teamCount-1].Score; got != 100 {
		t.Errorf("clamped score %d, want 100", got)
	}
}

func TestRenameTeam(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)

	room.RenameTeam(hostID, 0, "  The Quizzards  ")
	if got := room.teams[0].Name; got != "The Quizzards" {
		t.Errorf("name %q", got)
	}

	room.RenameTeam(hostID, 0, "   ")
	if got := room.teams[0].Name; got != "Team 1" {
		t.Errorf("empty rename fell back to %q", got)
	}

	room.RenameTeam(hostID, 1, "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")
	if got := len([]rune(room.teams[1].Name)); got != teamNameMax {
		t.Errorf("name length %d, want %d", got, teamNameMax)
	}
}

func TestNonHostActionsAreNoOps(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	before := room.Snapshot()

	ops := map[string]bool{
		"pick":        room.PickClue("conn-a", 0, 0),
		"show_answer": room.ShowAnswer("conn-a"),
		"close":       room.CloseClue("conn-a", true),
		"unlock":      room.UnlockBuzzer("conn-a"),
		"score":       room.Score("conn-a", 0, 1000),
		"rename_team": room.RenameTeam("conn-a", 0, "Cheaters"),
		"set_turn":    room.SetTurn("conn-a", 2),
		"next_turn":   room.NextTurn("conn-a"),
		"new_round":   room.NewRound("conn-a", false),
	}

	for op, changed := range ops {
		if changed {
			t.Errorf("%s from non-host reported a change", op)
		}
	}

	if !reflect.DeepEqual(before, room.Snapshot()) {
		t.Error("non-host actions mutated room state")
	}
}

func TestNewRoundScores(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)
	room.Score(hostID, 0, 500)
	room.Score(hostID, 2, -300)
	room.PickClue(hostID, 0, 0)
	room.Buzz("conn-a")

	room.NewRound(hostID, true)
	if room.teams[0].Score != 500 || room.teams[2].Score != -300 {
		t.Error("keepScores did not preserve scores")
	}
	if room.activeClue != nil || room.buzzer.Locked || room.buzzer.Winner != nil {
		t.Error("new round did not clear clue and buzzer state")
	}

	room.NewRound(hostID, false)
	for i, team := range room.teams {
		if team.Score != 0 {
			t.Errorf("team %d score %d after reset", i, team.Score)
		}
	}
}

func TestJoinIsOneTimePerConnection(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)

	if !room.JoinPlayer("conn-a", "Ada", 1) {
		t.Fatal("join rejected")
	}
	if room.JoinPlayer("conn-a", "Imposter", 2) {
		t.Error("second join from same connection accepted")
	}
	if got := room.players["conn-a"]; got.Name != "Ada" || got.Team != 1 {
		t.Errorf("player overwritten: %+v", got)
	}

	room.JoinPlayer("conn-b", "", 9)
	if got := room.players["conn-b"]; got.Name != "Player" || got.Team != teamCount-1 {
		t.Errorf("join defaults: %+v", got)
	}
}

func TestRemovePlayer(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	if !room.RemovePlayer("conn-a") {
		t.Error("remove rejected")
	}
	if room.RemovePlayer("conn-a") {
		t.Error("removing an unknown player reported a change")
	}
}

func TestSnapshotHidesInternals(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)

	snap := room.Snapshot()

	if snap.Code != "GAME" || snap.HostName != "Alex" || snap.Mode != ModeBuzzer {
		t.Errorf("snapshot header: %+v", snap)
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "Ada" {
		t.Errorf("snapshot players: %+v", snap.Players)
	}

	// Mutating the snapshot must not reach the room.
	snap.Board[0].Clues[0].Used = true
	snap.Teams[0].Score = 9999
	if room.board[0].Clues[0].Used || room.teams[0].Score != 0 {
		t.Error("snapshot shares memory with room state")
	}

	encoded, err := json.Marshal(room.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(encoded), hostID) {
		t.Error("snapshot leaks the host connection id")
	}
	if strings.Contains(string(encoded), `"id"`) {
		t.Error("snapshot leaks question identifiers")
	}
}

// Full walkthrough: create, pick, race, unlock, close.
func TestBuzzerScenario(t *testing.T) {
	room := newTestRoom(t, ModeBuzzer)
	room.JoinPlayer("conn-a", "Ada", 0)
	room.JoinPlayer("conn-b", "Ben", 1)

	checkBoardShape(t, room.board)

	if !room.PickClue(hostID, 2, 3) {
		t.Fatal("pick rejected")
	}
	want := ActiveClue{Category: 2, Row: 3, Reveal: RevealQuestion}
	if *room.activeClue != want {
		t.Fatalf("active clue %+v", room.activeClue)
	}

	if !room.Buzz("conn-a") {
		t.Fatal("Ada's buzz rejected")
	}
	if room.Buzz("conn-b") {
		t.Error("Ben's buzz accepted after lock")
	}
	if room.buzzer.Winner.Name != "Ada" {
		t.Errorf("winner %q", room.buzzer.Winner.Name)
	}

	room.UnlockBuzzer(hostID)
	if room.buzzer.Locked || room.buzzer.Winner != nil {
		t.Error("buzzer not reset")
	}
	if *room.activeClue != want {
		t.Error("unlock changed the active clue")
	}

	room.CloseClue(hostID, true)
	if !room.board[2].Clues[3].Used {
		t.Error("clue not marked used")
	}
	if room.activeClue != nil {
		t.Error("active clue not cleared")
	}
}
