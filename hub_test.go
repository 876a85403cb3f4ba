package main

import (
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	return NewDispatcher(newTestRegistry(t))
}

func testClient(connID string) *Client {
	return &Client{send: make(chan any, 32), connID: connID}
}

func recv(t *testing.T, c *Client) any {
	t.Helper()

	select {
	case msg, more := <-c.send:
		if !more {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func recvUpdate(t *testing.T, c *Client) RoomUpdateMessage {
	t.Helper()

	msg := recv(t, c)
	update, ok := msg.(RoomUpdateMessage)
	if !ok {
		t.Fatalf("expected room_update, got %T", msg)
	}
	return update
}

func joinTestPlayer(t *testing.T, hub *roomHub, c *Client, name string, team int) {
	t.Helper()

	hub.register <- c
	recvUpdate(t, c)

	hub.actions <- command{client: c, msg: ClientMessage{Type: "join", Name: name, Team: team}}
	if msg := recv(t, c); msg.(PlayerJoinedMessage).Name != name {
		t.Fatalf("join confirmation: %+v", msg)
	}
	recvUpdate(t, c)
}

func TestHubCreateAndJoin(t *testing.T) {
	d := newTestDispatcher(t)

	hub, err := d.CreateRoom("host-1", "Alex", ModeBuzzer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	host := testClient("host-1")
	hub.register <- host

	created, ok := recv(t, host).(RoomCreatedMessage)
	if !ok || created.Code != hub.room.code {
		t.Fatalf("room_created: %+v", created)
	}

	player := testClient("player-1")
	joinTestPlayer(t, hub, player, "Ada", 1)

	update := recvUpdate(t, host)
	if len(update.Room.Players) != 1 || update.Room.Players[0].Name != "Ada" {
		t.Errorf("host did not see the joiner: %+v", update.Room.Players)
	}
}

func TestHubBuzzOrdering(t *testing.T) {
	d := newTestDispatcher(t)

	hub, err := d.CreateRoom("host-1", "Alex", ModeBuzzer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	host := testClient("host-1")
	hub.register <- host
	recv(t, host) // room_created

	ada := testClient("player-a")
	ben := testClient("player-b")
	joinTestPlayer(t, hub, ada, "Ada", 0)
	recvUpdate(t, host)
	joinTestPlayer(t, hub, ben, "Ben", 1)
	recvUpdate(t, host)
	recvUpdate(t, ada)

	hub.actions <- command{client: host, msg: ClientMessage{Type: "pick", Category: 2, Row: 3}}

	// Two buzzes land in the same window; queue order decides the winner.
	hub.actions <- command{client: ada, msg: ClientMessage{Type: "buzz"}}
	hub.actions <- command{client: ben, msg: ClientMessage{Type: "buzz"}}

	recvUpdate(t, host) // pick
	update := recvUpdate(t, host)
	winner := update.Room.Buzzer.Winner
	if winner == nil || winner.Name != "Ada" {
		t.Fatalf("winner: %+v", winner)
	}

	// Ben's buzz was a no-op, so no further broadcast follows.
	select {
	case msg := <-host.send:
		t.Fatalf("unexpected broadcast after losing buzz: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPlayerDisconnect(t *testing.T) {
	d := newTestDispatcher(t)

	hub, err := d.CreateRoom("host-1", "Alex", ModeBuzzer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	host := testClient("host-1")
	hub.register <- host
	recv(t, host)

	player := testClient("player-1")
	joinTestPlayer(t, hub, player, "Ada", 0)
	recvUpdate(t, host)

	hub.unreg <- player

	update := recvUpdate(t, host)
	if len(update.Room.Players) != 0 {
		t.Errorf("player still present after disconnect: %+v", update.Room.Players)
	}

	if _, exists := d.Hub(hub.room.code); !exists {
		t.Error("player disconnect tore down the room")
	}
}

func TestHubHostDisconnectEndsRoom(t *testing.T) {
	d := newTestDispatcher(t)

	hub, err := d.CreateRoom("host-1", "Alex", ModeTurns)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := hub.room.code

	host := testClient("host-1")
	hub.register <- host
	recv(t, host)

	player := testClient("player-1")
	joinTestPlayer(t, hub, player, "Ada", 0)
	recvUpdate(t, host)

	hub.unreg <- host

	if _, ok := recv(t, player).(RoomEndedMessage); !ok {
		t.Error("player did not receive room_ended")
	}

	select {
	case _, more := <-player.send:
		if more {
			t.Error("expected player channel to close after room_ended")
		}
	case <-time.After(time.Second):
		t.Error("player channel left open")
	}

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub loop did not exit")
	}

	if _, exists := d.Hub(code); exists {
		t.Error("hub still resolvable after host disconnect")
	}
	if _, exists := d.registry.Get(code); exists {
		t.Error("room still registered after host disconnect")
	}
}
