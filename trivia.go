// Quizbox Trivia Game
//
// A host opens the board on a shared display and players join from their
// phones with a short room code (or the QR code on the host screen). The host
// picks clues, reveals answers, and adjudicates; players race to buzz in, or
// take turns team by team, depending on the room mode.
//
// Features:
// - One websocket per connection: /host/ws to create, /play/:code/ws to join
// - First-buzz-wins arbitration, serialized on the room's command loop
// - Three fixed teams with host-controlled naming, scoring, and turn order
// - 6x5 board with two daily doubles, never in the top row
// - Fresh boards per round that avoid repeating served questions
// - Rooms die the instant the host disconnects
// - In-browser QR button to share the room, backed by go-qrcode

package main

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func parseMode(raw string) GameMode {
	if raw == string(ModeTurns) {
		return ModeTurns
	}

	return ModeBuzzer
}

// serveHostWS upgrades the host connection. The first message must be
// "create"; everything after that is a host action on the new room.
func serveHostWS(d *Dispatcher) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("Websocket upgrade failed")
			return
		}

		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil || msg.Type != "create" {
			_ = conn.WriteJSON(RoomErrorMessage{Type: "room_error", Message: "expected a create message"})
			_ = conn.Close()
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: uuid.NewString(),
		}

		hub, err := d.CreateRoom(client.connID, strings.TrimSpace(msg.Name), parseMode(msg.Mode))
		if err != nil {
			_ = conn.WriteJSON(RoomErrorMessage{Type: "room_error", Message: "could not create room"})
			_ = conn.Close()
			return
		}

		log.Info().Str("room_code", hub.room.code).Str("mode", string(hub.room.mode)).Msg("Created room")

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

// servePlayerWS attaches a connection to an existing room's channel. Unknown
// codes get a room_error and nothing else.
func servePlayerWS(d *Dispatcher) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("Websocket upgrade failed")
			return
		}

		hub, exists := d.Hub(code)
		if !exists {
			_ = conn.WriteJSON(RoomErrorMessage{Type: "room_error", Message: "room " + code + " not found"})
			_ = conn.Close()
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: uuid.NewString(),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.WriteJSON(RoomErrorMessage{Type: "room_error", Message: "room " + code + " not found"})
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

// QR handler: generates a PNG QR code for the room's join URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /play/:code/qr; strip trailing "/qr" to get the join URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// serveInventory exposes aggregate question-bank counts plus the live room
// count. Read-only, diagnostic only.
func serveInventory(cfg *Config, provider BoardProvider, registry *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(struct {
			Inventory
			Rooms int `json:"rooms"`
		}{
			Inventory: provider.Inventory(),
			Rooms:     registry.Count(),
		})
	}
}

//go:embed trivia/host.html
var hostHTML []byte

//go:embed trivia/play.html
var playHTML []byte

//go:embed trivia/app.css
var triviaCSS []byte

//go:embed trivia/app.js
var triviaJS []byte

func staticHandler(cfg *Config, contentType string, data []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

// registerTriviaGame sets up routes so that:
//   - /host              → HTML host display, which creates a room over /host/ws
//   - /host/ws           → websocket that creates and controls a room
//   - /play/:code        → HTML player client
//   - /play/:code/ws     → websocket joined to that room
//   - /play/:code/qr     → PNG QR code for that room's join URL
//   - /api/inventory     → question-bank and room counts
func registerTriviaGame(cfg *Config, mux *httprouter.Router, d *Dispatcher, provider BoardProvider) {
	mux.GET(cfg.prefix+"/host", staticHandler(cfg, "text/html; charset=utf-8", hostHTML))
	mux.GET(cfg.prefix+"/host/ws", serveHostWS(d))

	mux.GET(cfg.prefix+"/play/:code", staticHandler(cfg, "text/html; charset=utf-8", playHTML))
	mux.GET(cfg.prefix+"/play/:code/ws", servePlayerWS(d))
	mux.GET(cfg.prefix+"/play/:code/qr", qrHandler)

	mux.GET(cfg.prefix+"/assets/trivia/app.css", staticHandler(cfg, "text/css; charset=utf-8", triviaCSS))
	mux.GET(cfg.prefix+"/assets/trivia/app.js", staticHandler(cfg, "application/javascript; charset=utf-8", triviaJS))

	mux.GET(cfg.prefix+"/api/inventory", serveInventory(cfg, provider, d.registry))
}
