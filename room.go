package main

import (
	"sort"
	"strconv"
	"strings"
)

// GameMode decides which player action is legal: buzzer rooms race to buzz
// in, turns rooms rotate between teams under host control.
type GameMode string

const (
	ModeBuzzer GameMode = "buzzer"
	ModeTurns  GameMode = "turns"
)

const (
	teamCount   = 3
	teamNameMax = 24
)

type Team struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type PlayerInfo struct {
	Name string `json:"name"`
	Team int    `json:"team"`
}

type RevealState string

const (
	RevealQuestion RevealState = "question"
	RevealAnswer   RevealState = "answer"
)

type ActiveClue struct {
	Category int         `json:"category"`
	Row      int         `json:"row"`
	Reveal   RevealState `json:"reveal"`
}

type BuzzWinner struct {
	Name string `json:"name"`
	Team int    `json:"team"`
}

type BuzzerState struct {
	Locked bool        `json:"locked"`
	Winner *BuzzWinner `json:"winner"`
}

type TurnState struct {
	Team int `json:"team"`
}

// Room holds one game session. All mutation goes through the operation
// methods below, and every operation is applied on the room's command loop
// goroutine, one at a time; that serialization is what makes the buzz
// check-and-set race-free.
type Room struct {
	code       string
	hostConnID string
	hostName   string
	mode       GameMode

	teams   [teamCount]Team
	players map[string]PlayerInfo

	board      Board
	activeClue *ActiveClue
	turn       TurnState
	buzzer     BuzzerState

	usedQuestions map[string]bool
	provider      BoardProvider
}

func newRoom(code, hostConnID, hostName string, mode GameMode, provider BoardProvider) *Room {
	r := &Room{
		code:          code,
		hostConnID:    hostConnID,
		hostName:      hostName,
		mode:          mode,
		players:       make(map[string]PlayerInfo),
		usedQuestions: make(map[string]bool),
		provider:      provider,
	}

	for i := range r.teams {
		r.teams[i].Name = defaultTeamName(i)
	}

	r.board = buildBoard(provider, r.usedQuestions)

	return r
}

func defaultTeamName(idx int) string {
	return "Team " + strconv.Itoa(idx+1)
}

func clampTeam(idx int) int {
	if idx < 0 {
		return 0
	}
	if idx >= teamCount {
		return teamCount - 1
	}

	return idx
}

func (r *Room) isHost(connID string) bool {
	return connID == r.hostConnID
}

func (r *Room) clueAt(cat, row int) *Clue {
	if cat < 0 || cat >= len(r.board) || row < 0 || row >= len(r.board[cat].Clues) {
		return nil
	}

	return &r.board[cat].Clues[row]
}

// PickClue opens a clue and starts a fresh buzz window. Re-picking while any
// clue is active is rejected, as is a used or out-of-bounds clue.
func (r *Room) PickClue(connID string, cat, row int) bool {
	if !r.isHost(connID) || r.activeClue != nil {
		return false
	}

	clue := r.clueAt(cat, row)
	if clue == nil || clue.Used {
		return false
	}

	if clue.id != "" {
		r.usedQuestions[clue.id] = true
	}

	r.activeClue = &ActiveClue{Category: cat, Row: row, Reveal: RevealQuestion}
	r.buzzer = BuzzerState{}

	return true
}

func (r *Room) ShowAnswer(connID string) bool {
	if !r.isHost(connID) || r.activeClue == nil || r.activeClue.Reveal == RevealAnswer {
		return false
	}

	r.activeClue.Reveal = RevealAnswer

	return true
}

// CloseClue clears the active clue. The used flag is only ever set here, and
// only for the clue that was active. The buzzer is left alone so the host can
// still see who won after closing.
func (r *Room) CloseClue(connID string, markUsed bool) bool {
	if !r.isHost(connID) || r.activeClue == nil {
		return false
	}

	if markUsed {
		if clue := r.clueAt(r.activeClue.Category, r.activeClue.Row); clue != nil {
			clue.Used = true
		}
	}
	r.activeClue = nil

	return true
}

// Buzz is the arbitration-critical operation: first valid buzz locks the
// buzzer and records the buzzing player's identity as of this instant. All
// later buzzes in the same window fall through the Locked check and are
// no-ops.
func (r *Room) Buzz(connID string) bool {
	if r.mode != ModeBuzzer || r.activeClue == nil || r.buzzer.Locked {
		return false
	}

	player, ok := r.players[connID]
	if !ok {
		return false
	}

	r.buzzer.Locked = true
	r.buzzer.Winner = &BuzzWinner{Name: player.Name, Team: player.Team}

	return true
}

// UnlockBuzzer reopens the race on the current clue, typically after a wrong
// answer. Works regardless of whether a clue is active.
func (r *Room) UnlockBuzzer(connID string) bool {
	if !r.isHost(connID) {
		return false
	}
	if !r.buzzer.Locked && r.buzzer.Winner == nil {
		return false
	}

	r.buzzer = BuzzerState{}

	return true
}

func (r *Room) Score(connID string, team, delta int) bool {
	if !r.isHost(connID) {
		return false
	}

	r.teams[clampTeam(team)].Score += delta

	return true
}

func (r *Room) RenameTeam(connID string, team int, name string) bool {
	if !r.isHost(connID) {
		return false
	}

	idx := clampTeam(team)

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultTeamName(idx)
	}
	if runes := []rune(name); len(runes) > teamNameMax {
		name = string(runes[:teamNameMax])
	}

	r.teams[idx].Name = name

	return true
}

func (r *Room) SetTurn(connID string, team int) bool {
	if !r.isHost(connID) {
		return false
	}

	r.turn.Team = clampTeam(team)

	return true
}

func (r *Room) NextTurn(connID string) bool {
	if !r.isHost(connID) {
		return false
	}

	r.turn.Team = (r.turn.Team + 1) % teamCount

	return true
}

// NewRound swaps in a fresh board, avoiding questions this room has already
// served. Scores survive only when keepScores is set; the active clue and
// buzzer never do.
func (r *Room) NewRound(connID string, keepScores bool) bool {
	if !r.isHost(connID) {
		return false
	}

	r.board = buildBoard(r.provider, r.usedQuestions)
	r.activeClue = nil
	r.buzzer = BuzzerState{}

	if !keepScores {
		for i := range r.teams {
			r.teams[i].Score = 0
		}
	}

	return true
}

// JoinPlayer registers a connection as a player. Join is a one-time action
// per connection; a second join from the same id is ignored, and the host
// connection can never double as a player.
func (r *Room) JoinPlayer(connID, name string, team int) bool {
	if connID == r.hostConnID {
		return false
	}
	if _, exists := r.players[connID]; exists {
		return false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}

	r.players[connID] = PlayerInfo{Name: name, Team: clampTeam(team)}

	return true
}

func (r *Room) RemovePlayer(connID string) bool {
	if _, exists := r.players[connID]; !exists {
		return false
	}

	delete(r.players, connID)

	return true
}

// Snapshot is the serializable projection of room state sent to clients.
// Connection ids and the served-question ledger stay server-side.
type Snapshot struct {
	Code       string       `json:"code"`
	HostName   string       `json:"hostName"`
	Mode       GameMode     `json:"mode"`
	Teams      []Team       `json:"teams"`
	Players    []PlayerInfo `json:"players"`
	Board      Board        `json:"board"`
	ActiveClue *ActiveClue  `json:"activeClue"`
	Turn       TurnState    `json:"turn"`
	Buzzer     BuzzerState  `json:"buzzer"`
}

func (r *Room) Snapshot() Snapshot {
	snap := Snapshot{
		Code:     r.code,
		HostName: r.hostName,
		Mode:     r.mode,
		Teams:    append([]Team(nil), r.teams[:]...),
		Players:  make([]PlayerInfo, 0, len(r.players)),
		Board:    make(Board, len(r.board)),
		Turn:     r.turn,
		Buzzer:   BuzzerState{Locked: r.buzzer.Locked},
	}

	for _, p := range r.players {
		snap.Players = append(snap.Players, p)
	}
	sort.Slice(snap.Players, func(i, j int) bool {
		if snap.Players[i].Team != snap.Players[j].Team {
			return snap.Players[i].Team < snap.Players[j].Team
		}
		return snap.Players[i].Name < snap.Players[j].Name
	})

	for i, cat := range r.board {
		snap.Board[i] = Category{Title: cat.Title, Clues: append([]Clue(nil), cat.Clues...)}
	}

	if r.activeClue != nil {
		active := *r.activeClue
		snap.ActiveClue = &active
	}
	if r.buzzer.Winner != nil {
		winner := *r.buzzer.Winner
		snap.Buzzer.Winner = &winner
	}

	return snap
}
