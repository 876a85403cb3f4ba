package main

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
)

const (
	boardCategories    = 6
	boardRows          = 5
	boardDailyDoubles  = 2
	clueBaseValue      = 200
	placeholderText    = "(clue unavailable)"
	placeholderCatName = "Out of Questions"
)

// Clue is one cell of the board.
type Clue struct {
	id          string
	Value       int    `json:"value"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Used        bool   `json:"used"`
	DailyDouble bool   `json:"dd"`
}

// Category is one column of the board.
type Category struct {
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

// Board is the fixed 6x5 grid served to a room for one round.
type Board []Category

// Inventory holds aggregate question-bank counts for the diagnostic endpoint.
type Inventory struct {
	Categories int `json:"categories"`
	Clues      int `json:"clues"`
}

// BoardProvider supplies fresh boards for a room, skipping question ids the
// room has already served.
type BoardProvider interface {
	BuildBoard(used map[string]bool) (Board, error)
	Inventory() Inventory
}

type bankCategory struct {
	Title string `json:"title"`
	Clues []struct {
		ID       string `json:"id"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"clues"`
}

type questionBank struct {
	Categories []bankCategory `json:"categories"`
}

//go:embed questions/bank.json
var bankJSON []byte

// StaticProvider serves boards from the embedded question bank.
type StaticProvider struct {
	bank questionBank
}

func NewStaticProvider() (*StaticProvider, error) {
	p := &StaticProvider{}
	if err := json.Unmarshal(bankJSON, &p.bank); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *StaticProvider) Inventory() Inventory {
	inv := Inventory{Categories: len(p.bank.Categories)}
	for _, cat := range p.bank.Categories {
		inv.Clues += len(cat.Clues)
	}

	return inv
}

func placeholderClue(row int) Clue {
	return Clue{
		Value:    (row + 1) * clueBaseValue,
		Question: placeholderText,
		Answer:   placeholderText,
	}
}

// placeholderBoard is the degraded board used when the provider cannot supply
// fresh content: still exactly 6x5 well-formed entries, visibly unavailable.
func placeholderBoard() Board {
	board := make(Board, boardCategories)
	for c := range board {
		board[c].Title = placeholderCatName
		board[c].Clues = make([]Clue, boardRows)
		for r := range board[c].Clues {
			board[c].Clues[r] = placeholderClue(r)
		}
	}

	return board
}

func randomInt(n int) int {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}

	return int(b[0]) % n
}

// BuildBoard picks 6 categories that still have unserved clues, then places
// 2 daily doubles anywhere below the top row. Clues whose id already appears
// in used are replaced with placeholders rather than repeated.
func (p *StaticProvider) BuildBoard(used map[string]bool) (Board, error) {
	candidates := make([]bankCategory, 0, len(p.bank.Categories))
	for _, cat := range p.bank.Categories {
		if len(cat.Clues) < boardRows {
			continue
		}

		fresh := 0
		for _, clue := range cat.Clues[:boardRows] {
			if !used[clue.ID] {
				fresh++
			}
		}
		if fresh > 0 {
			candidates = append(candidates, cat)
		}
	}

	// Fisher-Yates shuffle so repeat rounds see different categories.
	for i := len(candidates) - 1; i > 0; i-- {
		j := randomInt(i + 1)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	board := make(Board, 0, boardCategories)
	for _, cat := range candidates {
		if len(board) == boardCategories {
			break
		}

		col := Category{Title: cat.Title, Clues: make([]Clue, boardRows)}
		for r := 0; r < boardRows; r++ {
			src := cat.Clues[r]
			if used[src.ID] {
				col.Clues[r] = placeholderClue(r)
				continue
			}
			col.Clues[r] = Clue{
				id:       src.ID,
				Value:    (r + 1) * clueBaseValue,
				Question: src.Question,
				Answer:   src.Answer,
			}
		}
		board = append(board, col)
	}

	// Bank exhausted: pad with placeholder columns so the grid stays 6x5.
	for len(board) < boardCategories {
		board = append(board, placeholderBoard()[0])
	}

	placeDailyDoubles(board)

	return board, nil
}

// buildBoard wraps a provider call with the degraded fallback: a provider
// failure never fails the round, it just yields a visibly unavailable board.
func buildBoard(p BoardProvider, used map[string]bool) Board {
	if p == nil {
		board := placeholderBoard()
		placeDailyDoubles(board)
		return board
	}

	board, err := p.BuildBoard(used)
	if err != nil {
		board = placeholderBoard()
		placeDailyDoubles(board)
	}

	return board
}

// placeDailyDoubles marks exactly 2 distinct cells, never in row 0.
func placeDailyDoubles(board Board) {
	type cell struct{ cat, row int }

	placed := make(map[cell]bool, boardDailyDoubles)
	for len(placed) < boardDailyDoubles {
		c := cell{cat: randomInt(boardCategories), row: 1 + randomInt(boardRows-1)}
		if placed[c] {
			continue
		}
		placed[c] = true
		board[c.cat].Clues[c.row].DailyDouble = true
	}
}
