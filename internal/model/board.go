package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDie   = errors.New("die must be between 1 and 6")
	ErrInvalidToken = errors.New("token index out of range")
	ErrNotMovable   = errors.New("token cannot move with this die")
)

// Board is the token arena indexed by (colour, slot). It is a value type:
// assigning a Board copies every token.
type Board struct {
	Tokens [ColorCount][TokensPerColor]Token `json:"tokens" yaml:"tokens"`
}

// Capture 击杀信息
type Capture struct {
	Color Color `json:"color"`
	Index int   `json:"index"`
	From  Token `json:"from"`
	Cell  int   `json:"cell"`
}

// MoveResult 代表一次移动的结果
type MoveResult struct {
	Color     Color             `json:"color"`
	Index     int               `json:"index"`
	Die       int               `json:"die"`
	From      Token             `json:"from"`
	To        Token             `json:"to"`
	Captures  []Capture         `json:"captures,omitempty"`
	Reasons   []ExtraTurnReason `json:"extra_turn_reasons,omitempty"`
	ExtraTurn bool              `json:"extra_turn"`
	Won       bool              `json:"won"`
}

// NewBoard puts every token at base.
func NewBoard() Board {
	var b Board
	for c := range b.Tokens {
		for i := range b.Tokens[c] {
			b.Tokens[c][i] = BaseToken()
		}
	}
	return b
}

func ValidDie(die int) bool {
	return die >= MinDie && die <= MaxDie
}

func (b *Board) Token(c Color, idx int) (Token, bool) {
	if !c.Valid() || idx < 0 || idx >= TokensPerColor {
		return Token{}, false
	}
	return b.Tokens[c][idx], true
}

// canMove 判断单个棋子能否移动 die 步
func canMove(t Token, die int) bool {
	switch {
	case t.Home:
		return false
	case t.Zone == ZoneBase:
		return die == MaxDie
	case t.Zone == ZoneStretch:
		return t.Pos+die <= HomeOffset
	case t.Zone == ZoneRing:
		return t.Pos+die-StretchEntry <= HomeOffset
	default:
		return false
	}
}

// Movable returns the indices of colour c's tokens that can legally move
// with die, in slot order. An invalid colour or die yields nil.
func (b *Board) Movable(c Color, die int) []int {
	if !c.Valid() || !ValidDie(die) {
		return nil
	}
	var ids []int
	for i, t := range b.Tokens[c] {
		if canMove(t, die) {
			ids = append(ids, i)
		}
	}
	return ids
}

// Apply moves token idx of colour c by die and returns the resulting board.
// The receiver is left untouched.
func (b Board) Apply(r Rules, c Color, idx, die int) (Board, MoveResult, error) {
	if !ValidDie(die) {
		return b, MoveResult{}, ErrInvalidDie
	}
	t, ok := b.Token(c, idx)
	if !ok {
		return b, MoveResult{}, ErrInvalidToken
	}
	if !canMove(t, die) {
		return b, MoveResult{}, ErrNotMovable
	}

	res := MoveResult{Color: c, Index: idx, Die: die, From: t}
	switch t.Zone {
	case ZoneBase:
		t = Token{Zone: ZoneRing, Pos: 0}
	case ZoneStretch:
		t.Pos += die
		t.Home = t.Pos == HomeOffset
	case ZoneRing:
		next := t.Pos + die
		if next >= StretchEntry {
			t = Token{Zone: ZoneStretch, Pos: next - StretchEntry}
			t.Home = t.Pos == HomeOffset
			break
		}
		t.Pos = next
		res.Captures = b.captureAt(r, c, r.Cell(c, next))
	}
	b.Tokens[c][idx] = t

	res.To = t
	res.Won = b.HasWon(c)
	res.Reasons = r.extraTurnReasons(res)
	res.ExtraTurn = len(res.Reasons) > 0
	return b, res, nil
}

// captureAt sends every opposing ring token on cell back to base unless the
// cell is safe. It mutates b, which is always a private copy inside Apply.
func (b *Board) captureAt(r Rules, mover Color, cell int) []Capture {
	if r.IsSafe(cell) {
		return nil
	}
	var captures []Capture
	for oc := range b.Tokens {
		other := Color(oc)
		if other == mover {
			continue
		}
		for j, ot := range b.Tokens[oc] {
			if !ot.OnRing() || r.Cell(other, ot.Pos) != cell {
				continue
			}
			captures = append(captures, Capture{Color: other, Index: j, From: ot, Cell: cell})
			b.Tokens[oc][j] = BaseToken()
		}
	}
	return captures
}

// HasWon reports whether all four tokens of c reached home.
func (b *Board) HasWon(c Color) bool {
	if !c.Valid() {
		return false
	}
	for _, t := range b.Tokens[c] {
		if !t.Home {
			return false
		}
	}
	return true
}

// Occupants lists the ring tokens standing on an absolute cell.
func (b *Board) Occupants(r Rules, cell int) []TokenRef {
	var refs []TokenRef
	for c := range b.Tokens {
		for i, t := range b.Tokens[c] {
			if t.OnRing() && r.Cell(Color(c), t.Pos) == cell {
				refs = append(refs, TokenRef{Color: Color(c), Index: i})
			}
		}
	}
	return refs
}

// HomeCount 已到终点棋子数
func (b *Board) HomeCount(c Color) int {
	n := 0
	if !c.Valid() {
		return n
	}
	for _, t := range b.Tokens[c] {
		if t.Home {
			n++
		}
	}
	return n
}

func (b *Board) Desc() string {
	var sb strings.Builder
	for c := range b.Tokens {
		sb.WriteString(fmt.Sprintf("%v%v ", Color(c), b.Tokens[c]))
	}
	return strings.TrimSpace(sb.String())
}
