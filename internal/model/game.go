package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrGameOver       = errors.New("game is over")
	ErrWrongPhase     = errors.New("command not allowed in current phase")
	ErrInvalidSeating = errors.New("a game seats 2 to 4 distinct colors")
	ErrUnknownCommand = errors.New("unknown command")
)

// Phase 回合阶段
type Phase int8

const (
	PhaseAwaitRoll Phase = iota // 等待掷骰
	PhaseAwaitMove              // 等待移动
	PhaseFinished               // 已结束
)

var phaseNames = []string{"awaiting-roll", "awaiting-move", "finished"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", p)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	if i := slices.Index(phaseNames, string(text)); i >= 0 {
		*p = Phase(i)
		return nil
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Turn is whose turn it is and what the last roll left to do.
type Turn struct {
	Color   Color `json:"color"`
	Die     int   `json:"die"`
	Sixes   int   `json:"sixes"`
	Movable []int `json:"movable"`
}

// Stats 对局统计
type Stats struct {
	Rolls     int `json:"rolls"`
	Moves     int `json:"moves"`
	Captures  int `json:"captures"`
	Forfeits  int `json:"forfeits"`
	TurnsDone int `json:"turns"`
}

// Game is the full rule state. Every command returns a new Game; slices held
// by a Game are never modified in place, so copies may share them.
type Game struct {
	Board  Board   `json:"board"`
	Rules  Rules   `json:"rules"`
	Colors []Color `json:"colors"`
	Phase  Phase   `json:"phase"`
	Turn   Turn    `json:"turn"`
	Winner Color   `json:"winner"`
	Seq    int64   `json:"seq"`
	Stats  Stats   `json:"stats"`
}

// NewGame seats colors in turn order; the first one rolls first.
func NewGame(rules Rules, colors []Color) (Game, error) {
	if err := rules.Validate(); err != nil {
		return Game{}, err
	}
	if len(colors) < 2 || len(colors) > ColorCount {
		return Game{}, ErrInvalidSeating
	}
	seen := make(map[Color]struct{}, len(colors))
	for _, c := range colors {
		if !c.Valid() {
			return Game{}, ErrInvalidSeating
		}
		if _, dup := seen[c]; dup {
			return Game{}, ErrInvalidSeating
		}
		seen[c] = struct{}{}
	}
	return initialGame(rules, slices.Clone(colors), 0), nil
}

func initialGame(rules Rules, colors []Color, seq int64) Game {
	return Game{
		Board:  NewBoard(),
		Rules:  rules,
		Colors: colors,
		Phase:  PhaseAwaitRoll,
		Turn:   Turn{Color: colors[0]},
		Winner: NoColor,
		Seq:    seq,
	}
}

// CommandKind 指令类型
type CommandKind int8

const (
	CmdRoll CommandKind = iota
	CmdMove
	CmdReset
)

func (k CommandKind) String() string {
	switch k {
	case CmdRoll:
		return "roll"
	case CmdMove:
		return "move"
	case CmdReset:
		return "reset"
	default:
		return fmt.Sprintf("CommandKind(%d)", k)
	}
}

func (k CommandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Command struct {
	Kind  CommandKind
	Die   int
	Token int
}

func Roll(die int) Command   { return Command{Kind: CmdRoll, Die: die} }
func Move(token int) Command { return Command{Kind: CmdMove, Token: token} }
func Reset() Command         { return Command{Kind: CmdReset} }

// Outcome describes the effect of one accepted command.
type Outcome struct {
	Kind      CommandKind `json:"kind"`
	Color     Color       `json:"color"`
	Die       int         `json:"die,omitempty"`
	Movable   []int       `json:"movable,omitempty"`
	Forfeited bool        `json:"forfeited,omitempty"`
	Passed    bool        `json:"passed,omitempty"`
	Move      *MoveResult `json:"move,omitempty"`
	Next      Color       `json:"next"`
	Winner    Color       `json:"winner"`
}

// Apply is the engine entry point: (state, command) -> state. A rejected
// command returns the receiver unchanged together with the error.
func (g Game) Apply(cmd Command) (Game, Outcome, error) {
	switch cmd.Kind {
	case CmdRoll:
		return g.roll(cmd.Die)
	case CmdMove:
		return g.move(cmd.Token)
	case CmdReset:
		return g.reset()
	default:
		return g, Outcome{}, ErrUnknownCommand
	}
}

func (g Game) roll(die int) (Game, Outcome, error) {
	if g.Phase == PhaseFinished {
		return g, Outcome{}, ErrGameOver
	}
	if g.Phase != PhaseAwaitRoll {
		return g, Outcome{}, ErrWrongPhase
	}
	if !ValidDie(die) {
		return g, Outcome{}, ErrInvalidDie
	}

	color := g.Turn.Color
	out := Outcome{Kind: CmdRoll, Color: color, Die: die, Winner: NoColor}
	g.Seq++
	g.Stats.Rolls++
	g.Turn.Die = die
	if die == MaxDie {
		g.Turn.Sixes++
	} else {
		g.Turn.Sixes = 0
	}

	// 连续三个6, 本轮作废
	if g.Turn.Sixes >= g.Rules.MaxSixes {
		g.Stats.Forfeits++
		out.Forfeited = true
		g = g.passTurn()
		out.Next = g.Turn.Color
		return g, out, nil
	}

	movable := g.Board.Movable(color, die)
	if len(movable) == 0 {
		out.Passed = true
		g = g.passTurn()
		out.Next = g.Turn.Color
		return g, out, nil
	}

	g.Turn.Movable = movable
	g.Phase = PhaseAwaitMove
	out.Movable = movable
	out.Next = color
	return g, out, nil
}

func (g Game) move(token int) (Game, Outcome, error) {
	if g.Phase == PhaseFinished {
		return g, Outcome{}, ErrGameOver
	}
	if g.Phase != PhaseAwaitMove {
		return g, Outcome{}, ErrWrongPhase
	}
	if !slices.Contains(g.Turn.Movable, token) {
		return g, Outcome{}, ErrNotMovable
	}

	color, die := g.Turn.Color, g.Turn.Die
	board, res, err := g.Board.Apply(g.Rules, color, token, die)
	if err != nil {
		return g, Outcome{}, err
	}

	g.Seq++
	g.Board = board
	g.Stats.Moves++
	g.Stats.Captures += len(res.Captures)
	out := Outcome{Kind: CmdMove, Color: color, Die: die, Move: &res, Winner: NoColor}

	switch {
	case res.Won:
		g.Phase = PhaseFinished
		g.Winner = color
		g.Turn.Movable = nil
		out.Winner = color
		out.Next = NoColor
	case res.ExtraTurn:
		g.Phase = PhaseAwaitRoll
		g.Turn.Movable = nil
		out.Next = color
	default:
		g = g.passTurn()
		out.Next = g.Turn.Color
	}
	return g, out, nil
}

// reset 取消对局, 恢复初始布局
func (g Game) reset() (Game, Outcome, error) {
	next := initialGame(g.Rules, g.Colors, g.Seq+1)
	return next, Outcome{Kind: CmdReset, Color: NoColor, Next: next.Turn.Color, Winner: NoColor}, nil
}

func (g Game) passTurn() Game {
	g.Phase = PhaseAwaitRoll
	g.Turn = Turn{Color: g.NextColor(g.Turn.Color)}
	g.Stats.TurnsDone++
	return g
}

// NextColor returns the colour seated after c.
func (g Game) NextColor(c Color) Color {
	i := slices.Index(g.Colors, c)
	if i < 0 {
		return g.Colors[0]
	}
	return g.Colors[(i+1)%len(g.Colors)]
}

// Over reports whether a colour has won.
func (g Game) Over() bool {
	return g.Phase == PhaseFinished
}

func (g Game) Desc() string {
	return fmt.Sprintf("[seq:%d phase:%v turn:%v die:%d sixes:%d movable:%v winner:%v]",
		g.Seq, g.Phase, g.Turn.Color, g.Turn.Die, g.Turn.Sixes, g.Turn.Movable, g.Winner)
}
