package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, colors ...Color) Game {
	t.Helper()
	if len(colors) == 0 {
		colors = AllColors
	}
	g, err := NewGame(DefaultRules(), colors)
	require.NoError(t, err)
	return g
}

func mustApply(t *testing.T, g Game, cmd Command) (Game, Outcome) {
	t.Helper()
	next, out, err := g.Apply(cmd)
	require.NoError(t, err, "%v on %s", cmd.Kind, g.Desc())
	return next, out
}

func TestNewGameSeating(t *testing.T) {
	_, err := NewGame(DefaultRules(), []Color{Red})
	assert.ErrorIs(t, err, ErrInvalidSeating)
	_, err = NewGame(DefaultRules(), []Color{Red, Red})
	assert.ErrorIs(t, err, ErrInvalidSeating)
	_, err = NewGame(DefaultRules(), []Color{Red, NoColor})
	assert.ErrorIs(t, err, ErrInvalidSeating)

	g := newTestGame(t, Yellow, Red)
	assert.Equal(t, PhaseAwaitRoll, g.Phase)
	assert.Equal(t, Yellow, g.Turn.Color)
	assert.Equal(t, NoColor, g.Winner)
	assert.Equal(t, Red, g.NextColor(Yellow))
	assert.Equal(t, Yellow, g.NextColor(Red))
}

func TestRollWithoutMovablePasses(t *testing.T) {
	g := newTestGame(t)
	g, out := mustApply(t, g, Roll(3))
	assert.True(t, out.Passed)
	assert.Equal(t, Green, out.Next)
	assert.Equal(t, Green, g.Turn.Color)
	assert.Equal(t, PhaseAwaitRoll, g.Phase)
	assert.Equal(t, int64(1), g.Seq)
}

func TestRollMoveHandsOver(t *testing.T) {
	g := newTestGame(t)
	g.Board.Tokens[Red][0] = ring(10)

	g, out := mustApply(t, g, Roll(4))
	assert.Equal(t, []int{0}, out.Movable)
	assert.Equal(t, PhaseAwaitMove, g.Phase)

	g, out = mustApply(t, g, Move(0))
	require.NotNil(t, out.Move)
	assert.Equal(t, ring(14), out.Move.To)
	assert.Equal(t, Green, out.Next)
	assert.Equal(t, PhaseAwaitRoll, g.Phase)
	assert.Equal(t, Turn{Color: Green}, g.Turn)
}

func TestSixGrantsExtraTurnAndThirdSixForfeits(t *testing.T) {
	g := newTestGame(t)

	g, _ = mustApply(t, g, Roll(6))
	g, out := mustApply(t, g, Move(0))
	assert.Equal(t, Red, out.Next)
	assert.Equal(t, 1, g.Turn.Sixes)

	g, _ = mustApply(t, g, Roll(6))
	g, _ = mustApply(t, g, Move(0))
	assert.Equal(t, 2, g.Turn.Sixes)

	before := g.Board
	g, out = mustApply(t, g, Roll(6))
	assert.True(t, out.Forfeited)
	assert.Equal(t, Green, g.Turn.Color)
	assert.Zero(t, g.Turn.Sixes)
	assert.Equal(t, before, g.Board)
	assert.Equal(t, 1, g.Stats.Forfeits)
}

func TestSixCounterResetsOnOtherFace(t *testing.T) {
	g := newTestGame(t)
	g, _ = mustApply(t, g, Roll(6))
	g, _ = mustApply(t, g, Move(0))
	g, _ = mustApply(t, g, Roll(6))
	// capture-free base exit keeps red rolling
	g, _ = mustApply(t, g, Move(1))
	g, _ = mustApply(t, g, Roll(2))
	assert.Zero(t, g.Turn.Sixes)
	assert.Equal(t, PhaseAwaitMove, g.Phase)
}

func TestCaptureGrantsExtraTurn(t *testing.T) {
	g := newTestGame(t)
	g.Board.Tokens[Red][0] = ring(1)
	g.Board.Tokens[Green][0] = ring(42)

	g, _ = mustApply(t, g, Roll(2))
	g, out := mustApply(t, g, Move(0))
	require.Len(t, out.Move.Captures, 1)
	assert.Equal(t, Red, out.Next)
	assert.Equal(t, BaseToken(), g.Board.Tokens[Green][0])
	assert.Equal(t, 1, g.Stats.Captures)
}

func TestWinIsTerminal(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 3; i++ {
		g.Board.Tokens[Red][i] = stretch(HomeOffset)
	}
	g.Board.Tokens[Red][3] = stretch(3)

	g, out := mustApply(t, g, Roll(2))
	assert.Equal(t, []int{3}, out.Movable)
	g, out = mustApply(t, g, Move(3))
	assert.Equal(t, Red, out.Winner)
	assert.Equal(t, NoColor, out.Next)
	assert.True(t, g.Over())
	assert.Equal(t, Red, g.Winner)

	_, _, err := g.Apply(Roll(1))
	assert.ErrorIs(t, err, ErrGameOver)
	_, _, err = g.Apply(Move(3))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestRejectedCommandsLeaveStateUnchanged(t *testing.T) {
	g := newTestGame(t)
	g.Board.Tokens[Red][1] = ring(7)

	type rejectCase struct {
		name string
		g    Game
		cmd  Command
		err  error
	}
	rolled, _ := mustApply(t, g, Roll(3))
	cases := []rejectCase{
		{"die too low", g, Roll(0), ErrInvalidDie},
		{"die too high", g, Roll(7), ErrInvalidDie},
		{"move before roll", g, Move(1), ErrWrongPhase},
		{"unknown", g, Command{Kind: CommandKind(9)}, ErrUnknownCommand},
		{"roll twice", rolled, Roll(3), ErrWrongPhase},
		{"token at base", rolled, Move(0), ErrNotMovable},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			next, _, err := c.g.Apply(c.cmd)
			assert.ErrorIs(t, err, c.err)
			assert.Empty(t, cmp.Diff(c.g, next))
		})
	}
}

func TestReset(t *testing.T) {
	g := newTestGame(t, Green, Blue)
	g, _ = mustApply(t, g, Roll(6))
	g, _ = mustApply(t, g, Move(2))
	seq := g.Seq

	g, out := mustApply(t, g, Reset())
	assert.Equal(t, Green, out.Next)
	assert.Equal(t, NewBoard(), g.Board)
	assert.Equal(t, PhaseAwaitRoll, g.Phase)
	assert.Equal(t, []Color{Green, Blue}, g.Colors)
	assert.Equal(t, seq+1, g.Seq)
}

func TestTwoSeatGameSkipsEmptyColors(t *testing.T) {
	g := newTestGame(t, Red, Yellow)
	g, out := mustApply(t, g, Roll(1))
	assert.True(t, out.Passed)
	assert.Equal(t, Yellow, g.Turn.Color)
	g, _ = mustApply(t, g, Roll(1))
	assert.Equal(t, Red, g.Turn.Color)
	assert.Equal(t, 2, g.Stats.TurnsDone)
}

func TestPhaseText(t *testing.T) {
	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("awaiting-move")))
	assert.Equal(t, PhaseAwaitMove, p)
	assert.Error(t, p.UnmarshalText([]byte("paused")))
}
