package model

import (
	"errors"
	"math/rand"
)

var ErrStepLimit = errors.New("game did not finish within the step limit")

// NextCommand is what an automated seat does in the current phase: roll, or
// pick a token with strategy s.
func NextCommand(g Game, dice Dice, s Strategy, rng *rand.Rand) Command {
	if g.Phase == PhaseAwaitRoll {
		return Roll(dice.Roll())
	}
	return Move(SelectToken(g.Board, g.Rules, g.Turn.Color, g.Turn.Die, g.Turn.Movable, s, rng))
}

// PlayOut drives g to the end with every seat automated. strategyOf picks
// the strategy of the colour to act.
func PlayOut(g Game, dice Dice, strategyOf func(Color) Strategy, rng *rand.Rand, maxSteps int) (Game, error) {
	for step := 0; !g.Over(); step++ {
		if step >= maxSteps {
			return g, ErrStepLimit
		}
		next, _, err := g.Apply(NextCommand(g, dice, strategyOf(g.Turn.Color), rng))
		if err != nil {
			return g, err
		}
		g = next
	}
	return g, nil
}
