package model

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/yola1107/ludo/library/ext"
)

var ErrDiceExhausted = errors.New("scripted dice exhausted")

// Dice produces die faces in 1..6.
type Dice interface {
	Roll() int
}

type randDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDice returns a uniform roller. A zero seed is taken from the clock; any
// other seed makes the sequence reproducible.
func NewDice(seed int64) Dice {
	return &randDice{rng: ext.NewRand(seed)}
}

func (d *randDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ext.RandIntWith(d.rng, MinDie, MaxDie+1)
}

// FixedDice replays a scripted sequence, for tests and replays. Once the
// script runs out it keeps returning the Fallback face, or panics with
// ErrDiceExhausted when Fallback is zero.
type FixedDice struct {
	mu       sync.Mutex
	Faces    []int
	Fallback int
	next     int
}

func NewFixedDice(faces ...int) *FixedDice {
	return &FixedDice{Faces: faces}
}

func (d *FixedDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next < len(d.Faces) {
		f := d.Faces[d.next]
		d.next++
		return f
	}
	if d.Fallback == 0 {
		panic(ErrDiceExhausted)
	}
	return d.Fallback
}

// Remaining 剩余脚本点数
func (d *FixedDice) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Faces) - d.next
}
