package ext

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

var (
	mu    sync.Mutex
	srand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewRand returns an independent source. A zero seed picks one from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// RandInt returns a value in [min, max) from the shared source.
func RandInt[T constraints.Integer](min T, max T) T {
	mu.Lock()
	defer mu.Unlock()
	return RandIntWith(srand, min, max)
}

// RandIntWith returns a value in [min, max) from r. r is not locked.
func RandIntWith[T constraints.Integer](r *rand.Rand, min T, max T) T {
	if max <= min {
		return min
	}
	return T(r.Int63n(int64(max-min))) + min
}
