// Package timedbank implements the timed sequence bank. A small pool of elements flickers through
// random values while the player activates a given subset in order. Each correct pick holds for a
// moment before it locks; a wrong pick drops every lock.
package timedbank

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"heist/pkg/game/puzzle"
)

// PoolSize is the number of elements on the board.
const PoolSize = 6

// Target is the required activation order over the pool.
type Target struct {
	Pool  int   `json:"pool"`
	Order []int `json:"order"`
}

// Payload is the order the player locked the elements in.
type Payload struct {
	Sequence []int `json:"sequence"`
}

// Length returns how many elements must be activated.
func Length(difficulty int) int {
	return 3 + puzzle.ClampDifficulty(difficulty)/2
}

// RerollInterval is the base period between value changes of one element.
func RerollInterval(difficulty int) time.Duration {
	return time.Duration(puzzle.Scale(difficulty, 1800, 700)) * time.Millisecond
}

// LockTime is how long a correct pick holds before it locks.
func LockTime(difficulty int) time.Duration {
	return time.Duration(puzzle.Scale(difficulty, 600, 1200)) * time.Millisecond
}

// jitter spreads element timers so they don't tick together.
func jitter(rng *rand.Rand, interval time.Duration) time.Duration {
	spread := int64(interval * 2 / 5)
	if spread <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(spread))
}

// Generate draws a distinct activation order.
func Generate(rng *rand.Rand, difficulty int) Target {
	return Target{Pool: PoolSize, Order: rng.Perm(PoolSize)[:Length(difficulty)]}
}

// Validate checks a target decoded from host data.
func (t Target) Validate() error {
	if t.Pool < 2 || t.Pool > 9 {
		return fmt.Errorf("%w: pool of %d", puzzle.ErrInvalidInput, t.Pool)
	}
	if len(t.Order) == 0 || len(t.Order) > t.Pool {
		return fmt.Errorf("%w: order of %d", puzzle.ErrInvalidInput, len(t.Order))
	}
	seen := make(map[int]bool, len(t.Order))
	for _, e := range t.Order {
		if seen[e] {
			return fmt.Errorf("%w: element %d repeated", puzzle.ErrInvalidInput, e)
		}
		seen[e] = true
	}
	return puzzle.CheckRange(t.Order, 0, t.Pool-1)
}

// Label is the player-facing name of element i.
func Label(i int) string {
	return string(rune('A' + i))
}

// Verify is the authoritative check used by the host.
func Verify(t Target, p Payload) bool {
	return slices.Equal(t.Order, p.Sequence)
}
