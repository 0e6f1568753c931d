// Package combination implements the rotary combination lock: N dials in [0,99] opened by
// matching every dial exactly, with "close" feedback for dials within a few positions.
package combination

import (
	"math/rand"

	"heist/pkg/game/puzzle"
)

// CloseTolerance is the circular distance at which a wrong dial still counts as close.
const CloseTolerance = 5

// Target is the secret combination.
type Target struct {
	Combination []int `json:"combination"`
}

// Payload is what a player submits.
type Payload struct {
	Combination []int `json:"combination"`
}

// Feedback counts exact and close dials in a guess.
type Feedback struct {
	Correct int
	Close   int
}

// Solved reports whether every one of n dials is exact.
func (f Feedback) Solved(n int) bool {
	return f.Correct == n
}

// Length returns the number of dials for a difficulty.
func Length(difficulty int) int {
	if puzzle.ClampDifficulty(difficulty) >= 3 {
		return 4
	}
	return 3
}

// Generate draws a fresh combination.
func Generate(rng *rand.Rand, difficulty int) Target {
	n := Length(difficulty)
	t := Target{Combination: make([]int, n)}
	for i := range t.Combination {
		t.Combination[i] = rng.Intn(puzzle.DialPositions)
	}
	return t
}

// Validate checks a target decoded from host data.
func (t Target) Validate() error {
	if n := len(t.Combination); n < 3 || n > 4 {
		return puzzle.CheckLen(n, 3)
	}
	return puzzle.CheckRange(t.Combination, 0, puzzle.DialPositions-1)
}

// Evaluate scores a guess. The guess must already have the target's length.
func Evaluate(target, guess []int) Feedback {
	var f Feedback
	for i, want := range target {
		switch d := puzzle.DialDistance(guess[i], want); {
		case d == 0:
			f.Correct++
		case d <= CloseTolerance:
			f.Close++
		}
	}
	return f
}

// CheckGuess validates shape and range of a guess against a target.
func CheckGuess(target, guess []int) error {
	if err := puzzle.CheckLen(len(guess), len(target)); err != nil {
		return err
	}
	return puzzle.CheckRange(guess, 0, puzzle.DialPositions-1)
}

// Verify is the authoritative check used by the host.
func Verify(t Target, p Payload) bool {
	if CheckGuess(t.Combination, p.Combination) != nil {
		return false
	}
	return Evaluate(t.Combination, p.Combination).Solved(len(t.Combination))
}
