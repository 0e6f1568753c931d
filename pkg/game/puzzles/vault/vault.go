// Package vault implements the timed vault. The player turns a dial to the numeric target of each
// section in order and confirms it, all under one countdown. A wrong confirmation costs time and
// may trip the alarm; running out of time closes every section and starts a fresh attempt.
package vault

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"heist/pkg/game/puzzle"
)

// Target holds the section positions and the pressure tuning.
type Target struct {
	Sections []int `json:"sections"`

	// Seconds is the countdown for one attempt.
	Seconds int `json:"seconds"`
	// Penalty is taken off the countdown for each wrong confirmation.
	Penalty int `json:"penalty"`
	// AlarmChance is the probability a dial movement trips the alarm.
	AlarmChance float64 `json:"alarm_chance"`
	// AlarmOnError trips the alarm on every wrong confirmation.
	AlarmOnError bool `json:"alarm_on_error"`
	// AlarmSeconds is how long the alarm locks the vault.
	AlarmSeconds int `json:"alarm_seconds"`
}

// Payload is the confirmed position of every section.
type Payload struct {
	Positions []int `json:"positions"`
}

// SectionCount returns the number of sections for a difficulty.
func SectionCount(difficulty int) int {
	return 3 + puzzle.ClampDifficulty(difficulty)/2
}

// Generate draws section targets and scales the pressure by difficulty.
func Generate(rng *rand.Rand, difficulty int) Target {
	t := Target{
		Seconds:      int(puzzle.Scale(difficulty, 120, 60)),
		Penalty:      int(puzzle.Scale(difficulty, 5, 15)),
		AlarmChance:  puzzle.Scale(difficulty, 0.01, 0.05),
		AlarmOnError: true,
		AlarmSeconds: 3,
	}
	for i := 0; i < SectionCount(difficulty); i++ {
		t.Sections = append(t.Sections, rng.Intn(puzzle.DialPositions))
	}
	return t
}

// Validate checks a target decoded from host data.
func (t Target) Validate() error {
	if len(t.Sections) == 0 {
		return fmt.Errorf("%w: no sections", puzzle.ErrInvalidInput)
	}
	if t.Seconds <= 0 || t.Penalty < 0 || t.AlarmSeconds < 0 {
		return fmt.Errorf("%w: timing %d/%d/%d", puzzle.ErrInvalidInput, t.Seconds, t.Penalty, t.AlarmSeconds)
	}
	if t.AlarmChance < 0 || t.AlarmChance > 1 {
		return fmt.Errorf("%w: alarm chance %v", puzzle.ErrInvalidInput, t.AlarmChance)
	}
	return puzzle.CheckRange(t.Sections, 0, puzzle.DialPositions-1)
}

// Duration is the countdown of one attempt.
func (t Target) Duration() time.Duration { return time.Duration(t.Seconds) * time.Second }

// PenaltyDuration is the time lost per wrong confirmation.
func (t Target) PenaltyDuration() time.Duration { return time.Duration(t.Penalty) * time.Second }

// AlarmDuration is how long an alarm lasts.
func (t Target) AlarmDuration() time.Duration { return time.Duration(t.AlarmSeconds) * time.Second }

// ApplyPenalty takes penalty off remaining. The result never drops below one second and never
// exceeds remaining.
func ApplyPenalty(remaining, penalty time.Duration) time.Duration {
	floor := min(remaining, time.Second)
	return max(remaining-max(penalty, 0), floor)
}

// Verify is the authoritative check used by the host.
func Verify(t Target, p Payload) bool {
	return slices.Equal(t.Sections, p.Positions)
}
