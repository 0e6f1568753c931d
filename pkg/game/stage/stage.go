// Package stage defines the fixed heist stages, which puzzle each crew role works on at each
// stage, and the timer budget the crew gets. The crew reaches the vault on the final stage.
package stage

import (
	"fmt"
	"time"

	"github.com/leonelquinteros/gotext"

	"heist/pkg/game/puzzle"
)

// Role is a crew role.
type Role string

const (
	Hacker      Role = "Hacker"
	SafeCracker Role = "Safe Cracker"
	Demolitions Role = "Demolitions"
	Lookout     Role = "Lookout"
)

// Roles lists every crew role in lobby order.
var Roles = []Role{Hacker, SafeCracker, Demolitions, Lookout}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// TotalStages is the number of stages in a heist.
const TotalStages = 5

// TeamFromStage is the first stage with a shared team puzzle.
const TeamFromStage = 3

// Timer budget
const (
	InitialTimer = 300 * time.Second
	StageBonus   = 240 * time.Second
)

// IsFinalStage returns true if level (1-based) is the vault.
func IsFinalStage(level int) bool {
	return level >= TotalStages
}

// NextStage returns the next stage level (1-based), or 0 if level is the final stage.
func NextStage(level int) int {
	if level <= 0 || level >= TotalStages {
		return 0
	}
	return level + 1
}

// Descriptor describes one stage.
type Descriptor struct {
	Level     int                  // 1-based
	Puzzles   map[Role]puzzle.Type // Role puzzle for each crew role
	Team      puzzle.Type          // Shared puzzle, empty before TeamFromStage
	TeamRoles []Role               // Roles that must take part in the team puzzle
}

// safeCracker is the Safe Cracker's mechanism at each stage (index 0 is stage 1).
var safeCracker = [TotalStages]puzzle.Type{
	puzzle.TypeCombination,
	puzzle.TypeLockBank,
	puzzle.TypeOrderedLocks,
	puzzle.TypeTimedBank,
	puzzle.TypeVault,
}

// Stages holds every stage descriptor. Index is level-1.
var Stages []Descriptor

func init() {
	Stages = make([]Descriptor, TotalStages)
	for i := range Stages {
		level := i + 1
		d := Descriptor{
			Level: level,
			Puzzles: map[Role]puzzle.Type{
				Hacker:      puzzle.TypePattern,
				SafeCracker: safeCracker[i],
				Demolitions: puzzle.TypeDetonation,
				Lookout:     puzzle.TypePatternWalk,
			},
		}
		if level >= TeamFromStage {
			d.Team = puzzle.TypeLockBank
			d.TeamRoles = []Role{Hacker, SafeCracker}
			if level > TeamFromStage {
				d.TeamRoles = append([]Role(nil), Roles...)
			}
		}
		Stages[i] = d
	}
}

// Get returns the descriptor for level and true, or false when level is out of range.
func Get(level int) (Descriptor, bool) {
	if level < 1 || level > TotalStages {
		return Descriptor{}, false
	}
	return Stages[level-1], true
}

// SafeCrackerType returns the Safe Cracker's puzzle type at level, clamped to the stage range.
func SafeCrackerType(level int) puzzle.Type {
	return safeCracker[min(max(level, 1), TotalStages)-1]
}

// PuzzleFor returns the puzzle type role works on at level.
func PuzzleFor(role Role, level int) (puzzle.Type, bool) {
	d, ok := Get(level)
	if !ok {
		return "", false
	}
	t, ok := d.Puzzles[role]
	return t, ok
}

// keyPrefix is the stage-key prefix the lobby uses for each role.
var keyPrefix = map[Role]string{
	Hacker:      "hacker_puzzle",
	SafeCracker: "safe_puzzle",
	Demolitions: "demo_puzzle",
	Lookout:     "lookout_puzzle",
}

// Key returns the stage key for a role puzzle, e.g. "safe_puzzle_3".
func Key(role Role, level int) string {
	return fmt.Sprintf("%s_%d", keyPrefix[role], level)
}

// TeamKey returns the stage key of the team puzzle at level.
func TeamKey(level int) string {
	return fmt.Sprintf("team_puzzle_%d", level)
}

// Aliases maps every stage key to its puzzle type.
func Aliases() map[string]puzzle.Type {
	out := make(map[string]puzzle.Type)
	for _, d := range Stages {
		for role, t := range d.Puzzles {
			out[Key(role, d.Level)] = t
		}
		if d.Team != "" {
			out[TeamKey(d.Level)] = d.Team
		}
	}
	return out
}

// TimerBonus is the time added when the crew clears level.
func TimerBonus(level int) time.Duration {
	if level < 1 || level >= TotalStages {
		return 0
	}
	return StageBonus
}

// Name returns the translated name of level.
func Name(level int) string {
	switch level {
	case 1:
		return gotext.Get("Perimeter")
	case 2:
		return gotext.Get("Lobby")
	case 3:
		return gotext.Get("Security Office")
	case 4:
		return gotext.Get("Vault Corridor")
	case 5:
		return gotext.Get("The Vault")
	default:
		return gotext.Get("Staging Area")
	}
}
