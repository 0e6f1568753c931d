package gameplay

import (
	"github.com/leonelquinteros/gotext"

	"heist/pkg/game/puzzle"
)

// dynamicGet translates keys that arrive at runtime, such as role names.
var dynamicGet = gotext.Get

// Hint returns a one-line hint for the puzzle type t.
func Hint(t puzzle.Type) string {
	switch t {
	case puzzle.TypeCombination:
		return gotext.Get("Turn the dial until it clicks, then enter each number in order.")
	case puzzle.TypePattern:
		return gotext.Get("Watch the sequence, then repeat it cell by cell.")
	case puzzle.TypePatternWalk:
		return gotext.Get("The path wanders between neighbouring cells. One wrong step and it starts over.")
	case puzzle.TypeLockBank:
		return gotext.Get("The locks open in any order. Finish each one, then move to the next.")
	case puzzle.TypeOrderedLocks:
		return gotext.Get("Only the current lock takes input. Work through them in order.")
	case puzzle.TypeTimedBank:
		return gotext.Get("Pick the listed elements in order. A wrong pick drops every lock.")
	case puzzle.TypeVault:
		return gotext.Get("Dial each section to its number and confirm. Wrong guesses cost time.")
	case puzzle.TypeDetonation:
		return gotext.Get("Spend every charge on walls so the blast opens a path to the exit. Never charge a sensor.")
	default:
		return gotext.Get("Wait for the crew.")
	}
}
