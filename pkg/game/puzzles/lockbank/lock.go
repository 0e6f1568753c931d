// Package lockbank implements the multi-lock puzzles. The bank variant holds 2-5 independent
// sub-locks that may be opened in any order. The ordered variant chains a mirrored direction
// lock, a symbol matching lock and a keypad, and only the current lock accepts input.
package lockbank

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/leonelquinteros/gotext"

	"heist/pkg/engine/world"
	"heist/pkg/game/puzzle"
)

// Kind is a sub-lock mechanism.
type Kind string

// Sub-lock kinds
const (
	KindRotary      Kind = "rotary"
	KindSlider      Kind = "slider"
	KindKeypad      Kind = "keypad"
	KindColor       Kind = "color"
	KindPrecision   Kind = "precision"
	KindDirectional Kind = "directional"
	KindSymbols     Kind = "symbols"
)

// Tolerances
const (
	SliderTolerance    = 3
	PrecisionTolerance = 2
	SliderMax          = 100
	sliderCount        = 3
)

// Palette is the set of colours a colour-sequence lock draws from.
var Palette = []string{"red", "green", "blue", "yellow", "purple", "orange"}

// Filled and hollow glyph pairs for the symbol lock.
var (
	filledSymbols = []string{"▲", "●", "■", "◆", "★", "♠"}
	hollowSymbols = []string{"△", "○", "□", "◇", "☆", "♤"}
)

// Solution holds whichever fields the lock kind uses.
type Solution struct {
	Value   int      `json:"value,omitempty"`
	Values  []int    `json:"values,omitempty"`
	Code    string   `json:"code,omitempty"`
	Colors  []string `json:"colors,omitempty"`
	Moves   []string `json:"moves,omitempty"`
	Matches []int    `json:"matches,omitempty"`
}

// Attempt is a player's answer for one lock. It has the same shape as Solution.
type Attempt = Solution

// Lock is one sub-lock. Solved only ever goes from false to true.
type Lock struct {
	ID       int      `json:"id"`
	Kind     Kind     `json:"kind"`
	Solved   bool     `json:"solved"`
	Solution Solution `json:"solution"`

	// Clue is the public part of the lock: the arrows shown on a directional lock.
	Clue []string `json:"clue,omitempty"`
	// Right is the order of the hollow column on a symbol lock.
	Right []int `json:"right,omitempty"`
}

// Target is the whole bank.
type Target struct {
	Ordered bool   `json:"ordered"`
	Locks   []Lock `json:"locks"`
}

// Payload carries the attempt that opened each lock, keyed by lock ID. Bypassed lists locks
// skipped with the Safe Cracker's power.
type Payload struct {
	Attempts map[int]Attempt `json:"attempts"`
	Bypassed []int           `json:"bypassed,omitempty"`
}

// LockCount returns the number of sub-locks in an any-order bank.
func LockCount(difficulty int) int {
	d := puzzle.ClampDifficulty(difficulty)
	if d < 2 {
		return 2
	}
	return d
}

// Generate draws an any-order bank of distinct lock kinds.
func Generate(rng *rand.Rand, difficulty int) Target {
	kinds := []Kind{KindRotary, KindSlider, KindKeypad, KindColor, KindPrecision}
	rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
	t := Target{}
	for i, k := range kinds[:LockCount(difficulty)] {
		t.Locks = append(t.Locks, newLock(rng, i, k, difficulty))
	}
	return t
}

// GenerateOrdered draws the direction -> symbols -> keypad chain.
func GenerateOrdered(rng *rand.Rand, difficulty int) Target {
	t := Target{Ordered: true}
	for i, k := range []Kind{KindDirectional, KindSymbols, KindKeypad} {
		t.Locks = append(t.Locks, newLock(rng, i, k, difficulty))
	}
	return t
}

func newLock(rng *rand.Rand, id int, k Kind, difficulty int) Lock {
	l := Lock{ID: id, Kind: k}
	d := puzzle.ClampDifficulty(difficulty)
	switch k {
	case KindRotary:
		l.Solution.Value = rng.Intn(puzzle.DialPositions)
	case KindPrecision:
		l.Solution.Value = rng.Intn(puzzle.DialDegrees)
	case KindSlider:
		for i := 0; i < sliderCount; i++ {
			l.Solution.Values = append(l.Solution.Values, rng.Intn(SliderMax+1))
		}
	case KindKeypad:
		var sb strings.Builder
		for i := 0; i < 3+(d+1)/2; i++ {
			sb.WriteByte(byte('0' + rng.Intn(10)))
		}
		l.Solution.Code = sb.String()
	case KindColor:
		for i := 0; i < 4; i++ {
			l.Solution.Colors = append(l.Solution.Colors, Palette[rng.Intn(len(Palette))])
		}
	case KindDirectional:
		dirs := world.AllDirections()
		for i := 0; i < 3+d; i++ {
			shown := dirs[rng.Intn(len(dirs))]
			l.Clue = append(l.Clue, strings.ToLower(shown.String()))
			l.Solution.Moves = append(l.Solution.Moves, strings.ToLower(shown.Opposite().String()))
		}
	case KindSymbols:
		pairs := 2 + d/2 + 1
		l.Right = rng.Perm(pairs)
		l.Solution.Matches = make([]int, pairs)
		for j, left := range l.Right {
			l.Solution.Matches[left] = j
		}
	}
	return l
}

// orderedKinds is the fixed chain of an ordered target.
var orderedKinds = []Kind{KindDirectional, KindSymbols, KindKeypad}

// Validate checks a target decoded from host data.
func (t Target) Validate() error {
	if n := len(t.Locks); n < 2 || n > 5 {
		return fmt.Errorf("%w: %d locks", puzzle.ErrInvalidInput, n)
	}
	if t.Ordered && len(t.Locks) != len(orderedKinds) {
		return fmt.Errorf("%w: ordered chain has %d locks", puzzle.ErrInvalidInput, len(t.Locks))
	}
	for i, l := range t.Locks {
		if l.ID != i {
			return fmt.Errorf("%w: lock %d has id %d", puzzle.ErrInvalidInput, i, l.ID)
		}
		if !l.Kind.valid() {
			return fmt.Errorf("%w: lock kind %q", puzzle.ErrInvalidInput, l.Kind)
		}
		if t.Ordered && l.Kind != orderedKinds[i] {
			return fmt.Errorf("%w: lock %d is %s, want %s", puzzle.ErrInvalidInput, i, l.Kind, orderedKinds[i])
		}
		if err := l.validate(); err != nil {
			return fmt.Errorf("lock %d: %w", i, err)
		}
	}
	return nil
}

// validate checks that the solution has the shape the lock kind draws and checks against.
func (l Lock) validate() error {
	s := l.Solution
	switch l.Kind {
	case KindRotary:
		return puzzle.CheckRange([]int{s.Value}, 0, puzzle.DialPositions-1)
	case KindPrecision:
		return puzzle.CheckRange([]int{s.Value}, 0, puzzle.DialDegrees-1)
	case KindSlider:
		if err := puzzle.CheckLen(len(s.Values), sliderCount); err != nil {
			return err
		}
		return puzzle.CheckRange(s.Values, 0, SliderMax)
	case KindKeypad:
		if s.Code == "" {
			return fmt.Errorf("%w: empty keypad code", puzzle.ErrInvalidInput)
		}
		for _, c := range s.Code {
			if c < '0' || c > '9' {
				return fmt.Errorf("%w: keypad code %q", puzzle.ErrInvalidInput, s.Code)
			}
		}
	case KindColor:
		if len(s.Colors) == 0 {
			return fmt.Errorf("%w: empty colour sequence", puzzle.ErrInvalidInput)
		}
		for _, c := range s.Colors {
			if !isColor(c) {
				return fmt.Errorf("%w: colour %q", puzzle.ErrInvalidInput, c)
			}
		}
	case KindDirectional:
		if len(s.Moves) == 0 || len(l.Clue) != len(s.Moves) {
			return fmt.Errorf("%w: %d moves for %d clues", puzzle.ErrInvalidInput, len(s.Moves), len(l.Clue))
		}
		for _, c := range l.Clue {
			if _, ok := world.ParseDirection(c); !ok {
				return fmt.Errorf("%w: direction %q", puzzle.ErrInvalidInput, c)
			}
		}
		// Attempts are normalised to full lower-case names before comparison.
		if moves := normalizeMoves(s.Moves); !slices.Equal(moves, s.Moves) {
			return fmt.Errorf("%w: moves %v", puzzle.ErrInvalidInput, s.Moves)
		}
	case KindSymbols:
		n := len(l.Right)
		if n == 0 || n > len(hollowSymbols) || len(s.Matches) != n {
			return fmt.Errorf("%w: %d symbols with %d matches", puzzle.ErrInvalidInput, n, len(s.Matches))
		}
		seen := make([]bool, n)
		for j, right := range l.Right {
			if right < 0 || right >= n || seen[right] {
				return fmt.Errorf("%w: symbol order %v", puzzle.ErrInvalidInput, l.Right)
			}
			seen[right] = true
			if s.Matches[right] != j {
				return fmt.Errorf("%w: symbol %d does not match %d", puzzle.ErrInvalidInput, right, j)
			}
		}
	}
	return nil
}

func (k Kind) valid() bool {
	switch k {
	case KindRotary, KindSlider, KindKeypad, KindColor, KindPrecision, KindDirectional, KindSymbols:
		return true
	}
	return false
}

// Name is the player-facing lock name.
func (k Kind) Name() string {
	switch k {
	case KindRotary:
		return gotext.Get("Rotary Dial")
	case KindSlider:
		return gotext.Get("Tumbler Sliders")
	case KindKeypad:
		return gotext.Get("Keypad")
	case KindColor:
		return gotext.Get("Colour Sequence")
	case KindPrecision:
		return gotext.Get("Precision Dial")
	case KindDirectional:
		return gotext.Get("Mirror Arrows")
	case KindSymbols:
		return gotext.Get("Symbol Pairs")
	default:
		return string(k)
	}
}

// Check tests an attempt against a lock and returns a feedback hint for wrong answers.
func Check(l Lock, a Attempt) (bool, string) {
	s := l.Solution
	switch l.Kind {
	case KindRotary:
		if a.Value == s.Value {
			return true, ""
		}
		if puzzle.Wrap(s.Value-a.Value, puzzle.DialPositions) <= puzzle.DialPositions/2 {
			return false, gotext.Get("Turn clockwise.")
		}
		return false, gotext.Get("Turn counter-clockwise.")

	case KindPrecision:
		d := puzzle.CircularDistance(a.Value, s.Value, puzzle.DialDegrees)
		if d <= PrecisionTolerance {
			return true, ""
		}
		return false, gotext.Get("%d° off.", d)

	case KindSlider:
		if len(a.Values) != len(s.Values) {
			return false, gotext.Get(puzzle.InvalidMessage)
		}
		var marks []string
		ok := true
		for i, want := range s.Values {
			switch {
			case puzzle.WithinTolerance(a.Values[i], want, SliderTolerance):
				marks = append(marks, "✓")
			case a.Values[i] < want:
				ok = false
				marks = append(marks, "▲")
			default:
				ok = false
				marks = append(marks, "▼")
			}
		}
		if ok {
			return true, ""
		}
		return false, gotext.Get("Tumblers: %s", strings.Join(marks, " "))

	case KindKeypad:
		if a.Code == s.Code {
			return true, ""
		}
		return false, gotext.Get("%d digits in the right place.", samePlace([]byte(a.Code), []byte(s.Code)))

	case KindColor:
		if slices.Equal(a.Colors, s.Colors) {
			return true, ""
		}
		return false, gotext.Get("%d colours in the right place.", samePlace(a.Colors, s.Colors))

	case KindDirectional:
		if slices.Equal(normalizeMoves(a.Moves), s.Moves) {
			return true, ""
		}
		return false, gotext.Get("The mirror rejects that sequence.")

	case KindSymbols:
		if slices.Equal(a.Matches, s.Matches) {
			return true, ""
		}
		return false, gotext.Get("Some symbols are mismatched.")
	}
	return false, ""
}

func samePlace[T comparable](a, b []T) int {
	n := 0
	for i := range a {
		if i < len(b) && a[i] == b[i] {
			n++
		}
	}
	return n
}

func normalizeMoves(moves []string) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		if d, ok := world.ParseDirection(m); ok {
			out = append(out, strings.ToLower(d.String()))
			continue
		}
		out = append(out, m)
	}
	return out
}

// Verify is the authoritative check used by the host. allowedBypasses is how many locks the
// host granted the player the right to skip.
func Verify(t Target, p Payload, allowedBypasses int) bool {
	if len(p.Bypassed) > allowedBypasses {
		return false
	}
	bypassed := make(map[int]bool, len(p.Bypassed))
	for _, id := range p.Bypassed {
		bypassed[id] = true
	}
	for _, l := range t.Locks {
		if bypassed[l.ID] {
			continue
		}
		a, ok := p.Attempts[l.ID]
		if !ok {
			return false
		}
		if solved, _ := Check(l, a); !solved {
			return false
		}
	}
	return true
}
