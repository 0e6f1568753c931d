package lockbank

import (
	"fmt"
	"strconv"
	"strings"

	"heist/pkg/engine/input"
	"heist/pkg/engine/world"
	"heist/pkg/game/puzzle"
)

// draft is the in-progress input on one lock.
type draft struct {
	value   int
	values  []int
	slider  int
	code    []byte
	colors  []string
	moves   []string
	matches []int
	left    int
}

func newDraft(l Lock) draft {
	d := draft{left: -1}
	switch l.Kind {
	case KindSlider:
		d.values = make([]int, len(l.Solution.Values))
	case KindSymbols:
		d.matches = make([]int, len(l.Right))
		for i := range d.matches {
			d.matches[i] = -1
		}
	}
	return d
}

func (d draft) attempt(k Kind) Attempt {
	switch k {
	case KindRotary, KindPrecision:
		return Attempt{Value: d.value}
	case KindSlider:
		return Attempt{Values: append([]int(nil), d.values...)}
	case KindKeypad:
		return Attempt{Code: string(d.code)}
	case KindColor:
		return Attempt{Colors: append([]string(nil), d.colors...)}
	case KindDirectional:
		return Attempt{Moves: append([]string(nil), d.moves...)}
	case KindSymbols:
		return Attempt{Matches: append([]int(nil), d.matches...)}
	}
	return Attempt{}
}

// dialSize is the number of positions on a rotary or precision dial.
func dialSize(k Kind) int {
	if k == KindPrecision {
		return puzzle.DialDegrees
	}
	return puzzle.DialPositions
}

// apply edits the draft for one intent. It reports submit=true when the draft should be tried.
func (d *draft) apply(l Lock, in input.Intent) (submit bool, err error) {
	switch l.Kind {
	case KindRotary, KindPrecision:
		size := dialSize(l.Kind)
		switch in.Action {
		case input.ActionIncrease:
			d.value = puzzle.Wrap(d.value+1, size)
		case input.ActionDecrease:
			d.value = puzzle.Wrap(d.value-1, size)
		case input.ActionCursorUp:
			d.value = puzzle.Wrap(d.value+10, size)
		case input.ActionCursorDown:
			d.value = puzzle.Wrap(d.value-10, size)
		case input.ActionDigit:
			d.value = (d.value*10 + in.Value) % size
		case input.ActionClear:
			d.value = 0
		case input.ActionSubmit:
			return true, nil
		default:
			return false, puzzle.ErrUnsupported
		}

	case KindSlider:
		switch in.Action {
		case input.ActionCursorUp:
			d.slider = puzzle.Wrap(d.slider-1, len(d.values))
		case input.ActionCursorDown:
			d.slider = puzzle.Wrap(d.slider+1, len(d.values))
		case input.ActionIncrease:
			d.values[d.slider] = min(d.values[d.slider]+1, SliderMax)
		case input.ActionDecrease:
			d.values[d.slider] = max(d.values[d.slider]-1, 0)
		case input.ActionCursorRight:
			d.values[d.slider] = min(d.values[d.slider]+5, SliderMax)
		case input.ActionCursorLeft:
			d.values[d.slider] = max(d.values[d.slider]-5, 0)
		case input.ActionDigit:
			d.values[d.slider] = (d.values[d.slider]*10 + in.Value) % (SliderMax + 1)
		case input.ActionClear:
			d.values[d.slider] = 0
		case input.ActionSubmit:
			return true, nil
		default:
			return false, puzzle.ErrUnsupported
		}

	case KindKeypad:
		switch in.Action {
		case input.ActionDigit:
			if len(d.code) >= len(l.Solution.Code) {
				return false, fmt.Errorf("%w: keypad full", puzzle.ErrInvalidInput)
			}
			d.code = append(d.code, byte('0'+in.Value))
		case input.ActionClear:
			if len(d.code) > 0 {
				d.code = d.code[:len(d.code)-1]
			}
		case input.ActionSubmit:
			return true, nil
		default:
			return false, puzzle.ErrUnsupported
		}

	case KindColor:
		switch in.Action {
		case input.ActionDigit:
			if in.Value < 1 || in.Value > len(Palette) {
				return false, fmt.Errorf("%w: colour %d", puzzle.ErrInvalidInput, in.Value)
			}
			if len(d.colors) >= len(l.Solution.Colors) {
				return false, fmt.Errorf("%w: sequence full", puzzle.ErrInvalidInput)
			}
			d.colors = append(d.colors, Palette[in.Value-1])
		case input.ActionClear:
			if len(d.colors) > 0 {
				d.colors = d.colors[:len(d.colors)-1]
			}
		case input.ActionSubmit:
			return true, nil
		default:
			return false, puzzle.ErrUnsupported
		}

	case KindDirectional:
		var dir world.Direction
		switch in.Action {
		case input.ActionCursorUp:
			dir = world.North
		case input.ActionCursorRight:
			dir = world.East
		case input.ActionCursorDown:
			dir = world.South
		case input.ActionCursorLeft:
			dir = world.West
		case input.ActionClear:
			if len(d.moves) > 0 {
				d.moves = d.moves[:len(d.moves)-1]
			}
			return false, nil
		case input.ActionSubmit:
			return true, nil
		default:
			return false, puzzle.ErrUnsupported
		}
		d.moves = append(d.moves, strings.ToLower(dir.String()))
		return len(d.moves) == len(l.Solution.Moves), nil

	case KindSymbols:
		switch in.Action {
		case input.ActionDigit:
			idx := in.Value - 1
			if idx < 0 || idx >= len(d.matches) {
				return false, fmt.Errorf("%w: symbol %d", puzzle.ErrInvalidInput, in.Value)
			}
			if d.left < 0 {
				d.left = idx
				return false, nil
			}
			d.matches[d.left] = idx
			d.left = -1
			for _, m := range d.matches {
				if m < 0 {
					return false, nil
				}
			}
			return true, nil
		case input.ActionClear:
			d.left = -1
			for i := range d.matches {
				d.matches[i] = -1
			}
		case input.ActionSubmit:
			return true, nil
		default:
			return false, puzzle.ErrUnsupported
		}
	}
	return false, nil
}

// parseEntry turns typed text into an attempt for the lock kind.
func parseEntry(k Kind, text string) (Attempt, error) {
	switch k {
	case KindRotary, KindPrecision:
		v, err := puzzle.ParseInts(text)
		if err != nil {
			return Attempt{}, err
		}
		if err := puzzle.CheckLen(len(v), 1); err != nil {
			return Attempt{}, err
		}
		if err := puzzle.CheckRange(v, 0, dialSize(k)-1); err != nil {
			return Attempt{}, err
		}
		return Attempt{Value: v[0]}, nil
	case KindSlider:
		v, err := puzzle.ParseInts(text)
		if err != nil {
			return Attempt{}, err
		}
		if err := puzzle.CheckLen(len(v), sliderCount); err != nil {
			return Attempt{}, err
		}
		if err := puzzle.CheckRange(v, 0, SliderMax); err != nil {
			return Attempt{}, err
		}
		return Attempt{Values: v}, nil
	case KindKeypad:
		code := strings.Join(strings.Fields(text), "")
		if _, err := strconv.ParseUint(code, 10, 64); err != nil {
			return Attempt{}, fmt.Errorf("%w: keypad code %q", puzzle.ErrInvalidInput, text)
		}
		return Attempt{Code: code}, nil
	case KindColor:
		words := strings.Fields(strings.ToLower(strings.ReplaceAll(text, ",", " ")))
		for _, w := range words {
			if !isColor(w) {
				return Attempt{}, fmt.Errorf("%w: colour %q", puzzle.ErrInvalidInput, w)
			}
		}
		return Attempt{Colors: words}, nil
	case KindDirectional:
		var moves []string
		for _, w := range strings.Fields(strings.ReplaceAll(text, ",", " ")) {
			dir, ok := world.ParseDirection(w)
			if !ok {
				return Attempt{}, fmt.Errorf("%w: direction %q", puzzle.ErrInvalidInput, w)
			}
			moves = append(moves, strings.ToLower(dir.String()))
		}
		return Attempt{Moves: moves}, nil
	case KindSymbols:
		v, err := puzzle.ParseInts(text)
		if err != nil {
			return Attempt{}, err
		}
		for i := range v {
			v[i]--
		}
		return Attempt{Matches: v}, nil
	}
	return Attempt{}, puzzle.ErrUnsupported
}

func isColor(s string) bool {
	for _, c := range Palette {
		if c == s {
			return true
		}
	}
	return false
}
