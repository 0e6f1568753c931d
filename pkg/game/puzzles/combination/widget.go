package combination

import (
	"fmt"
	"strings"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// Widget is the combination lock puzzle.
type Widget struct {
	*puzzle.Base

	target   Target
	dials    []int
	cursor   int
	attempts int
	last     *Feedback
}

var _ puzzle.Widget = (*Widget)(nil)

// New builds an uninitialized combination lock.
func New(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypeCombination, surface, cfg, opts)}
}

// Initialize adopts the host's combination or draws one, then shows the dials.
func (w *Widget) Initialize() error {
	if err := w.Begin(puzzle.Hooks{Title: gotext.Get("Combination Lock"), Draw: w.draw}); err != nil {
		return err
	}
	ok, err := w.Config().DecodeData(&w.target)
	if err != nil {
		return err
	}
	if ok {
		if err := w.target.Validate(); err != nil {
			return fmt.Errorf("%w: %v", puzzle.ErrInvalidConfig, err)
		}
	} else {
		w.target = Generate(w.Rand(), w.Difficulty())
	}
	w.dials = make([]int, len(w.target.Combination))
	w.Activate()
	return nil
}

// Dials returns the current dial positions.
func (w *Widget) Dials() []int {
	return append([]int(nil), w.dials...)
}

// Rotate turns dial i by delta positions, wrapping around the dial.
func (w *Widget) Rotate(i, delta int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if i < 0 || i >= len(w.dials) {
		return fmt.Errorf("%w: dial %d", puzzle.ErrInvalidInput, i)
	}
	w.dials[i] = puzzle.Wrap(w.dials[i]+delta, puzzle.DialPositions)
	w.Play(renderer.CueTick)
	w.Render()
	return nil
}

// SetDial sets dial i directly.
func (w *Widget) SetDial(i, v int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if i < 0 || i >= len(w.dials) {
		return fmt.Errorf("%w: dial %d", puzzle.ErrInvalidInput, i)
	}
	if err := puzzle.CheckRange([]int{v}, 0, puzzle.DialPositions-1); err != nil {
		return err
	}
	w.dials[i] = v
	w.Render()
	return nil
}

// Try submits a full combination. Invalid entries are rejected with a message and no attempt
// is counted.
func (w *Widget) Try(guess []int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if err := CheckGuess(w.target.Combination, guess); err != nil {
		w.Play(renderer.CueError)
		w.Message(gotext.Get(puzzle.InvalidMessage), puzzle.SeverityError)
		return err
	}
	copy(w.dials, guess)
	w.attempts++

	if w.Remote() {
		w.Submit(Payload{Combination: append([]int(nil), guess...)}, nil)
		return nil
	}

	f := Evaluate(w.target.Combination, guess)
	w.last = &f
	if f.Solved(len(w.target.Combination)) {
		w.Succeed()
		return nil
	}
	w.Logger().Debug("combination attempt", zap.Int("correct", f.Correct), zap.Int("close", f.Close))
	w.Play(renderer.CueError)
	w.Message(gotext.Get("%d correct digits. %d digits are close.", f.Correct, f.Close), puzzle.SeverityWarning)
	return nil
}

// HandleIntent maps player intents onto the dials.
func (w *Widget) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	switch in.Action {
	case input.ActionCursorLeft:
		w.cursor = puzzle.Wrap(w.cursor-1, len(w.dials))
	case input.ActionCursorRight, input.ActionNext:
		w.cursor = puzzle.Wrap(w.cursor+1, len(w.dials))
	case input.ActionIncrease, input.ActionCursorUp:
		return w.Rotate(w.cursor, 1)
	case input.ActionDecrease, input.ActionCursorDown:
		return w.Rotate(w.cursor, -1)
	case input.ActionDigit:
		// Typing shifts the dial's two digits left: 4 then 7 gives 47.
		return w.SetDial(w.cursor, (w.dials[w.cursor]*10+in.Value)%puzzle.DialPositions)
	case input.ActionClear:
		return w.SetDial(w.cursor, 0)
	case input.ActionSubmit:
		return w.Try(w.Dials())
	case input.ActionEntry:
		guess, err := puzzle.ParseInts(in.Text)
		if err != nil {
			w.Message(gotext.Get(puzzle.InvalidMessage), puzzle.SeverityError)
			return err
		}
		return w.Try(guess)
	default:
		return puzzle.ErrUnsupported
	}
	w.Render()
	return nil
}

func (w *Widget) draw(v *puzzle.View) {
	var line puzzle.Line
	for i, d := range w.dials {
		style := renderer.StyleNormal
		if i == w.cursor && v.Phase != puzzle.PhaseCompleted {
			style = renderer.StyleCursor
		}
		if v.Phase == puzzle.PhaseCompleted {
			style = renderer.StyleSuccess
		}
		line = append(line, puzzle.Span{Text: fmt.Sprintf("[%02d]", d), Style: style})
		if i < len(w.dials)-1 {
			line = append(line, puzzle.Span{Text: " ", Style: renderer.StyleNormal})
		}
	}
	v.Lines = append(v.Lines, line)
	if w.last != nil {
		v.Lines = append(v.Lines, puzzle.Line{
			{Text: strings.Repeat("●", w.last.Correct), Style: renderer.StyleCorrect},
			{Text: strings.Repeat("◐", w.last.Close), Style: renderer.StyleClose},
		})
	}
	v.Lines = append(v.Lines, puzzle.Text(gotext.Get("Attempts: %d", w.attempts), renderer.StyleSubtle))
	v.Controls = gotext.Get("←/→ select dial, +/- rotate, digits type, enter to try")
}
