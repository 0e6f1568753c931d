package dispatch

import (
	"errors"

	"github.com/leonelquinteros/gotext"

	"heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// TypeError tags the widget shown in place of a puzzle that could not be mounted.
const TypeError puzzle.Type = "error"

// ErrorWidget is a static view explaining why no puzzle is shown. It accepts no input.
type ErrorWidget struct {
	*puzzle.Base
	cause error
}

var _ puzzle.Widget = (*ErrorWidget)(nil)

// NewErrorWidget builds the error view for cause.
func NewErrorWidget(surface puzzle.Surface, cause error, opts puzzle.Options) *ErrorWidget {
	cfg := puzzle.Config{Type: TypeError, Difficulty: puzzle.MinDifficulty}
	return &ErrorWidget{Base: puzzle.NewBase(TypeError, surface, cfg, opts), cause: cause}
}

// Cause returns the error that replaced the puzzle.
func (w *ErrorWidget) Cause() error { return w.cause }

// Initialize shows the error.
func (w *ErrorWidget) Initialize() error {
	if err := w.Begin(puzzle.Hooks{Title: gotext.Get("Puzzle unavailable"), Draw: w.draw}); err != nil {
		return err
	}
	w.Activate()
	w.Message(w.summary(), puzzle.SeverityError)
	return nil
}

func (w *ErrorWidget) summary() string {
	if errors.Is(w.cause, puzzle.ErrUnknownType) {
		return gotext.Get("This puzzle type is not available.")
	}
	return gotext.Get("This puzzle could not be loaded.")
}

// HandleIntent refuses everything.
func (w *ErrorWidget) HandleIntent(input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	return puzzle.ErrUnsupported
}

func (w *ErrorWidget) draw(v *puzzle.View) {
	if w.cause != nil {
		v.Lines = append(v.Lines, puzzle.Text(w.cause.Error(), renderer.StyleDenied))
	}
}
