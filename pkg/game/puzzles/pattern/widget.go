package pattern

import (
	"fmt"
	"time"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/engine/input"
	"heist/pkg/engine/sched"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// ErrShowing is returned for input while the sequence is being displayed.
var ErrShowing = fmt.Errorf("%w: pattern is playing", puzzle.ErrBusy)

// Timing of the reveal animation.
const (
	leadIn = 800 * time.Millisecond
)

// flashTiming returns how long each cell stays lit and the gap before the next one.
func flashTiming(difficulty int) (lit, gap time.Duration) {
	lit = time.Duration(puzzle.Scale(difficulty, 700, 350)) * time.Millisecond
	gap = time.Duration(puzzle.Scale(difficulty, 300, 150)) * time.Millisecond
	return lit, gap
}

// Widget is the pattern memory puzzle in either variant.
type Widget struct {
	*puzzle.Base
	walk bool

	target  Target
	entry   []int
	cursor  int
	lit     int
	showing bool
	reveal  sched.Timer
	replays int
	// interrupted marks a reveal cut short by a random event; it replays when the event ends.
	interrupted bool
}

var _ puzzle.Widget = (*Widget)(nil)

// New builds the free-sequence variant.
func New(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypePattern, surface, cfg, opts), lit: -1}
}

// NewWalk builds the random-walk, fail-fast variant.
func NewWalk(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypePatternWalk, surface, cfg, opts), walk: true, lit: -1}
}

// Initialize adopts or draws the sequence and starts the first reveal.
func (w *Widget) Initialize() error {
	title := gotext.Get("Pattern Memory")
	if w.walk {
		title = gotext.Get("Security Trace")
	}
	if err := w.Begin(puzzle.Hooks{Title: title, Draw: w.draw, OnEvent: w.onEvent, OnComplete: w.stopReveal}); err != nil {
		return err
	}
	ok, err := w.Config().DecodeData(&w.target)
	if err != nil {
		return err
	}
	switch {
	case ok:
		if err := w.target.Validate(); err != nil {
			return fmt.Errorf("%w: %v", puzzle.ErrInvalidConfig, err)
		}
	case w.walk:
		w.target = GenerateWalk(w.Rand(), w.Difficulty())
	default:
		w.target = Generate(w.Rand(), w.Difficulty())
	}
	w.Activate()
	w.play()
	return nil
}

// Showing reports whether the reveal animation is running.
func (w *Widget) Showing() bool { return w.showing }

// Entry returns the cells entered so far.
func (w *Widget) Entry() []int { return append([]int(nil), w.entry...) }

// RevealDuration is how long one full reveal takes, lead-in included.
func (w *Widget) RevealDuration() time.Duration {
	lit, gap := flashTiming(w.Difficulty())
	n := time.Duration(len(w.target.Sequence))
	return leadIn + n*(lit+gap)
}

// play runs the reveal as an explicit timed sequence; input is refused until it ends.
func (w *Widget) play() {
	w.stopReveal()
	w.entry = w.entry[:0]
	w.showing = true
	lit, gap := flashTiming(w.Difficulty())

	steps := make([]sched.Step, 0, 2*len(w.target.Sequence)+1)
	for i, cell := range w.target.Sequence {
		delay := gap
		if i == 0 {
			delay = leadIn
		}
		steps = append(steps,
			sched.Step{Delay: delay, Do: func() { w.light(cell) }},
			sched.Step{Delay: lit, Do: func() { w.light(-1) }},
		)
	}
	steps = append(steps, sched.Step{Delay: gap, Do: w.endReveal})
	w.reveal = w.Group().Sequence(steps...)
	w.Render()
}

func (w *Widget) onEvent(_ puzzle.EventType, active bool) {
	switch {
	case active && w.showing:
		w.stopReveal()
		w.showing = true
		w.interrupted = true
	case !active && w.interrupted:
		w.interrupted = false
		w.play()
	}
}

func (w *Widget) light(cell int) {
	w.lit = cell
	if cell >= 0 {
		w.Play(renderer.CueReveal)
	}
	w.Render()
}

func (w *Widget) endReveal() {
	w.showing = false
	w.lit = -1
	w.reveal = nil
	w.Message(gotext.Get("Your turn. Repeat the pattern."), puzzle.SeverityInfo)
}

func (w *Widget) stopReveal() {
	w.interrupted = false
	if w.reveal != nil {
		w.reveal.Stop()
		w.reveal = nil
	}
	w.showing = false
	w.lit = -1
}

// Choose enters one cell.
func (w *Widget) Choose(cell int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.showing {
		return ErrShowing
	}
	if cell < 0 || cell >= w.target.Size*w.target.Size {
		return fmt.Errorf("%w: cell %d", puzzle.ErrInvalidInput, cell)
	}
	w.entry = append(w.entry, cell)
	w.Play(renderer.CueClick)

	if w.walk && FirstMismatch(w.target.Sequence, w.entry) >= 0 {
		w.fail()
		return nil
	}
	if len(w.entry) < len(w.target.Sequence) {
		w.Render()
		return nil
	}

	if w.Remote() {
		w.Submit(Payload{Sequence: w.Entry()}, w.retry)
		return nil
	}
	if Verify(w.target, Payload{Sequence: w.entry}) {
		w.Succeed()
		return nil
	}
	w.fail()
	return nil
}

func (w *Widget) fail() {
	w.Logger().Debug("pattern mismatch", zap.Int("entered", len(w.entry)), zap.Int("replays", w.replays+1))
	w.Play(renderer.CueError)
	w.Message(gotext.Get("Incorrect pattern. Watch again."), puzzle.SeverityWarning)
	w.retry()
}

func (w *Widget) retry() {
	w.replays++
	w.play()
}

// HandleIntent maps cursor and selection input onto the grid.
func (w *Widget) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.showing {
		return ErrShowing
	}
	size := w.target.Size
	row, col := w.cursor/size, w.cursor%size
	switch in.Action {
	case input.ActionCursorUp:
		row = puzzle.Wrap(row-1, size)
	case input.ActionCursorDown:
		row = puzzle.Wrap(row+1, size)
	case input.ActionCursorLeft:
		col = puzzle.Wrap(col-1, size)
	case input.ActionCursorRight:
		col = puzzle.Wrap(col+1, size)
	case input.ActionSelect, input.ActionSubmit:
		return w.Choose(w.cursor)
	case input.ActionPick:
		return w.Choose(in.Value)
	case input.ActionDigit:
		// 1-9 address a 3x3 board like a phone keypad.
		if size == 3 && in.Value > 0 {
			return w.Choose(in.Value - 1)
		}
		return puzzle.ErrUnsupported
	case input.ActionClear:
		w.entry = w.entry[:0]
	default:
		return puzzle.ErrUnsupported
	}
	w.cursor = row*size + col
	w.Render()
	return nil
}

func (w *Widget) draw(v *puzzle.View) {
	size := w.target.Size
	g := puzzle.NewGridView(size, size, "□")
	for _, cell := range w.entry {
		g.Cells[cell] = puzzle.CellView{Glyph: "■", Style: renderer.StyleSelected}
	}
	if w.lit >= 0 {
		g.Cells[w.lit] = puzzle.CellView{Glyph: "■", Style: renderer.StyleActive}
	}
	if !w.showing && v.Phase == puzzle.PhaseActive {
		g.Cursor = w.cursor
	}
	v.Grid = g

	progress := gotext.Get("Entered %d of %d", len(w.entry), len(w.target.Sequence))
	if w.showing {
		progress = gotext.Get("Watch the pattern...")
	}
	v.Lines = append(v.Lines, puzzle.Text(progress, renderer.StyleSubtle))
	v.Controls = gotext.Get("arrows move, space selects")
}
