package timedbank

import (
	"fmt"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/engine/input"
	"heist/pkg/engine/sched"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// ErrHolding is returned for input while a pick is locking in.
var ErrHolding = fmt.Errorf("%w: element is locking", puzzle.ErrBusy)

const boardCols = 3

// Widget is the timed sequence bank.
type Widget struct {
	*puzzle.Base

	target   Target
	values   []int
	rolls    []sched.Timer
	locked   []bool
	progress int
	holding  int
	hold     sched.Timer
	cursor   int
	resets   int
}

var _ puzzle.Widget = (*Widget)(nil)

// New builds the widget.
func New(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypeTimedBank, surface, cfg, opts), holding: -1}
}

// Initialize adopts or draws the order and starts every element flickering.
func (w *Widget) Initialize() error {
	err := w.Begin(puzzle.Hooks{
		Title:      gotext.Get("Timed Sequence"),
		Draw:       w.draw,
		OnEvent:    w.onEvent,
		OnComplete: w.stopAll,
	})
	if err != nil {
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

	n := w.target.Pool
	w.values = make([]int, n)
	w.rolls = make([]sched.Timer, n)
	w.locked = make([]bool, n)
	for i := range w.values {
		w.values[i] = w.Rand().Intn(10)
		w.arm(i)
	}
	w.Activate()
	return nil
}

// Progress returns how many elements are locked.
func (w *Widget) Progress() int { return w.progress }

// Holding returns the element locking in, or -1.
func (w *Widget) Holding() int { return w.holding }

// Values returns the value each element currently shows.
func (w *Widget) Values() []int { return append([]int(nil), w.values...) }

// Locked reports whether element i is locked.
func (w *Widget) Locked(i int) bool { return i >= 0 && i < len(w.locked) && w.locked[i] }

// arm schedules the next value change of element i.
func (w *Widget) arm(i int) {
	interval := RerollInterval(w.Difficulty())
	w.rolls[i] = w.Group().After(interval+jitter(w.Rand(), interval), func() { w.reroll(i) })
}

func (w *Widget) reroll(i int) {
	w.rolls[i] = nil
	if w.locked[i] || w.holding == i {
		return
	}
	next := w.Rand().Intn(9)
	if next >= w.values[i] {
		next++
	}
	w.values[i] = next
	w.arm(i)
	w.Render()
}

func (w *Widget) freeze(i int) {
	if w.rolls[i] != nil {
		w.rolls[i].Stop()
		w.rolls[i] = nil
	}
}

func (w *Widget) stopAll() {
	w.cancelHold()
	for i := range w.rolls {
		w.freeze(i)
	}
}

func (w *Widget) cancelHold() {
	if w.hold != nil {
		w.hold.Stop()
		w.hold = nil
	}
	w.holding = -1
}

// Select picks element i.
func (w *Widget) Select(i int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.holding >= 0 {
		return ErrHolding
	}
	if i < 0 || i >= w.target.Pool {
		return fmt.Errorf("%w: element %d", puzzle.ErrInvalidInput, i)
	}
	if w.locked[i] {
		return fmt.Errorf("%w: element %s already locked", puzzle.ErrInvalidInput, Label(i))
	}
	if i != w.target.Order[w.progress] {
		w.Logger().Debug("wrong element", zap.Int("element", i), zap.Int("progress", w.progress))
		w.Play(renderer.CueError)
		w.reset()
		w.Message(gotext.Get("Wrong element. Sequence reset."), puzzle.SeverityWarning)
		return nil
	}
	w.holding = i
	w.freeze(i)
	w.Play(renderer.CueTick)
	w.hold = w.Group().After(LockTime(w.Difficulty()), w.confirm)
	w.Render()
	return nil
}

func (w *Widget) confirm() {
	i := w.holding
	w.hold = nil
	w.holding = -1
	w.locked[i] = true
	w.progress++
	w.Play(renderer.CueClick)
	if w.progress < len(w.target.Order) {
		w.Render()
		return
	}
	w.stopAll()
	if w.Remote() {
		w.Submit(Payload{Sequence: append([]int(nil), w.target.Order...)}, w.reset)
		return
	}
	w.Succeed()
}

// reset drops every lock and restarts the flicker.
func (w *Widget) reset() {
	w.resets++
	w.Logger().Debug("sequence reset", zap.Int("resets", w.resets))
	w.cancelHold()
	w.progress = 0
	for i := range w.locked {
		w.locked[i] = false
		if w.rolls[i] == nil {
			w.arm(i)
		}
	}
}

func (w *Widget) onEvent(_ puzzle.EventType, active bool) {
	if !active || w.holding < 0 {
		return
	}
	i := w.holding
	w.cancelHold()
	w.arm(i)
}

// HandleIntent maps board navigation and picks.
func (w *Widget) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	n := w.target.Pool
	switch in.Action {
	case input.ActionCursorLeft:
		w.cursor = puzzle.Wrap(w.cursor-1, n)
	case input.ActionCursorRight:
		w.cursor = puzzle.Wrap(w.cursor+1, n)
	case input.ActionCursorUp:
		w.cursor = puzzle.Wrap(w.cursor-boardCols, n)
	case input.ActionCursorDown:
		w.cursor = puzzle.Wrap(w.cursor+boardCols, n)
	case input.ActionSelect, input.ActionSubmit:
		return w.Select(w.cursor)
	case input.ActionPick:
		return w.Select(in.Value)
	case input.ActionDigit:
		return w.Select(in.Value - 1)
	default:
		return puzzle.ErrUnsupported
	}
	w.Render()
	return nil
}

func (w *Widget) draw(v *puzzle.View) {
	var order puzzle.Line
	order = append(order, puzzle.Span{Text: gotext.Get("Order:") + " ", Style: renderer.StyleSubtle})
	for i, e := range w.target.Order {
		style := renderer.StyleNormal
		switch {
		case i < w.progress:
			style = renderer.StyleSuccess
		case e == w.holding:
			style = renderer.StyleActive
		}
		sep := " → "
		if i == len(w.target.Order)-1 {
			sep = ""
		}
		order = append(order, puzzle.Span{Text: Label(e) + sep, Style: style})
	}
	v.Lines = append(v.Lines, order)

	rows := (w.target.Pool + boardCols - 1) / boardCols
	g := puzzle.NewGridView(rows, boardCols, " ")
	for i, val := range w.values {
		style := renderer.StyleNormal
		switch {
		case w.locked[i]:
			style = renderer.StyleSuccess
		case i == w.holding:
			style = renderer.StyleActive
		}
		g.Cells[i] = puzzle.CellView{Glyph: fmt.Sprintf("%s%d", Label(i), val), Style: style}
	}
	if v.Phase == puzzle.PhaseActive {
		g.Cursor = w.cursor
	}
	v.Grid = g
	if w.holding >= 0 {
		v.Lines = append(v.Lines, puzzle.Text(gotext.Get("Locking %s...", Label(w.holding)), renderer.StyleActive))
	}
	v.Controls = gotext.Get("arrows move, space picks, 1-%d pick directly", w.target.Pool)
}
