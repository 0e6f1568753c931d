package detonation

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/engine/input"
	"heist/pkg/engine/sched"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

var (
	// ErrSensitiveCell is returned for a charge on a sensitive cell.
	ErrSensitiveCell = fmt.Errorf("%w: sensitive cell", puzzle.ErrInvalidInput)
	// ErrNotWall is returned for a charge on anything but a wall.
	ErrNotWall = fmt.Errorf("%w: charges go on walls", puzzle.ErrInvalidInput)
	// ErrChargeCount is returned when detonating with the wrong number of charges.
	ErrChargeCount = fmt.Errorf("%w: wrong number of charges", puzzle.ErrInvalidInput)
	// ErrNoCharges is returned when the budget is spent.
	ErrNoCharges = fmt.Errorf("%w: no charges left", puzzle.ErrInvalidInput)
	// ErrDetonating is returned for input while the blast plays.
	ErrDetonating = fmt.Errorf("%w: detonation in progress", puzzle.ErrBusy)
)

// Blast timing.
const (
	fuse   = 300 * time.Millisecond
	settle = 400 * time.Millisecond
)

// Widget is the demolition map.
type Widget struct {
	*puzzle.Base

	target  Target
	charges []int
	cursor  int
	blast   sched.Timer
	flash   int
	blown   bool
	route   []int
}

var _ puzzle.Widget = (*Widget)(nil)

// New builds the widget.
func New(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypeDetonation, surface, cfg, opts), flash: -1}
}

// Initialize adopts or draws the site.
func (w *Widget) Initialize() error {
	if err := w.Begin(puzzle.Hooks{Title: gotext.Get("Demolition Map"), Draw: w.draw, OnComplete: w.stopBlast}); err != nil {
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
	w.cursor = w.target.find(KindStart)
	w.Activate()
	return nil
}

// Target returns the site.
func (w *Widget) Target() Target { return w.target }

// Charges returns the charged cells in placement order.
func (w *Widget) Charges() []int { return append([]int(nil), w.charges...) }

// Detonating reports whether the blast animation is running.
func (w *Widget) Detonating() bool { return w.blast != nil }

// BlastDuration is how long the animation for n charges runs.
func BlastDuration(n int) time.Duration {
	return time.Duration(n)*fuse + settle
}

// Toggle places a charge on cell, or removes the one already there.
func (w *Widget) Toggle(cell int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.blast != nil {
		return ErrDetonating
	}
	if cell < 0 || cell >= len(w.target.Cells) {
		return fmt.Errorf("%w: cell %d", puzzle.ErrInvalidInput, cell)
	}
	if i := slices.Index(w.charges, cell); i >= 0 {
		w.charges = slices.Delete(w.charges, i, i+1)
		w.Render()
		return nil
	}
	switch w.target.Cells[cell] {
	case KindSensitive:
		w.Play(renderer.CueError)
		w.Message(gotext.Get("That cell is too sensitive for a charge."), puzzle.SeverityWarning)
		return ErrSensitiveCell
	case KindWall:
	default:
		w.Message(gotext.Get("Charges only go on walls."), puzzle.SeverityInfo)
		return ErrNotWall
	}
	if len(w.charges) >= w.target.Budget {
		w.Message(gotext.Get("No charges left."), puzzle.SeverityInfo)
		return ErrNoCharges
	}
	w.charges = append(w.charges, cell)
	w.Play(renderer.CueClick)
	w.Render()
	return nil
}

// Detonate fires the charges. The budget must be spent exactly.
func (w *Widget) Detonate() error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.blast != nil {
		return ErrDetonating
	}
	if err := CheckCharges(w.target, w.charges); err != nil {
		if errors.Is(err, ErrChargeCount) {
			w.Message(gotext.Get("Place exactly %d charges.", w.target.Budget), puzzle.SeverityWarning)
		}
		return err
	}

	steps := make([]sched.Step, 0, len(w.charges)+1)
	for _, c := range w.charges {
		steps = append(steps, sched.Step{Delay: fuse, Do: func() { w.explode(c) }})
	}
	steps = append(steps, sched.Step{Delay: settle, Do: w.resolve})
	w.blast = w.Group().Sequence(steps...)
	w.Logger().Debug("detonating", zap.Ints("charges", w.charges))
	w.Render()
	return nil
}

func (w *Widget) explode(cell int) {
	w.flash = cell
	w.Play(renderer.CueExplosion)
	w.Render()
}

func (w *Widget) resolve() {
	w.blast = nil
	w.flash = -1
	w.route = Route(w.target, w.charges)
	if w.Remote() {
		w.blown = true
		w.Submit(Payload{Charges: w.Charges()}, w.rebuild)
		return
	}
	if w.route != nil {
		w.blown = true
		w.Succeed()
		return
	}
	w.Logger().Info("detonation left no path", zap.Ints("charges", w.charges))
	w.Play(renderer.CueError)
	w.rebuild()
	w.Message(gotext.Get("The blast didn't open a path. Charges reset."), puzzle.SeverityWarning)
}

// rebuild restores the site for another try.
func (w *Widget) rebuild() {
	w.blown = false
	w.route = nil
	w.charges = w.charges[:0]
}

// Route returns the cleared start-to-exit route after a successful blast.
func (w *Widget) Route() []int { return append([]int(nil), w.route...) }

func (w *Widget) stopBlast() {
	if w.blast != nil {
		w.blast.Stop()
		w.blast = nil
	}
	w.flash = -1
}

// HandleIntent maps cursor movement and charge placement.
func (w *Widget) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.blast != nil {
		return ErrDetonating
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
	case input.ActionSelect:
		return w.Toggle(w.cursor)
	case input.ActionPick:
		return w.Toggle(in.Value)
	case input.ActionSubmit:
		return w.Detonate()
	case input.ActionClear:
		w.charges = w.charges[:0]
	default:
		return puzzle.ErrUnsupported
	}
	w.cursor = row*size + col
	w.Render()
	return nil
}

func (w *Widget) draw(v *puzzle.View) {
	size := w.target.Size
	g := puzzle.NewGridView(size, size, " ")
	for i, k := range w.target.Cells {
		switch k {
		case KindStart:
			g.Cells[i] = puzzle.CellView{Glyph: "S", Style: renderer.StylePath}
		case KindExit:
			g.Cells[i] = puzzle.CellView{Glyph: "E", Style: renderer.StyleExit}
		case KindPath:
			g.Cells[i] = puzzle.CellView{Glyph: "·", Style: renderer.StylePath}
		case KindWall:
			g.Cells[i] = puzzle.CellView{Glyph: "█", Style: renderer.StyleWall}
		case KindSensitive:
			g.Cells[i] = puzzle.CellView{Glyph: "☢", Style: renderer.StyleSensitive}
		}
	}
	for _, c := range w.charges {
		g.Cells[c] = puzzle.CellView{Glyph: "✱", Style: renderer.StyleCharge}
		if w.blown {
			g.Cells[c] = puzzle.CellView{Glyph: "•", Style: renderer.StyleExit}
		}
	}
	for _, c := range w.route {
		if w.target.Cells[c] == KindPath {
			g.Cells[c] = puzzle.CellView{Glyph: "•", Style: renderer.StyleExit}
		}
	}
	if w.flash >= 0 {
		g.Cells[w.flash] = puzzle.CellView{Glyph: "*", Style: renderer.StyleWarning}
	}
	if w.blast == nil && v.Phase == puzzle.PhaseActive {
		g.Cursor = w.cursor
	}
	v.Grid = g
	v.Lines = append(v.Lines, puzzle.Text(gotext.Get("Charges: %d/%d", len(w.charges), w.target.Budget), renderer.StyleCharge))
	v.Controls = gotext.Get("arrows move, space places a charge, enter detonates")
}
