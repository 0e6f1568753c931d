package lockbank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/engine/input"
	"heist/pkg/engine/world"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// ErrLockInert is returned for input on a lock the ordered chain has not reached.
var ErrLockInert = fmt.Errorf("%w: lock is not active yet", puzzle.ErrInvalidInput)

// ErrNothingToBypass is returned when every lock is already open.
var ErrNothingToBypass = errors.New("no lock left to bypass")

// Widget is the multi-lock puzzle in either variant.
type Widget struct {
	*puzzle.Base
	ordered bool

	target   Target
	drafts   []draft
	attempts map[int]Attempt
	bypassed []int
	focus    int
	current  int
}

var (
	_ puzzle.Widget   = (*Widget)(nil)
	_ puzzle.Bypasser = (*Widget)(nil)
)

// New builds the any-order bank.
func New(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypeLockBank, surface, cfg, opts)}
}

// NewOrdered builds the ordered chain.
func NewOrdered(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypeOrderedLocks, surface, cfg, opts), ordered: true}
}

// Initialize adopts or draws the locks.
func (w *Widget) Initialize() error {
	title := gotext.Get("Lock Bank")
	if w.ordered {
		title = gotext.Get("Lock Chain")
	}
	if err := w.Begin(puzzle.Hooks{Title: title, Draw: w.draw}); err != nil {
		return err
	}
	ok, err := w.Config().DecodeData(&w.target)
	if err != nil {
		return err
	}
	switch {
	case ok:
		w.target.Ordered = w.ordered
		if err := w.target.Validate(); err != nil {
			return fmt.Errorf("%w: %v", puzzle.ErrInvalidConfig, err)
		}
	case w.ordered:
		w.target = GenerateOrdered(w.Rand(), w.Difficulty())
	default:
		w.target = Generate(w.Rand(), w.Difficulty())
	}
	w.attempts = make(map[int]Attempt)
	w.drafts = make([]draft, len(w.target.Locks))
	for i, l := range w.target.Locks {
		w.drafts[i] = newDraft(l)
	}
	// Pre-solved locks in host data count as opened.
	for w.current < len(w.target.Locks) && w.target.Locks[w.current].Solved {
		w.current++
	}
	w.focus = w.firstUnsolved()
	w.Activate()
	return nil
}

// Locks returns a copy of the locks.
func (w *Widget) Locks() []Lock {
	return append([]Lock(nil), w.target.Locks...)
}

// Current returns the index of the active lock in an ordered chain.
func (w *Widget) Current() int { return w.current }

// Focused returns the index of the lock receiving input.
func (w *Widget) Focused() int { return w.focus }

func (w *Widget) firstUnsolved() int {
	for i, l := range w.target.Locks {
		if !l.Solved {
			return i
		}
	}
	return 0
}

func (w *Widget) allSolved() bool {
	for _, l := range w.target.Locks {
		if !l.Solved {
			return false
		}
	}
	return true
}

// reachable rejects locks the ordered chain has not reached.
func (w *Widget) reachable(id int) error {
	if id < 0 || id >= len(w.target.Locks) {
		return fmt.Errorf("%w: lock %d", puzzle.ErrInvalidInput, id)
	}
	if w.ordered && id > w.current {
		return ErrLockInert
	}
	return nil
}

// Focus moves input to lock id.
func (w *Widget) Focus(id int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if err := w.reachable(id); err != nil {
		return err
	}
	w.focus = id
	w.Render()
	return nil
}

// Attempt tries to open lock id. Attempts on an already open lock change nothing.
func (w *Widget) Attempt(id int, a Attempt) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if err := w.reachable(id); err != nil {
		return err
	}
	l := &w.target.Locks[id]
	if l.Solved {
		return nil
	}
	ok, hint := Check(*l, a)
	if !ok {
		w.Logger().Debug("lock attempt failed", zap.Int("lock", id), zap.String("kind", string(l.Kind)))
		w.drafts[id] = newDraft(*l)
		w.Play(renderer.CueError)
		w.Message(hint, puzzle.SeverityWarning)
		return nil
	}
	w.attempts[id] = a
	w.open(id)
	return nil
}

// Bypass opens one lock without an answer: the current lock of a chain, otherwise the focused
// lock or the first closed one.
func (w *Widget) Bypass() error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.allSolved() {
		return ErrNothingToBypass
	}
	id := w.current
	if !w.ordered {
		id = w.focus
		if w.target.Locks[id].Solved {
			id = w.firstUnsolved()
		}
	}
	w.bypassed = append(w.bypassed, id)
	w.Logger().Info("lock bypassed", zap.Int("lock", id))
	w.open(id)
	return nil
}

func (w *Widget) open(id int) {
	w.target.Locks[id].Solved = true
	w.Play(renderer.CueClick)
	if w.ordered {
		for w.current < len(w.target.Locks) && w.target.Locks[w.current].Solved {
			w.current++
		}
		if w.current < len(w.target.Locks) {
			w.focus = w.current
		}
	} else if w.focus == id {
		w.focus = w.firstUnsolved()
	}

	if !w.allSolved() {
		w.Message(gotext.Get("%s open.", w.target.Locks[id].Kind.Name()), puzzle.SeverityInfo)
		return
	}
	w.finish()
}

func (w *Widget) finish() {
	if !w.Remote() {
		w.Succeed()
		return
	}
	payload := Payload{Attempts: make(map[int]Attempt, len(w.attempts)), Bypassed: append([]int(nil), w.bypassed...)}
	for id, a := range w.attempts {
		payload.Attempts[id] = a
	}
	w.Submit(payload, nil)
}

// Resubmit sends the opened bank again after a failed verification.
func (w *Widget) Resubmit() error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if !w.allSolved() {
		return fmt.Errorf("%w: locks still closed", puzzle.ErrInvalidInput)
	}
	w.finish()
	return nil
}

// HandleIntent routes input to the focused lock.
func (w *Widget) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.allSolved() {
		if in.Action == input.ActionSubmit {
			return w.Resubmit()
		}
		return puzzle.ErrUnsupported
	}
	switch in.Action {
	case input.ActionNext:
		if w.ordered {
			return ErrLockInert
		}
		for i := 1; i <= len(w.target.Locks); i++ {
			next := (w.focus + i) % len(w.target.Locks)
			if !w.target.Locks[next].Solved {
				return w.Focus(next)
			}
		}
		return nil
	case input.ActionPick:
		return w.Focus(in.Value)
	case input.ActionPower:
		return w.Bypass()
	case input.ActionEntry:
		l := w.target.Locks[w.focus]
		a, err := parseEntry(l.Kind, in.Text)
		if err != nil {
			w.Message(gotext.Get(puzzle.InvalidMessage), puzzle.SeverityError)
			return err
		}
		return w.Attempt(w.focus, a)
	}

	l := w.target.Locks[w.focus]
	d := &w.drafts[w.focus]
	submit, err := d.apply(l, in)
	if err != nil {
		return err
	}
	if submit {
		return w.Attempt(w.focus, d.attempt(l.Kind))
	}
	w.Render()
	return nil
}

func (w *Widget) draw(v *puzzle.View) {
	for i, l := range w.target.Locks {
		mark, style := "○", renderer.StyleNormal
		switch {
		case l.Solved:
			mark, style = "✓", renderer.StyleSuccess
		case w.ordered && i > w.current:
			mark, style = "·", renderer.StyleInert
		case i == w.focus:
			mark, style = "▶", renderer.StyleCursor
		}
		v.Lines = append(v.Lines, puzzle.Text(fmt.Sprintf("%s %d. %s", mark, i+1, l.Kind.Name()), style))
	}
	if v.Phase == puzzle.PhaseCompleted || w.focus >= len(w.target.Locks) {
		return
	}
	l := w.target.Locks[w.focus]
	if l.Solved {
		return
	}
	v.Lines = append(v.Lines, puzzle.Line{})
	v.Lines = append(v.Lines, w.detail(l, w.drafts[w.focus])...)
}

// detail renders the focused lock's draft.
func (w *Widget) detail(l Lock, d draft) []puzzle.Line {
	switch l.Kind {
	case KindRotary:
		return []puzzle.Line{puzzle.Text(fmt.Sprintf("[%02d]", d.value), renderer.StyleCursor)}
	case KindPrecision:
		return []puzzle.Line{puzzle.Text(fmt.Sprintf("[%03d°]", d.value), renderer.StyleCursor)}
	case KindSlider:
		var lines []puzzle.Line
		for i, val := range d.values {
			style := renderer.StyleNormal
			if i == d.slider {
				style = renderer.StyleCursor
			}
			bar := strings.Repeat("█", val/5) + strings.Repeat("░", SliderMax/5-val/5)
			lines = append(lines, puzzle.Text(fmt.Sprintf("%s %3d", bar, val), style))
		}
		return lines
	case KindKeypad:
		slots := string(d.code) + strings.Repeat("_", len(l.Solution.Code)-len(d.code))
		return []puzzle.Line{puzzle.Text(slots, renderer.StyleCursor)}
	case KindColor:
		entered := strings.Join(d.colors, " ")
		var legend []string
		for i, c := range Palette {
			legend = append(legend, fmt.Sprintf("%d:%s", i+1, c))
		}
		return []puzzle.Line{
			puzzle.Text(entered+strings.Repeat(" _", len(l.Solution.Colors)-len(d.colors)), renderer.StyleCursor),
			puzzle.Text(strings.Join(legend, " "), renderer.StyleSubtle),
		}
	case KindDirectional:
		var clue puzzle.Line
		for _, c := range l.Clue {
			clue = append(clue, puzzle.Span{Text: arrowFor(c) + " ", Style: renderer.StyleActive})
		}
		var entered []string
		for _, m := range d.moves {
			entered = append(entered, arrowFor(m))
		}
		return []puzzle.Line{clue, puzzle.Text(strings.Join(entered, " "), renderer.StyleCursor)}
	case KindSymbols:
		var left, right puzzle.Line
		for i := range l.Right {
			style := renderer.StyleNormal
			if i == d.left {
				style = renderer.StyleSelected
			} else if d.matches[i] >= 0 {
				style = renderer.StyleSubtle
			}
			left = append(left, puzzle.Span{Text: fmt.Sprintf("%d%s ", i+1, filledSymbols[i]), Style: style})
		}
		for j, sym := range l.Right {
			right = append(right, puzzle.Span{Text: fmt.Sprintf("%d%s ", j+1, hollowSymbols[sym]), Style: renderer.StyleNormal})
		}
		return []puzzle.Line{left, right}
	}
	return nil
}

func arrowFor(name string) string {
	if d, ok := world.ParseDirection(name); ok {
		return d.Arrow()
	}
	return "?"
}
