package vault

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

const tick = time.Second

// Widget is the timed vault.
type Widget struct {
	*puzzle.Base

	target    Target
	dial      int
	section   int
	opened    []int
	remaining time.Duration
	clock     sched.Timer
	attempt   int
	alarms    int
}

var _ puzzle.Widget = (*Widget)(nil)

// New builds the widget.
func New(surface puzzle.Surface, cfg puzzle.Config, opts puzzle.Options) *Widget {
	return &Widget{Base: puzzle.NewBase(puzzle.TypeVault, surface, cfg, opts)}
}

// Initialize adopts or draws the sections and starts the first attempt.
func (w *Widget) Initialize() error {
	if err := w.Begin(puzzle.Hooks{Title: gotext.Get("Vault"), Draw: w.draw, OnComplete: w.stopClock}); err != nil {
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
	w.Activate()
	w.startAttempt()
	return nil
}

// Remaining returns the time left in the current attempt.
func (w *Widget) Remaining() time.Duration { return w.remaining }

// Section returns the index of the section being worked.
func (w *Widget) Section() int { return w.section }

// Dial returns the current dial position.
func (w *Widget) Dial() int { return w.dial }

// Attempt returns the 1-based attempt number.
func (w *Widget) Attempt() int { return w.attempt }

// Alarms returns how many times the alarm has tripped.
func (w *Widget) Alarms() int { return w.alarms }

// startAttempt closes every section and restarts the full countdown.
func (w *Widget) startAttempt() {
	w.stopClock()
	w.attempt++
	w.section = 0
	w.dial = 0
	w.opened = w.opened[:0]
	w.remaining = w.target.Duration()
	w.clock = w.Group().Every(tick, w.onTick)
	w.Host().EnableSubmit()
	w.restartHostCountdown()
	w.Render()
}

func (w *Widget) restartHostCountdown() {
	attempt := w.attempt
	g := w.Group()
	w.Host().StartCountdown(w.remaining, func() {
		g.Post(func() { w.hostExpired(attempt) })
	})
}

func (w *Widget) stopClock() {
	if w.clock != nil {
		w.clock.Stop()
		w.clock = nil
	}
}

func (w *Widget) onTick() {
	w.remaining -= tick
	if w.remaining <= 0 {
		w.remaining = 0
		w.timeout()
		return
	}
	if w.remaining <= 10*time.Second {
		w.Play(renderer.CueTick)
	}
	w.Render()
}

// hostExpired handles the host's own countdown running out. Countdowns from earlier attempts are
// ignored.
func (w *Widget) hostExpired(attempt int) {
	if attempt != w.attempt || w.Phase() == puzzle.PhaseCompleted || w.Pending() {
		return
	}
	w.timeout()
}

func (w *Widget) timeout() {
	w.Logger().Info("vault attempt timed out", zap.Int("attempt", w.attempt), zap.Int("section", w.section))
	w.Play(renderer.CueAlarm)
	w.startAttempt()
	w.Message(gotext.Get("Time's up! The vault has reset."), puzzle.SeverityWarning)
}

// Rotate turns the dial by delta positions.
func (w *Widget) Rotate(delta int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	w.move(puzzle.Wrap(w.dial+delta, puzzle.DialPositions))
	return nil
}

// SetDial moves the dial straight to v.
func (w *Widget) SetDial(v int) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if v < 0 || v >= puzzle.DialPositions {
		return fmt.Errorf("%w: dial %d", puzzle.ErrInvalidInput, v)
	}
	w.move(v)
	return nil
}

// move sets the dial. Any movement may trip the alarm.
func (w *Widget) move(v int) {
	w.dial = v
	w.Play(renderer.CueTick)
	if w.target.AlarmChance > 0 && w.Rand().Float64() < w.target.AlarmChance {
		w.alarm()
		return
	}
	w.Render()
}

func (w *Widget) alarm() {
	if w.target.AlarmSeconds <= 0 {
		return
	}
	w.alarms++
	w.Logger().Info("vault alarm tripped", zap.Int("alarms", w.alarms))
	w.HandleRandomEvent(puzzle.EventAlarm, w.target.AlarmDuration())
}

// Confirm checks the dial against the current section.
func (w *Widget) Confirm() error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if w.dial != w.target.Sections[w.section] {
		w.remaining = ApplyPenalty(w.remaining, w.target.PenaltyDuration())
		w.Logger().Info("wrong vault position", zap.Int("section", w.section), zap.Duration("remaining", w.remaining))
		w.Play(renderer.CueError)
		w.restartHostCountdown()
		w.Message(gotext.Get("Wrong position. -%ds", w.target.Penalty), puzzle.SeverityWarning)
		if w.target.AlarmOnError {
			w.alarm()
		}
		return nil
	}

	w.opened = append(w.opened, w.dial)
	w.section++
	w.Play(renderer.CueClick)
	if w.section < len(w.target.Sections) {
		w.Message(gotext.Get("Section %d open.", w.section), puzzle.SeverityInfo)
		return nil
	}
	w.finish()
	return nil
}

func (w *Widget) finish() {
	w.stopClock()
	w.Host().DisableSubmit()
	if w.Remote() {
		w.Submit(Payload{Positions: append([]int(nil), w.opened...)}, w.startAttempt)
		return
	}
	w.Succeed()
}

// HandleIntent maps dial input.
func (w *Widget) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	switch in.Action {
	case input.ActionIncrease, input.ActionCursorRight:
		return w.Rotate(1)
	case input.ActionDecrease, input.ActionCursorLeft:
		return w.Rotate(-1)
	case input.ActionCursorUp:
		return w.Rotate(10)
	case input.ActionCursorDown:
		return w.Rotate(-10)
	case input.ActionDigit:
		return w.SetDial((w.dial*10 + in.Value) % puzzle.DialPositions)
	case input.ActionClear:
		return w.SetDial(0)
	case input.ActionSelect, input.ActionSubmit:
		return w.Confirm()
	case input.ActionEntry:
		v, err := puzzle.ParseInts(in.Text)
		if err == nil {
			err = puzzle.CheckLen(len(v), 1)
		}
		if err == nil {
			err = puzzle.CheckRange(v, 0, puzzle.DialPositions-1)
		}
		if err != nil {
			w.Message(gotext.Get(puzzle.InvalidMessage), puzzle.SeverityError)
			return err
		}
		w.dial = v[0]
		return w.Confirm()
	}
	return puzzle.ErrUnsupported
}

func (w *Widget) draw(v *puzzle.View) {
	v.Remaining = w.remaining
	var row puzzle.Line
	for i := range w.target.Sections {
		switch {
		case i < w.section:
			row = append(row, puzzle.Span{Text: fmt.Sprintf("[%02d] ", w.opened[i]), Style: renderer.StyleSuccess})
		case i == w.section && v.Phase != puzzle.PhaseCompleted:
			row = append(row, puzzle.Span{Text: fmt.Sprintf("[%02d] ", w.dial), Style: renderer.StyleCursor})
		default:
			row = append(row, puzzle.Span{Text: "[--] ", Style: renderer.StyleInert})
		}
	}
	v.Lines = append(v.Lines, row)

	style := renderer.StyleNormal
	if w.remaining <= 10*time.Second {
		style = renderer.StyleWarning
	}
	secs := int(w.remaining / time.Second)
	v.Lines = append(v.Lines, puzzle.Text(gotext.Get("Time left: %d:%02d", secs/60, secs%60), style))
	if v.Event == puzzle.EventAlarm {
		v.Lines = append(v.Lines, puzzle.Text(gotext.Get("ALARM! Hold still..."), renderer.StyleDenied))
	}
	v.Controls = gotext.Get("left/right turn, up/down turn by 10, enter confirms")
}
