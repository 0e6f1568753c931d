package puzzle

import (
	"context"
	"math/rand"
	"time"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/engine/sched"
	"heist/pkg/game/renderer"
)

// Hooks are the variant-specific parts of a widget.
type Hooks struct {
	// Title is shown above the body.
	Title string
	// Draw fills in the variant body of a view.
	Draw func(v *View)
	// OnEvent runs when a random event starts (active=true) or ends.
	OnEvent func(ev EventType, active bool)
	// OnComplete runs once when the widget completes, before the final render.
	OnComplete func()
}

// Base implements the lifecycle shared by every variant: the phase machine, random event
// locking, host toggling, submission round trips, messages and rendering. Variants embed it.
// All methods must be called on the scheduler's loop.
type Base struct {
	kind    Type
	cfg     Config
	surface Surface
	opts    Options
	group   *sched.Group
	log     *zap.Logger
	hooks   Hooks

	phase    Phase
	started  bool
	closed   bool
	disabled bool
	pending  bool

	event   EventType
	restore sched.Timer

	status   string
	severity Severity
}

// NewBase wires the shared state for a variant of kind.
func NewBase(kind Type, surface Surface, cfg Config, opts Options) *Base {
	opts = opts.withDefaults()
	if surface == nil {
		surface = nopSurface{}
	}
	return &Base{
		kind:    kind,
		cfg:     cfg,
		surface: surface,
		opts:    opts,
		group:   sched.NewGroup(opts.Scheduler),
		log:     opts.Logger.With(zap.String("puzzle", string(kind)), zap.Int("difficulty", cfg.Difficulty)),
		phase:   PhaseInitializing,
	}
}

// Type returns the variant tag
func (b *Base) Type() Type { return b.kind }

// Config returns the widget's configuration
func (b *Base) Config() Config { return b.cfg }

// Difficulty returns the clamped difficulty
func (b *Base) Difficulty() int { return ClampDifficulty(b.cfg.Difficulty) }

// Phase returns the current lifecycle phase
func (b *Base) Phase() Phase { return b.phase }

// Group returns the timer group owned by this widget
func (b *Base) Group() *sched.Group { return b.group }

// Rand returns the widget's random source
func (b *Base) Rand() *rand.Rand { return b.opts.Rand }

// Logger returns the widget's logger
func (b *Base) Logger() *zap.Logger { return b.log }

// Host returns the injected host callbacks
func (b *Base) Host() Host { return b.opts.Host }

// Remote reports whether solutions are validated by the host.
func (b *Base) Remote() bool { return b.opts.Submit != nil }

// Closed reports whether Cleanup has run
func (b *Base) Closed() bool { return b.closed }

// Disabled reports whether the host has disabled interaction
func (b *Base) Disabled() bool { return b.disabled }

// Pending reports whether a submission is awaiting a verdict
func (b *Base) Pending() bool { return b.pending }

// Status returns the last message shown and its severity
func (b *Base) Status() (string, Severity) { return b.status, b.severity }

// Begin guards Initialize against repeats and installs the variant hooks.
func (b *Base) Begin(h Hooks) error {
	if b.closed {
		return ErrClosed
	}
	if b.started {
		return ErrAlreadyInitialized
	}
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	b.started = true
	b.hooks = h
	return nil
}

// Activate moves the widget from initializing to active and draws it.
func (b *Base) Activate() {
	if b.closed || b.phase != PhaseInitializing {
		return
	}
	b.phase = PhaseActive
	b.log.Debug("puzzle active")
	b.Render()
}

// Accepting returns nil when player input may mutate the widget.
func (b *Base) Accepting() error {
	switch {
	case b.closed:
		return ErrClosed
	case b.phase == PhaseInitializing:
		return ErrNotInitialized
	case b.phase == PhaseCompleted:
		return ErrCompleted
	case b.phase == PhaseLockedByEvent:
		return ErrLocked
	case b.disabled:
		return ErrDisabled
	case b.pending:
		return ErrBusy
	}
	return nil
}

// HandleRandomEvent locks input for d. A new event replaces the restore deadline of one
// already running. Completed or cleaned up widgets ignore events.
func (b *Base) HandleRandomEvent(ev EventType, d time.Duration) {
	if b.closed || !b.started || b.phase == PhaseCompleted || b.phase == PhaseInitializing {
		return
	}
	if b.restore != nil {
		b.restore.Stop()
	}
	b.phase = PhaseLockedByEvent
	b.event = ev
	b.log.Debug("random event", zap.String("event", string(ev)), zap.Duration("duration", d))
	if ev == EventAlarm {
		b.Play(renderer.CueAlarm)
	}
	if b.hooks.OnEvent != nil {
		b.hooks.OnEvent(ev, true)
	}
	b.restore = b.group.After(d, b.endEvent)
	b.Render()
}

func (b *Base) endEvent() {
	if b.phase != PhaseLockedByEvent {
		return
	}
	ev := b.event
	b.phase = PhaseActive
	b.event = ""
	b.restore = nil
	if b.hooks.OnEvent != nil {
		b.hooks.OnEvent(ev, false)
	}
	b.Render()
}

// Event returns the active random event, empty when none.
func (b *Base) Event() EventType { return b.event }

// DisableInteraction toggles input acceptance.
func (b *Base) DisableInteraction(disabled bool) {
	if b.closed || b.disabled == disabled {
		return
	}
	b.disabled = disabled
	b.Render()
}

// ShowSuccess completes the widget without notifying the host. Idempotent.
func (b *Base) ShowSuccess() {
	b.complete()
}

// Succeed completes the widget and notifies the host once.
func (b *Base) Succeed() {
	if b.closed || b.phase == PhaseCompleted {
		return
	}
	b.complete()
	b.opts.Host.ShowSuccess()
}

func (b *Base) complete() {
	if b.closed || b.phase == PhaseCompleted {
		return
	}
	if b.restore != nil {
		b.restore.Stop()
		b.restore = nil
	}
	b.phase = PhaseCompleted
	b.event = ""
	b.pending = false
	if b.hooks.OnComplete != nil {
		b.hooks.OnComplete()
	}
	b.status = gotext.Get("Puzzle solved!")
	b.severity = SeveritySuccess
	b.Play(renderer.CueSuccess)
	b.log.Info("puzzle completed")
	b.Render()
}

// Cleanup cancels everything the widget scheduled. Idempotent.
func (b *Base) Cleanup() {
	if b.closed {
		return
	}
	b.closed = true
	b.group.Close()
	b.restore = nil
	b.log.Debug("puzzle cleaned up")
}

// Message shows a player-facing message through the host and on the surface.
func (b *Base) Message(text string, sev Severity) {
	if b.closed {
		return
	}
	b.status = text
	b.severity = sev
	b.opts.Host.ShowMessage(text, sev)
	b.Render()
}

// Play plays an audio cue.
func (b *Base) Play(c renderer.Cue) {
	if b.closed {
		return
	}
	b.opts.Audio.Play(c)
}

// Submit hands payload to the host for authoritative validation. On acceptance the widget
// completes; on rejection or transport failure the player sees a retry message, input is
// re-enabled and onReject runs. Results arriving after Cleanup are dropped.
func (b *Base) Submit(payload any, onReject func()) {
	if b.opts.Submit == nil || b.pending {
		return
	}
	b.pending = true
	b.Message(gotext.Get("Verifying..."), SeverityInfo)

	var (
		ok  bool
		err error
	)
	submit := b.opts.Submit
	timeout := b.opts.SubmitTimeout
	b.group.Async(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ok, err = submit(ctx, payload)
	}, func() {
		b.pending = false
		if b.phase == PhaseCompleted {
			return
		}
		switch {
		case err != nil:
			b.log.Warn("solution submission failed", zap.Error(err), zap.Bool("transport", true))
			b.reject(gotext.Get("Could not reach the vault server. Try again."), onReject)
		case !ok:
			b.log.Info("solution rejected")
			b.reject(gotext.Get("Incorrect solution. Try again."), onReject)
		default:
			b.Succeed()
		}
	})
}

func (b *Base) reject(msg string, onReject func()) {
	b.Play(renderer.CueError)
	if onReject != nil {
		onReject()
	}
	b.Message(msg, SeverityWarning)
}

// Render draws the current view. Nothing is drawn after Cleanup.
func (b *Base) Render() {
	if b.closed {
		return
	}
	v := View{
		Type:     b.kind,
		Title:    b.hooks.Title,
		Phase:    b.phase,
		Disabled: b.disabled || b.pending,
		Event:    b.event,
		Status:   b.status,
		Severity: b.severity,
	}
	if b.hooks.Draw != nil {
		b.hooks.Draw(&v)
	}
	b.surface.Draw(v)
}
