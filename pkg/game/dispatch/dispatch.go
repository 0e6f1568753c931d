// Package dispatch mounts one puzzle widget at a time and forwards lifecycle calls to it.
package dispatch

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/stage"
)

// ErrNoWidget is returned when a call needs a mounted widget and there is none.
var ErrNoWidget = errors.New("no puzzle mounted")

// Dispatcher owns the active widget. Every method must run on the scheduler's loop.
type Dispatcher struct {
	registry *puzzle.Registry
	surface  puzzle.Surface
	opts     puzzle.Options
	log      *zap.Logger

	active puzzle.Widget
}

// New returns a dispatcher that builds widgets from registry.
func New(registry *puzzle.Registry, surface puzzle.Surface, opts puzzle.Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{registry: registry, surface: surface, opts: opts, log: log.Named("dispatch")}
}

// Mount cleans up the current widget, then builds and initializes the one cfg names. When the
// type is unknown or the widget fails to initialize an ErrorWidget is mounted instead and the
// cause is returned alongside it.
func (d *Dispatcher) Mount(cfg puzzle.Config) (puzzle.Widget, error) {
	d.Cleanup()

	w, err := d.registry.Create(d.surface, cfg, d.opts)
	if err != nil {
		d.log.Warn("unknown puzzle type", zap.String("type", string(cfg.Type)))
		return d.mountError(err), err
	}
	if err := w.Initialize(); err != nil {
		w.Cleanup()
		d.log.Warn("puzzle failed to initialize", zap.String("type", string(cfg.Type)), zap.Error(err))
		return d.mountError(err), fmt.Errorf("initialize %s: %w", cfg.Type, err)
	}
	d.active = w
	d.log.Debug("puzzle mounted", zap.String("type", string(w.Type())), zap.Int("difficulty", cfg.Difficulty))
	return w, nil
}

// SetSubmitter replaces the submitter handed to widgets mounted from now on. A nil submitter
// makes widgets verify locally.
func (d *Dispatcher) SetSubmitter(s puzzle.Submitter) {
	d.opts.Submit = s
}

// MountStage mounts the puzzle role works on at level, with host-generated data if any.
func (d *Dispatcher) MountStage(role stage.Role, level int, data []byte) (puzzle.Widget, error) {
	return d.Mount(puzzle.Config{
		Type:       puzzle.Type(stage.Key(role, level)),
		Difficulty: puzzle.ClampDifficulty(level),
		Data:       data,
	})
}

func (d *Dispatcher) mountError(cause error) puzzle.Widget {
	w := NewErrorWidget(d.surface, cause, d.opts)
	// An error widget has no configuration to reject.
	_ = w.Initialize()
	d.active = w
	return w
}

// Active returns the mounted widget, or nil.
func (d *Dispatcher) Active() puzzle.Widget { return d.active }

// ShowSuccess forwards to the active widget.
func (d *Dispatcher) ShowSuccess() {
	if d.active != nil {
		d.active.ShowSuccess()
	}
}

// HandleRandomEvent forwards to the active widget.
func (d *Dispatcher) HandleRandomEvent(ev puzzle.EventType, dur time.Duration) {
	if d.active != nil {
		d.active.HandleRandomEvent(ev, dur)
	}
}

// DisableInteraction forwards to the active widget.
func (d *Dispatcher) DisableInteraction(disabled bool) {
	if d.active != nil {
		d.active.DisableInteraction(disabled)
	}
}

// HandleIntent forwards player input to the active widget.
func (d *Dispatcher) HandleIntent(in input.Intent) error {
	if d.active == nil {
		return ErrNoWidget
	}
	return d.active.HandleIntent(in)
}

// UsePower applies the Safe Cracker's bypass to the active widget.
func (d *Dispatcher) UsePower() error {
	if d.active == nil {
		return ErrNoWidget
	}
	b, ok := d.active.(puzzle.Bypasser)
	if !ok {
		return fmt.Errorf("%w: %s has nothing to bypass", puzzle.ErrUnsupported, d.active.Type())
	}
	return b.Bypass()
}

// Cleanup tears down the active widget.
func (d *Dispatcher) Cleanup() {
	if d.active == nil {
		return
	}
	d.active.Cleanup()
	d.active = nil
}
