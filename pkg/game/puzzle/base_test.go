package puzzle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzle/puzzletest"
	"heist/pkg/game/renderer"
)

// toggle is the smallest possible widget: one submit solves it locally or remotely.
type toggle struct {
	*puzzle.Base
	rejected int
}

func newToggle(cfg puzzle.Config, opts puzzle.Options, h *puzzletest.Harness) *toggle {
	return &toggle{Base: puzzle.NewBase("toggle", h.Surface, cfg, opts)}
}

func (w *toggle) Initialize() error {
	if err := w.Begin(puzzle.Hooks{Title: "Toggle"}); err != nil {
		return err
	}
	w.Activate()
	return nil
}

func (w *toggle) HandleIntent(in input.Intent) error {
	if err := w.Accepting(); err != nil {
		return err
	}
	if in.Action != input.ActionSubmit {
		return puzzle.ErrUnsupported
	}
	if w.Remote() {
		w.Submit("on", func() { w.rejected++ })
		return nil
	}
	w.Succeed()
	return nil
}

var _ puzzle.Widget = (*toggle)(nil)

func submit() input.Intent { return input.Intent{Action: input.ActionSubmit} }

func TestBase_LifecyclePhases(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 1}, h.Options(), h)

	assert.Equal(t, puzzle.PhaseInitializing, w.Phase())
	assert.ErrorIs(t, w.HandleIntent(submit()), puzzle.ErrNotInitialized)

	require.NoError(t, w.Initialize())
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.ErrorIs(t, w.Initialize(), puzzle.ErrAlreadyInitialized)

	require.NoError(t, w.HandleIntent(submit()))
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, 1, h.Successes)
	assert.True(t, h.Audio.Played(renderer.CueSuccess))

	assert.ErrorIs(t, w.HandleIntent(submit()), puzzle.ErrCompleted)
	w.ShowSuccess()
	assert.Equal(t, 1, h.Successes, "host must be notified once")
}

func TestBase_InvalidDifficulty(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 9}, h.Options(), h)
	assert.ErrorIs(t, w.Initialize(), puzzle.ErrInvalidConfig)
}

func TestBase_RandomEventLocksThenRestores(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Options(), h)
	require.NoError(t, w.Initialize())

	w.HandleRandomEvent(puzzle.EventCameraSweep, 5*time.Second)
	assert.Equal(t, puzzle.PhaseLockedByEvent, w.Phase())
	assert.Equal(t, puzzle.EventCameraSweep, h.View().Event)
	assert.ErrorIs(t, w.HandleIntent(submit()), puzzle.ErrLocked)

	h.Advance(4 * time.Second)
	assert.Equal(t, puzzle.PhaseLockedByEvent, w.Phase())
	h.Advance(time.Second)
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.NoError(t, w.HandleIntent(submit()))
}

func TestBase_SecondEventReplacesDeadline(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Options(), h)
	require.NoError(t, w.Initialize())

	w.HandleRandomEvent(puzzle.EventSecurityPatrol, 5*time.Second)
	h.Advance(3 * time.Second)
	w.HandleRandomEvent(puzzle.EventSystemCheck, 5*time.Second)
	h.Advance(3 * time.Second)
	assert.Equal(t, puzzle.PhaseLockedByEvent, w.Phase())
	h.Advance(2 * time.Second)
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
}

func TestBase_EventIgnoredWhenCompleted(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Options(), h)
	require.NoError(t, w.Initialize())
	w.ShowSuccess()

	w.HandleRandomEvent(puzzle.EventSecurityPatrol, 5*time.Second)
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, 0, w.Group().Pending())
}

func TestBase_CleanupCancelsPendingRestore(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Options(), h)
	require.NoError(t, w.Initialize())
	w.HandleRandomEvent(puzzle.EventSecurityPatrol, 5*time.Second)
	draws := h.Surface.Count()

	w.Cleanup()
	w.Cleanup()
	h.Advance(10 * time.Second)

	assert.Equal(t, puzzle.PhaseLockedByEvent, w.Phase(), "no callback may touch a cleaned up widget")
	assert.Equal(t, draws, h.Surface.Count())
	assert.ErrorIs(t, w.HandleIntent(submit()), puzzle.ErrClosed)
	assert.ErrorIs(t, w.Initialize(), puzzle.ErrClosed)
}

func TestBase_DisableInteraction(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Options(), h)
	require.NoError(t, w.Initialize())

	w.DisableInteraction(true)
	assert.Equal(t, puzzle.PhaseActive, w.Phase(), "disabling is independent of the phase")
	assert.ErrorIs(t, w.HandleIntent(submit()), puzzle.ErrDisabled)
	assert.True(t, h.View().Disabled)

	w.DisableInteraction(false)
	assert.NoError(t, w.HandleIntent(submit()))
}

func TestBase_RemoteAccepted(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Remote(func(any) (bool, error) { return true, nil }), h)
	require.NoError(t, w.Initialize())

	require.NoError(t, w.HandleIntent(submit()))
	assert.True(t, w.Pending())
	assert.ErrorIs(t, w.HandleIntent(submit()), puzzle.ErrBusy)

	h.Flush()
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, []any{"on"}, h.Submissions)
	assert.Equal(t, 1, h.Successes)
}

func TestBase_RemoteRejectedReenablesInput(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Remote(func(any) (bool, error) { return false, nil }), h)
	require.NoError(t, w.Initialize())

	require.NoError(t, w.HandleIntent(submit()))
	h.Flush()

	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.False(t, w.Pending())
	assert.Equal(t, 1, w.rejected)
	assert.Equal(t, "Incorrect solution. Try again.", h.LastMessage())
	assert.Equal(t, 1, h.Logs.FilterMessage("solution rejected").Len())
	assert.NoError(t, w.HandleIntent(submit()))
}

func TestBase_RemoteTransportFailureLoggedDistinctly(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Remote(func(any) (bool, error) { return false, puzzletest.ErrTransport }), h)
	require.NoError(t, w.Initialize())

	require.NoError(t, w.HandleIntent(submit()))
	h.Flush()

	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.Equal(t, 1, w.rejected)
	assert.Equal(t, 1, h.Logs.FilterMessage("solution submission failed").Len())
	assert.Equal(t, 0, h.Logs.FilterMessage("solution rejected").Len())
}

func TestBase_RemoteResultAfterCleanupDropped(t *testing.T) {
	h := puzzletest.New(1)
	w := newToggle(puzzle.Config{Difficulty: 2}, h.Remote(func(any) (bool, error) { return true, nil }), h)
	require.NoError(t, w.Initialize())

	require.NoError(t, w.HandleIntent(submit()))
	w.Cleanup()
	h.Flush()

	assert.NotEqual(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, 0, h.Successes)
}
