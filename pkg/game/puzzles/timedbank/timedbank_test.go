package timedbank

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzle/puzzletest"
)

func mount(t *testing.T, h *puzzletest.Harness, target Target, opts puzzle.Options) *Widget {
	t.Helper()
	data, err := json.Marshal(target)
	require.NoError(t, err)
	w := New(h.Surface, puzzle.Config{Difficulty: 2, Data: data}, opts)
	require.NoError(t, w.Initialize())
	return w
}

func fixed() Target {
	return Target{Pool: PoolSize, Order: []int{4, 1, 5, 0}}
}

func pick(t *testing.T, h *puzzletest.Harness, w *Widget, i int) {
	t.Helper()
	require.NoError(t, w.Select(i))
	h.Advance(LockTime(w.Difficulty()))
}

func TestGenerate_DistinctOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for d := 1; d <= 5; d++ {
		target := Generate(rng, d)
		require.NoError(t, target.Validate())
		assert.Len(t, target.Order, Length(d))
	}
	assert.Error(t, Target{Pool: 6, Order: []int{1, 1}}.Validate())
	assert.Error(t, Target{Pool: 6, Order: []int{6}}.Validate())
}

func TestTiming_ScalesWithDifficulty(t *testing.T) {
	assert.Greater(t, RerollInterval(1), RerollInterval(5))
	assert.Less(t, LockTime(1), LockTime(5))
}

func TestWidget_CorrectOrderCompletes(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())

	for n, e := range fixed().Order {
		pick(t, h, w, e)
		assert.Equal(t, n+1, w.Progress())
		assert.True(t, w.Locked(e))
	}
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, 1, h.Successes)
	assert.Equal(t, 0, h.Clock.Pending(), "flicker stops on success")
}

func TestWidget_HoldBlocksInput(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())

	require.NoError(t, w.Select(4))
	assert.Equal(t, 4, w.Holding())
	assert.False(t, w.Locked(4), "still provisional")
	assert.ErrorIs(t, w.Select(1), ErrHolding)
	assert.ErrorIs(t, w.Select(1), puzzle.ErrBusy)

	h.Advance(LockTime(w.Difficulty()))
	assert.True(t, w.Locked(4))
	assert.Equal(t, -1, w.Holding())
}

func TestWidget_WrongPickResetsProgress(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())

	pick(t, h, w, 4)
	pick(t, h, w, 1)
	require.NoError(t, w.Select(3))

	assert.Equal(t, 0, w.Progress())
	assert.False(t, w.Locked(4))
	assert.False(t, w.Locked(1))
	assert.Equal(t, "Wrong element. Sequence reset.", h.LastMessage())
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
}

func TestWidget_LockedElementRejected(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())
	pick(t, h, w, 4)
	assert.ErrorIs(t, w.Select(4), puzzle.ErrInvalidInput)
	assert.Equal(t, 1, w.Progress())
}

func TestWidget_UnselectedElementsFlicker(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())
	pick(t, h, w, 4)

	before := w.Values()
	// Every element ticks once within interval plus the maximum jitter.
	h.Advance(RerollInterval(w.Difficulty()) * 7 / 5)
	after := w.Values()

	for i := range before {
		if i == 4 {
			assert.Equal(t, before[i], after[i], "locked element is frozen")
			continue
		}
		assert.NotEqual(t, before[i], after[i], "element %d", i)
	}
}

func TestWidget_EventCancelsHold(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())

	require.NoError(t, w.Select(4))
	w.HandleRandomEvent(puzzle.EventCameraSweep, LockTime(w.Difficulty())/2)
	assert.Equal(t, -1, w.Holding())

	h.Advance(LockTime(w.Difficulty()))
	assert.False(t, w.Locked(4))
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	pick(t, h, w, 4)
	assert.True(t, w.Locked(4))
}

func TestWidget_IntentsPickByDigit(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())
	for _, e := range fixed().Order {
		require.NoError(t, w.HandleIntent(input.Intent{Action: input.ActionDigit, Value: e + 1}))
		h.Advance(LockTime(w.Difficulty()))
	}
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
}

func TestWidget_RemoteRejectResets(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Remote(func(any) (bool, error) { return false, nil }))
	for _, e := range fixed().Order {
		pick(t, h, w, e)
	}
	h.Flush()
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.Equal(t, 0, w.Progress())
	assert.Equal(t, "Incorrect solution. Try again.", h.LastMessage())
	assert.Equal(t, Payload{Sequence: fixed().Order}, h.Submissions[0])
}

func TestWidget_CleanupStopsFlicker(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, fixed(), h.Options())
	require.NoError(t, w.Select(4))
	draws := h.Surface.Count()

	w.Cleanup()
	h.Advance(RerollInterval(w.Difficulty()) * 3)
	assert.Equal(t, draws, h.Surface.Count())
	assert.Equal(t, 0, h.Clock.Pending())
	assert.False(t, w.Locked(4))
}
