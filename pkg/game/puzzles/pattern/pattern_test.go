package pattern

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/engine/input"
	"heist/pkg/engine/world"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzle/puzzletest"
	"heist/pkg/game/renderer"
)

func newPattern(t *testing.T, h *puzzletest.Harness, walk bool, difficulty int, target Target) *Widget {
	t.Helper()
	data, err := json.Marshal(target)
	require.NoError(t, err)
	cfg := puzzle.Config{Difficulty: difficulty, Data: data}
	var w *Widget
	if walk {
		w = NewWalk(h.Surface, cfg, h.Options())
	} else {
		w = New(h.Surface, cfg, h.Options())
	}
	require.NoError(t, w.Initialize())
	return w
}

func TestGenerate_NoImmediateRepeats(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for d := 1; d <= 5; d++ {
		for n := 0; n < 50; n++ {
			target := Generate(rng, d)
			require.NoError(t, target.Validate())
			assert.Len(t, target.Sequence, Length(d))
			for i := 1; i < len(target.Sequence); i++ {
				if target.Sequence[i] == target.Sequence[i-1] {
					t.Fatalf("difficulty %d: immediate repeat at %d in %v", d, i, target.Sequence)
				}
			}
		}
	}
}

func TestGenerateWalk_StartsOnEdgeAndMostlyAdjacent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	adjacent, steps := 0, 0
	for n := 0; n < 200; n++ {
		target := GenerateWalk(rng, 5)
		require.NoError(t, target.Validate())
		g := world.MustGrid(target.Size, target.Size)
		first := g.CellAt(target.Sequence[0])
		assert.True(t, g.IsOnPerimeter(first.Row, first.Col), "walk must start on the edge")
		for i := 1; i < len(target.Sequence); i++ {
			prev := g.CellAt(target.Sequence[i-1])
			cur := g.CellAt(target.Sequence[i])
			require.NotEqual(t, prev, cur)
			steps++
			if prev.IsAdjacent(cur) {
				adjacent++
			}
		}
	}
	assert.Greater(t, float64(adjacent)/float64(steps), 0.7)
}

func TestGridSizeAndLength(t *testing.T) {
	assert.Equal(t, 3, GridSize(1))
	assert.Equal(t, 4, GridSize(2))
	assert.Equal(t, 4, GridSize(3))
	assert.Equal(t, 5, GridSize(5))
	assert.Equal(t, 4, Length(1))
	assert.Equal(t, 10, Length(5))
}

func TestWidget_InputRefusedWhileShowing(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 1, Target{Size: 3, Sequence: []int{0, 4, 8, 2}})

	assert.True(t, w.Showing())
	assert.ErrorIs(t, w.Choose(0), ErrShowing)
	assert.ErrorIs(t, w.Choose(0), puzzle.ErrBusy)
	assert.Empty(t, w.Entry())

	h.Advance(w.RevealDuration())
	assert.False(t, w.Showing())
	assert.NoError(t, w.Choose(0))
}

func TestWidget_RevealLightsEachCellInOrder(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 1, Target{Size: 3, Sequence: []int{0, 4, 8, 2}})
	h.Advance(w.RevealDuration())

	reveals := 0
	for _, c := range h.Audio.Cues() {
		if c == renderer.CueReveal {
			reveals++
		}
	}
	assert.Equal(t, 4, reveals)
	assert.Equal(t, "Your turn. Repeat the pattern.", h.LastMessage())
}

func TestWidget_EventDuringRevealReplaysIt(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 1, Target{Size: 3, Sequence: []int{0, 4, 8, 2}})
	lit, _ := flashTiming(w.Difficulty())
	h.Advance(leadIn + lit/2)
	require.Equal(t, 0, w.lit, "first cell is lit")

	w.HandleRandomEvent(puzzle.EventSecurityPatrol, 2*time.Second)
	assert.Equal(t, -1, w.lit, "reveal stops during the event")
	h.Advance(time.Second)
	assert.Equal(t, -1, w.lit)
	assert.True(t, w.Showing())

	before := len(h.Audio.Cues())
	h.Advance(time.Second)
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.True(t, w.Showing(), "reveal starts over when the event ends")
	assert.ErrorIs(t, w.Choose(0), ErrShowing)

	h.Advance(w.RevealDuration())
	reveals := 0
	for _, c := range h.Audio.Cues()[before:] {
		if c == renderer.CueReveal {
			reveals++
		}
	}
	assert.Equal(t, 4, reveals, "every cell is shown again")
	assert.False(t, w.Showing())
	assert.NoError(t, w.Choose(0))
}

func TestWidget_EventAfterRevealDoesNotReplay(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 1, Target{Size: 3, Sequence: []int{0, 4, 8, 2}})
	h.Advance(w.RevealDuration())
	require.NoError(t, w.Choose(0))

	w.HandleRandomEvent(puzzle.EventCameraSweep, time.Second)
	h.Advance(time.Second)
	assert.False(t, w.Showing())
	assert.Equal(t, []int{0}, w.Entry(), "entry survives the event")
}

func TestWidget_FreeVariantScoresAtEnd(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 2, Target{Size: 4, Sequence: []int{2, 6, 9, 13, 1}})
	h.Advance(w.RevealDuration())

	for _, c := range []int{2, 6, 9, 13} {
		require.NoError(t, w.Choose(c))
		assert.False(t, w.Showing(), "no failure before the entry is complete")
	}
	require.NoError(t, w.Choose(5))

	assert.Equal(t, "Incorrect pattern. Watch again.", h.LastMessage())
	assert.True(t, w.Showing(), "sequence replays after a failure")
	assert.Empty(t, w.Entry())
	assert.Equal(t, puzzle.PhaseActive, w.Phase())

	h.Advance(w.RevealDuration())
	for _, c := range []int{2, 6, 9, 13, 1} {
		require.NoError(t, w.Choose(c))
	}
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, 1, h.Successes)
}

func TestWidget_FreeVariantWrongEarlyStillWaitsForFullEntry(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 2, Target{Size: 4, Sequence: []int{2, 6, 9, 13, 1}})
	h.Advance(w.RevealDuration())

	require.NoError(t, w.Choose(3))
	assert.False(t, w.Showing())
	assert.Equal(t, []int{3}, w.Entry())
}

func TestWidget_WalkVariantFailsFast(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, true, 1, Target{Size: 3, Sequence: []int{0, 1, 4, 5}})
	h.Advance(w.RevealDuration())

	require.NoError(t, w.Choose(0))
	require.NoError(t, w.Choose(3))
	assert.True(t, w.Showing(), "first wrong click resets and replays")
	assert.Empty(t, w.Entry())

	h.Advance(w.RevealDuration())
	for _, c := range []int{0, 1, 4, 5} {
		require.NoError(t, w.Choose(c))
	}
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
}

func TestWidget_CursorSelection(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 1, Target{Size: 3, Sequence: []int{4, 5, 8, 7}})
	h.Advance(w.RevealDuration())

	moves := []input.Action{
		input.ActionCursorDown, input.ActionCursorRight, input.ActionSelect, // 4
		input.ActionCursorRight, input.ActionSelect, // 5
		input.ActionCursorDown, input.ActionSelect, // 8
		input.ActionCursorLeft, input.ActionSelect, // 7
	}
	for _, a := range moves {
		require.NoError(t, w.HandleIntent(input.Intent{Action: a}))
	}
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
}

func TestWidget_CleanupStopsReveal(t *testing.T) {
	h := puzzletest.New(1)
	w := newPattern(t, h, false, 3, Target{Size: 4, Sequence: []int{0, 1, 2, 3, 4, 5, 6}})
	draws := h.Surface.Count()
	w.Cleanup()
	h.Advance(w.RevealDuration())
	assert.Equal(t, draws, h.Surface.Count())
	assert.Equal(t, 0, h.Clock.Pending())
}

func TestWidget_RemoteReplaysOnReject(t *testing.T) {
	h := puzzletest.New(1)
	target := Target{Size: 3, Sequence: []int{0, 4, 8, 2}}
	data, _ := json.Marshal(target)
	w := New(h.Surface, puzzle.Config{Difficulty: 1, Data: data}, h.Remote(func(p any) (bool, error) {
		return Verify(target, p.(Payload)), nil
	}))
	require.NoError(t, w.Initialize())
	h.Advance(w.RevealDuration())

	for _, c := range []int{0, 4, 8, 1} {
		require.NoError(t, w.Choose(c))
	}
	h.Flush()
	assert.True(t, w.Showing())

	h.Advance(w.RevealDuration())
	for _, c := range target.Sequence {
		require.NoError(t, w.Choose(c))
	}
	h.Flush()
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
}

func TestFirstMismatch(t *testing.T) {
	assert.Equal(t, -1, FirstMismatch([]int{1, 2, 3}, []int{1, 2}))
	assert.Equal(t, 1, FirstMismatch([]int{1, 2, 3}, []int{1, 3}))
	assert.Equal(t, 3, FirstMismatch([]int{1, 2, 3}, []int{1, 2, 3, 4}))
}
