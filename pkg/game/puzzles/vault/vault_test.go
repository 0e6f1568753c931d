package vault

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzle/puzzletest"
	"heist/pkg/game/stage"
	"heist/pkg/game/state"
)

// calm is a vault with no alarms.
func calm() Target {
	return Target{Sections: []int{25, 70, 3}, Seconds: 60, Penalty: 10, AlarmSeconds: 3}
}

func mount(t *testing.T, h *puzzletest.Harness, target Target, opts puzzle.Options) *Widget {
	t.Helper()
	data, err := json.Marshal(target)
	require.NoError(t, err)
	w := New(h.Surface, puzzle.Config{Difficulty: 3, Data: data}, opts)
	require.NoError(t, w.Initialize())
	return w
}

func open(t *testing.T, w *Widget, v int) {
	t.Helper()
	require.NoError(t, w.SetDial(v))
	require.NoError(t, w.Confirm())
}

func TestApplyPenalty(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		penalty   time.Duration
		want      time.Duration
	}{
		{"exact", 60 * time.Second, 10 * time.Second, 50 * time.Second},
		{"floored", 5 * time.Second, 10 * time.Second, time.Second},
		{"at floor", time.Second, 10 * time.Second, time.Second},
		{"never raises", 500 * time.Millisecond, 10 * time.Second, 500 * time.Millisecond},
		{"zero penalty", 30 * time.Second, 0, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyPenalty(tt.remaining, tt.penalty)
			if got != tt.want {
				t.Errorf("got = %v, want %v", got, tt.want)
			}
			if got > tt.remaining {
				t.Errorf("penalty raised remaining from %v to %v", tt.remaining, got)
			}
		})
	}
}

func TestGenerate_ScalesPressure(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	easy, hard := Generate(rng, 1), Generate(rng, 5)
	require.NoError(t, easy.Validate())
	require.NoError(t, hard.Validate())
	assert.Greater(t, easy.Seconds, hard.Seconds)
	assert.Less(t, easy.Penalty, hard.Penalty)
	assert.Len(t, easy.Sections, SectionCount(1))
	assert.Len(t, hard.Sections, SectionCount(5))
}

func TestWidget_CountdownRuns(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())
	require.Equal(t, []time.Duration{60 * time.Second}, h.Countdowns)

	h.Advance(3 * time.Second)
	assert.Equal(t, 57*time.Second, w.Remaining())
	assert.Equal(t, 57*time.Second, h.View().Remaining)
}

func TestWidget_WrongPositionCostsExactlyPenalty(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())
	h.Advance(5 * time.Second)

	open(t, w, 24)
	assert.Equal(t, 45*time.Second, w.Remaining())
	assert.Equal(t, 0, w.Section())
	assert.Equal(t, "Wrong position. -10s", h.LastMessage())
	assert.Equal(t, 45*time.Second, h.Countdowns[len(h.Countdowns)-1], "host countdown follows the penalty")
}

func TestWidget_PenaltyFloorsAtOneSecond(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())
	h.Advance(55 * time.Second)

	open(t, w, 99)
	assert.Equal(t, time.Second, w.Remaining())
	open(t, w, 99)
	assert.Equal(t, time.Second, w.Remaining())
	assert.Equal(t, 1, w.Attempt())
}

func TestWidget_SectionsInOrderComplete(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())

	open(t, w, 25)
	assert.Equal(t, 1, w.Section())
	assert.Equal(t, "Section 1 open.", h.LastMessage())
	open(t, w, 70)
	open(t, w, 3)

	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Equal(t, 1, h.Successes)
	assert.Equal(t, 1, h.Disables)
	assert.Equal(t, 0, h.Clock.Pending(), "countdown stops on success")
}

func TestWidget_TimeoutStartsFreshAttempt(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())
	open(t, w, 25)

	h.Advance(60 * time.Second)
	assert.Equal(t, 2, w.Attempt())
	assert.Equal(t, 0, w.Section())
	assert.Equal(t, 60*time.Second, w.Remaining())
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.Equal(t, "Time's up! The vault has reset.", h.LastMessage())

	open(t, w, 25)
	open(t, w, 70)
	open(t, w, 3)
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
}

func TestWidget_StaleHostCountdownIgnored(t *testing.T) {
	h := puzzletest.New(1)
	var expiries []func()
	opts := h.Options()
	opts.Host = puzzle.HostFuncs{OnCountdown: func(_ time.Duration, onExpire func()) {
		expiries = append(expiries, onExpire)
	}}
	w := mount(t, h, calm(), opts)
	h.Advance(60 * time.Second)
	require.Equal(t, 2, w.Attempt())

	expiries[0]()
	h.Flush()
	assert.Equal(t, 2, w.Attempt())

	expiries[len(expiries)-1]()
	h.Flush()
	assert.Equal(t, 3, w.Attempt())
}

func TestWidget_AlarmOnError(t *testing.T) {
	h := puzzletest.New(1)
	target := calm()
	target.AlarmOnError = true
	w := mount(t, h, target, h.Options())

	open(t, w, 1)
	assert.Equal(t, puzzle.PhaseLockedByEvent, w.Phase())
	assert.Equal(t, puzzle.EventAlarm, w.Event())
	assert.Equal(t, 1, w.Alarms())
	assert.ErrorIs(t, w.Confirm(), puzzle.ErrLocked)

	h.Advance(target.AlarmDuration())
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.Equal(t, 47*time.Second, w.Remaining(), "the clock keeps running through the alarm")
}

func TestWidget_AlarmOnRotation(t *testing.T) {
	h := puzzletest.New(1)
	target := calm()
	target.AlarmChance = 1
	w := mount(t, h, target, h.Options())

	require.NoError(t, w.Rotate(1))
	assert.Equal(t, puzzle.PhaseLockedByEvent, w.Phase())
	assert.ErrorIs(t, w.Rotate(1), puzzle.ErrLocked)
	assert.Equal(t, 1, w.Dial())
}

func TestWidget_NoAlarmWithoutChance(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())
	for i := 0; i < 200; i++ {
		require.NoError(t, w.Rotate(1))
	}
	assert.Equal(t, 0, w.Alarms())
	assert.Equal(t, 0, w.Dial())
}

func TestWidget_IntentEntry(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())

	require.NoError(t, w.HandleIntent(input.Intent{Action: input.ActionCursorUp}))
	require.NoError(t, w.HandleIntent(input.Intent{Action: input.ActionCursorUp}))
	for i := 0; i < 5; i++ {
		require.NoError(t, w.HandleIntent(input.Intent{Action: input.ActionIncrease}))
	}
	assert.Equal(t, 25, w.Dial())
	require.NoError(t, w.HandleIntent(input.Intent{Action: input.ActionSubmit}))
	assert.Equal(t, 1, w.Section())

	require.NoError(t, w.HandleIntent(input.Entry("70")))
	assert.Equal(t, 2, w.Section())
	assert.ErrorIs(t, w.HandleIntent(input.Entry("abc")), puzzle.ErrInvalidInput)
}

func TestWidget_RemoteRejectRestartsAttempt(t *testing.T) {
	h := puzzletest.New(1)
	target := calm()
	w := mount(t, h, target, h.Remote(func(p any) (bool, error) {
		return false, nil
	}))
	open(t, w, 25)
	open(t, w, 70)
	open(t, w, 3)
	require.True(t, w.Pending())
	assert.Equal(t, Payload{Positions: []int{25, 70, 3}}, h.Submissions[0])

	h.Flush()
	assert.Equal(t, puzzle.PhaseActive, w.Phase())
	assert.Equal(t, 2, w.Attempt())
	assert.Equal(t, 0, w.Section())
}

func TestWidget_RejectReopensSubmitForRetry(t *testing.T) {
	h := puzzletest.New(1)
	session := state.NewSession(stage.SafeCracker, h.Clock)
	verdicts := []bool{false, true}
	opts := h.Remote(func(any) (bool, error) {
		v := verdicts[0]
		verdicts = verdicts[1:]
		return v, nil
	})
	opts.Host = session
	w := mount(t, h, calm(), opts)

	open(t, w, 25)
	open(t, w, 70)
	open(t, w, 3)
	require.True(t, w.Pending())
	assert.True(t, session.SubmitDisabled, "submissions close while the answer is checked")

	h.Flush()
	assert.Equal(t, 2, w.Attempt())
	assert.False(t, session.SubmitDisabled, "a rejected answer opens a fresh attempt")
	assert.Greater(t, session.Countdown(), time.Duration(0))

	open(t, w, 25)
	open(t, w, 70)
	open(t, w, 3)
	h.Flush()
	assert.Equal(t, puzzle.PhaseCompleted, w.Phase())
	assert.Len(t, h.Submissions, 2)
}

func TestWidget_EveryAttemptEnablesSubmit(t *testing.T) {
	h := puzzletest.New(1)
	w := mount(t, h, calm(), h.Options())
	assert.Equal(t, 1, h.Enables)

	h.Advance(60 * time.Second)
	assert.Equal(t, 2, w.Attempt())
	assert.Equal(t, 2, h.Enables)
}

func TestWidget_CleanupStopsCountdown(t *testing.T) {
	h := puzzletest.New(1)
	target := calm()
	target.AlarmOnError = true
	w := mount(t, h, target, h.Options())
	open(t, w, 1)

	w.Cleanup()
	assert.Equal(t, 0, h.Clock.Pending())
	before := w.Remaining()
	h.Advance(time.Minute)
	assert.Equal(t, before, w.Remaining())
}
