package gameplay

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	engineinput "heist/pkg/engine/input"
	"heist/pkg/engine/sched"
	"heist/pkg/game/config"
	"heist/pkg/game/dispatch"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzles"
	"heist/pkg/game/puzzles/combination"
	"heist/pkg/game/renderer/record"
	"heist/pkg/game/stage"
	"heist/pkg/game/state"
	"heist/pkg/protocol"
)

type fakeRemote struct {
	sent  []string
	mount []protocol.PuzzleData
}

func (f *fakeRemote) Send(typ string, _ any) error {
	f.sent = append(f.sent, typ)
	return nil
}

func (f *fakeRemote) Submitter(msg protocol.PuzzleData) puzzle.Submitter {
	f.mount = append(f.mount, msg)
	return func(context.Context, any) (bool, error) { return true, nil }
}

type harness struct {
	game    *Game
	clock   *sched.Manual
	session *state.Session
	disp    *dispatch.Dispatcher
	results []Result
}

func newHarness(t *testing.T, role stage.Role, remote Remote, mutate func(*config.Game)) *harness {
	t.Helper()
	clock := sched.NewManual()
	session := state.NewSession(role, clock)
	rng := rand.New(rand.NewSource(1))
	disp := dispatch.New(puzzles.NewRegistry(), &record.Surface{}, puzzle.Options{
		Host:      session,
		Audio:     &record.Audio{},
		Scheduler: clock,
		Rand:      rng,
		Logger:    zap.NewNop(),
	})
	tune := config.Default().Game
	tune.EventChance = 0
	tune.EventAlertStep = 0
	if mutate != nil {
		mutate(&tune)
	}

	h := &harness{clock: clock, session: session, disp: disp}
	opts := Options{
		Session:      session,
		Dispatcher:   disp,
		Scheduler:    clock,
		Tune:         tune,
		Rand:         rng,
		Logger:       zap.NewNop(),
		PlayerID:     "p1",
		OnFinish:     func(r Result) { h.results = append(h.results, r) },
		AdvanceDelay: time.Second,
	}
	if remote != nil {
		opts.Remote = remote
	}
	h.game = New(opts)
	t.Cleanup(h.game.Stop)
	return h
}

func frame(t *testing.T, typ string, payload any) protocol.Envelope {
	t.Helper()
	data, err := protocol.Encode(typ, payload)
	require.NoError(t, err)
	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func combinationConfig(t *testing.T, digits ...int) puzzle.Config {
	t.Helper()
	data, err := json.Marshal(combination.Target{Combination: digits})
	require.NoError(t, err)
	return puzzle.Config{Type: puzzle.TypeCombination, Difficulty: 1, Data: data}
}

func difficulty(t *testing.T, w puzzle.Widget) int {
	t.Helper()
	c, ok := w.(interface{ Config() puzzle.Config })
	require.True(t, ok)
	return c.Config().Difficulty
}

func TestStart_MountsFirstStage(t *testing.T) {
	h := newHarness(t, stage.SafeCracker, nil, nil)
	h.game.Start()

	require.NotNil(t, h.disp.Active())
	assert.Equal(t, puzzle.TypeCombination, h.disp.Active().Type())
	assert.Equal(t, 300*time.Second, h.session.GameTimer)

	h.clock.Advance(2 * time.Second)
	assert.Equal(t, 298*time.Second, h.session.GameTimer)
}

func TestSolo_AdvanceAddsStageBonus(t *testing.T) {
	h := newHarness(t, stage.Hacker, nil, nil)
	h.game.Start()

	h.session.ShowSuccess()
	assert.Equal(t, 1, h.session.Level, "advance waits for the delay")

	h.clock.Advance(time.Second)
	assert.Equal(t, 2, h.session.Level)
	assert.Equal(t, 539*time.Second, h.session.GameTimer)
	assert.Equal(t, puzzle.TypePattern, h.disp.Active().Type())
	assert.True(t, h.session.HasSolved(puzzle.TypePattern))
}

func TestSolo_WinsAfterVault(t *testing.T) {
	h := newHarness(t, stage.SafeCracker, nil, nil)
	h.game.Start()

	for level := 1; level <= stage.TotalStages; level++ {
		require.Equal(t, level, h.session.Level)
		h.session.ShowSuccess()
		h.clock.Advance(time.Second)
	}
	assert.Equal(t, ResultWon, h.game.Result())
	assert.Equal(t, []Result{ResultWon}, h.results)
	assert.Equal(t, 1, h.game.profile.Get(puzzle.TypeVault).Heists)
	assert.Equal(t, 1, h.game.profile.Get(puzzle.TypeCombination).Solves)
}

func TestSolo_TimerExpiryLoses(t *testing.T) {
	h := newHarness(t, stage.Hacker, nil, func(g *config.Game) { g.InitialTimer = 3 * time.Second })
	h.game.Start()

	h.clock.Advance(3 * time.Second)
	assert.Equal(t, ResultLost, h.game.Result())
	assert.Equal(t, []Result{ResultLost}, h.results)

	h.clock.Advance(5 * time.Second)
	assert.Len(t, h.results, 1)
	assert.Zero(t, h.session.GameTimer)

	h.game.ProcessIntent(engineinput.Intent{Action: engineinput.ActionHint})
	last, _ := h.session.LastMessage()
	assert.NotEqual(t, Hint(puzzle.TypePattern), last.Text, "input is ignored after the end")
}

func TestPowers_Solo(t *testing.T) {
	t.Run("hacker", func(t *testing.T) {
		h := newHarness(t, stage.Hacker, nil, nil)
		h.game.Start()
		require.NoError(t, h.game.UsePower())
		assert.Equal(t, 330*time.Second, h.session.GameTimer)
		assert.ErrorIs(t, h.game.UsePower(), ErrPowerUsed)
	})

	t.Run("safe cracker without a bank", func(t *testing.T) {
		h := newHarness(t, stage.SafeCracker, nil, nil)
		h.game.Start()
		assert.ErrorIs(t, h.game.UsePower(), puzzle.ErrUnsupported)
		assert.False(t, h.game.powerUsed)
	})

	t.Run("demolitions shortcut", func(t *testing.T) {
		h := newHarness(t, stage.Demolitions, nil, nil)
		h.game.Start()
		require.NoError(t, h.game.UsePower())
		h.session.ShowSuccess()
		h.clock.Advance(time.Second)
		require.Equal(t, 2, h.session.Level)
		assert.Equal(t, 1, difficulty(t, h.disp.Active()))
		require.NoError(t, h.game.UsePower(), "powers reset every stage")
	})

	t.Run("lookout warns before events", func(t *testing.T) {
		h := newHarness(t, stage.Lookout, nil, func(g *config.Game) { g.EventChance = 1 })
		h.game.Start()
		require.NoError(t, h.game.UsePower())

		h.clock.Advance(30 * time.Second)
		last, _ := h.session.LastMessage()
		assert.Contains(t, last.Text, "Lookout")
		assert.Equal(t, puzzle.PhaseActive, h.disp.Active().Phase())

		h.clock.Advance(5 * time.Second)
		assert.Equal(t, puzzle.PhaseLockedByEvent, h.disp.Active().Phase())
	})
}

func TestProcessIntent(t *testing.T) {
	h := newHarness(t, stage.SafeCracker, nil, nil)
	h.game.Start()

	h.game.ProcessIntent(engineinput.Intent{Action: engineinput.ActionHint})
	last, _ := h.session.LastMessage()
	assert.Equal(t, Hint(puzzle.TypeCombination), last.Text)

	h.game.ProcessIntent(engineinput.Entry("not numbers"))
	assert.Equal(t, ResultNone, h.game.Result())

	h.game.ProcessIntent(engineinput.Intent{Action: engineinput.ActionQuit})
	assert.Equal(t, ResultQuit, h.game.Result())
	w, ok := h.disp.Active().(interface{ Disabled() bool })
	require.True(t, ok)
	assert.True(t, w.Disabled())
}

func TestProcessIntent_SubmitClosedWhileVerifying(t *testing.T) {
	h := newHarness(t, stage.SafeCracker, nil, nil)
	h.game.Start()

	h.session.DisableSubmit()
	h.game.ProcessIntent(engineinput.Entry("1 2 3"))
	last, _ := h.session.LastMessage()
	assert.Equal(t, "Answer sent. Waiting for the verdict.", last.Text)

	// Other input is still handled.
	h.game.ProcessIntent(engineinput.Intent{Action: engineinput.ActionHint})
	last, _ = h.session.LastMessage()
	assert.Equal(t, Hint(puzzle.TypeCombination), last.Text)

	h.session.ShowSuccess()
	h.clock.Advance(time.Second)
	require.Equal(t, 2, h.session.Level)
	assert.False(t, h.session.SubmitDisabled, "a new puzzle takes submissions")
}

func TestRemote_OwnThenTeamPuzzle(t *testing.T) {
	remote := &fakeRemote{}
	h := newHarness(t, stage.SafeCracker, remote, nil)
	h.game.Start()
	assert.Nil(t, h.disp.Active(), "networked games wait for the host")

	h.game.HandleEnvelope(frame(t, protocol.TypeGameStarted, protocol.GameStarted{Stage: 3, Timer: 200}))
	assert.Equal(t, 3, h.session.Level)
	assert.Equal(t, 200*time.Second, h.session.GameTimer)

	own := protocol.PuzzleData{Key: stage.Key(stage.SafeCracker, 3), Config: combinationConfig(t, 12, 47, 83)}
	team := protocol.PuzzleData{Key: stage.TeamKey(3), Team: true, Roles: []string{string(stage.Hacker), string(stage.SafeCracker)}, Config: combinationConfig(t, 1, 2, 3)}
	h.game.HandleEnvelope(frame(t, protocol.TypePuzzleData, own))
	h.game.HandleEnvelope(frame(t, protocol.TypePuzzleData, team))
	require.Len(t, remote.mount, 1, "the team puzzle waits")

	h.game.HandleEnvelope(frame(t, protocol.TypeTeamPuzzleReady, nil))
	require.Len(t, remote.mount, 1, "the team puzzle waits for the player's own solve")

	h.game.ProcessIntent(engineinput.Entry("12 47 83"))
	h.clock.Flush()
	require.Len(t, remote.mount, 2)
	assert.True(t, remote.mount[1].Team)
	assert.True(t, h.game.onTeam)
	assert.Equal(t, puzzle.PhaseActive, h.disp.Active().Phase())

	h.game.HandleEnvelope(frame(t, protocol.TypePuzzleCompleted, protocol.PuzzleCompleted{PlayerID: "p2", Role: string(stage.Hacker), Puzzle: team.Key}))
	assert.Equal(t, puzzle.PhaseCompleted, h.disp.Active().Phase())

	h.game.HandleEnvelope(frame(t, protocol.TypeStageCompleted, protocol.StageCompleted{NextStage: 4, Timer: 400}))
	assert.Equal(t, 4, h.session.Level)
	assert.Equal(t, 400*time.Second, h.session.GameTimer)
	assert.False(t, h.game.onTeam)
	assert.Nil(t, h.game.team)
}

func TestRemote_EventsAndEnd(t *testing.T) {
	remote := &fakeRemote{}
	h := newHarness(t, stage.Hacker, remote, nil)
	h.game.Start()
	h.game.HandleEnvelope(frame(t, protocol.TypePuzzleData, protocol.PuzzleData{Key: "safe_puzzle_1", Config: combinationConfig(t, 5, 6, 7)}))

	h.game.HandleEnvelope(frame(t, protocol.TypeRandomEvent, protocol.RandomEvent{Event: string(puzzle.EventCameraSweep), Duration: 5}))
	assert.Equal(t, puzzle.PhaseLockedByEvent, h.disp.Active().Phase())
	h.clock.Advance(5 * time.Second)
	assert.Equal(t, puzzle.PhaseActive, h.disp.Active().Phase())

	h.game.HandleEnvelope(frame(t, protocol.TypeTimerExtended, protocol.TimerExtended{Timer: 360, Alert: 1}))
	assert.Equal(t, 360*time.Second, h.session.GameTimer)
	assert.Equal(t, 1, h.session.Alert)

	h.game.HandleEnvelope(frame(t, protocol.TypeChat, protocol.Chat{PlayerName: "Ana", Message: "hurry"}))
	last, _ := h.session.LastMessage()
	assert.Equal(t, "Ana: hurry", last.Text)

	h.game.HandleEnvelope(frame(t, protocol.TypeGameOver, protocol.GameOver{Result: "time_expired"}))
	assert.Equal(t, ResultLost, h.game.Result())
	assert.Equal(t, []Result{ResultLost}, h.results)
}

func TestRemote_PowerIsSentToHost(t *testing.T) {
	remote := &fakeRemote{}
	h := newHarness(t, stage.Hacker, remote, nil)
	h.game.Start()

	require.NoError(t, h.game.UsePower())
	assert.Equal(t, []string{protocol.TypeUsePower}, remote.sent)
	assert.ErrorIs(t, h.game.UsePower(), ErrPowerUsed)

	h.game.HandleEnvelope(frame(t, protocol.TypeError, protocol.Error{Context: protocol.TypeUsePower, Message: "power already used this stage"}))
	require.NoError(t, h.game.UsePower(), "a refused power can be retried")
}

func TestVote(t *testing.T) {
	t.Run("solo", func(t *testing.T) {
		h := newHarness(t, stage.Lookout, nil, nil)
		h.game.Start()
		assert.ErrorIs(t, h.game.Vote(), ErrSolo)
	})

	t.Run("initiate then vote once", func(t *testing.T) {
		remote := &fakeRemote{}
		h := newHarness(t, stage.Lookout, remote, nil)
		h.game.Start()

		require.NoError(t, h.game.Vote())
		assert.Equal(t, []string{protocol.TypeInitiateVote}, remote.sent)

		h.game.HandleEnvelope(frame(t, protocol.TypeVoteInitiated, protocol.VoteInitiated{
			InitiatorID: "p2", InitiatorName: "Ana", TimeLimit: 20, Votes: []string{"p2"},
		}))
		require.NoError(t, h.game.Vote())
		assert.Equal(t, []string{protocol.TypeInitiateVote, protocol.TypeVote}, remote.sent)
		assert.ErrorIs(t, h.game.Vote(), ErrVoted)

		h.game.HandleEnvelope(frame(t, protocol.TypeVoteCompleted, protocol.VoteCompleted{
			Success: true, Votes: []string{"p1", "p2"}, Required: 2, Message: "Timer extended",
		}))
		last, _ := h.session.LastMessage()
		assert.Equal(t, "Timer extended", last.Text)
		require.NoError(t, h.game.Vote(), "a new request can be opened after the vote closes")
		assert.Equal(t, protocol.TypeInitiateVote, remote.sent[len(remote.sent)-1])
	})

	t.Run("initiator already counted", func(t *testing.T) {
		remote := &fakeRemote{}
		h := newHarness(t, stage.Lookout, remote, nil)
		h.game.Start()
		h.game.HandleEnvelope(frame(t, protocol.TypeVoteInitiated, protocol.VoteInitiated{
			InitiatorID: "p1", InitiatorName: "Me", TimeLimit: 20, Votes: []string{"p1"},
		}))
		assert.ErrorIs(t, h.game.Vote(), ErrVoted)
	})
}

func TestTeamList(t *testing.T) {
	tests := []struct {
		roles []string
		want  string
	}{
		{nil, "whole crew"},
		{[]string{"Hacker"}, "Hacker"},
		{[]string{"Hacker", "Lookout"}, "Hacker and Lookout"},
		{[]string{"Hacker", "Safe Cracker", "Lookout"}, "Hacker, Safe Cracker and Lookout"},
	}
	for _, tt := range tests {
		if got := teamList(tt.roles); got != tt.want {
			t.Errorf("teamList(%v) = %q, want %q", tt.roles, got, tt.want)
		}
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "won", ResultWon.String())
	assert.Equal(t, "none", Result(42).String())
}
