package server

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heist/pkg/engine/sched"
	"heist/pkg/game/config"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzles/combination"
	"heist/pkg/game/puzzles/pattern"
	"heist/pkg/game/stage"
	"heist/pkg/protocol"
)

type testClient struct {
	id  string
	out <-chan []byte
}

func newTestRoom(t *testing.T, mutate func(*config.Game)) (*Room, *sched.Manual) {
	t.Helper()
	tune := config.Default().Game
	tune.EventChance = 0
	tune.EventAlertStep = 0
	if mutate != nil {
		mutate(&tune)
	}
	clock := sched.NewManual()
	room := newRoom("TEST", clock, rand.New(rand.NewSource(1)), tune, zap.NewNop())
	t.Cleanup(room.Close)
	return room, clock
}

func join(t *testing.T, room *Room, name string, host bool, role stage.Role) testClient {
	t.Helper()
	p, err := room.AddPlayer(name, host)
	require.NoError(t, err)
	out, err := room.Connect(p.ID)
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, room.SelectRole(p.ID, role))
	}
	return testClient{id: p.ID, out: out}
}

// drain returns every frame queued for c.
func drain(t *testing.T, c testClient) []protocol.Envelope {
	t.Helper()
	var envs []protocol.Envelope
	for {
		select {
		case frame, ok := <-c.out:
			if !ok {
				return envs
			}
			var env protocol.Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			envs = append(envs, env)
		default:
			return envs
		}
	}
}

func ofType(envs []protocol.Envelope, typ string) []protocol.Envelope {
	var out []protocol.Envelope
	for _, e := range envs {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func decode[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, env.Decode(&v))
	return v
}

func acceptAll(puzzle.Type, json.RawMessage, json.RawMessage, int) (bool, error) {
	return true, nil
}

func solution(t *testing.T, payload any) protocol.PuzzleSolution {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return protocol.PuzzleSolution{ID: 1, Solution: data}
}

func startCrew(t *testing.T, room *Room, roles ...stage.Role) []testClient {
	t.Helper()
	var crew []testClient
	for i, role := range roles {
		crew = append(crew, join(t, room, string(role), i == 0, role))
	}
	require.NoError(t, room.Start(crew[0].id))
	return crew
}

func TestStart_Validation(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	host := join(t, room, "Ana", true, stage.Hacker)

	assert.ErrorIs(t, room.Start(host.id), ErrNotEnoughPlayers)

	guest := join(t, room, "Bo", false, "")
	assert.ErrorIs(t, room.Start(guest.id), ErrNotHost)
	assert.ErrorIs(t, room.Start(host.id), ErrRolesMissing)

	assert.ErrorIs(t, room.SelectRole(guest.id, stage.Hacker), ErrRoleTaken)
	assert.ErrorIs(t, room.SelectRole(guest.id, "Driver"), ErrUnknownRole)
	require.NoError(t, room.SelectRole(guest.id, stage.Lookout))

	require.NoError(t, room.Start(host.id))
	assert.ErrorIs(t, room.Start(host.id), ErrGameInProgress)
	assert.ErrorIs(t, room.SelectRole(guest.id, stage.Demolitions), ErrGameInProgress)
	_, err := room.AddPlayer("Late", false)
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStart_SendsStagePuzzles(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	crew := startCrew(t, room, stage.SafeCracker, stage.Demolitions)

	envs := drain(t, crew[0])
	started := ofType(envs, protocol.TypeGameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, protocol.GameStarted{Stage: 1, Timer: 300}, decode[protocol.GameStarted](t, started[0]))

	data := ofType(envs, protocol.TypePuzzleData)
	require.Len(t, data, 1)
	pd := decode[protocol.PuzzleData](t, data[0])
	assert.Equal(t, "safe_puzzle_1", pd.Key)
	assert.Equal(t, puzzle.TypeCombination, pd.Config.Type)
	assert.Equal(t, 1, pd.Config.Difficulty)
	assert.True(t, pd.Config.HasData())

	demo := ofType(drain(t, crew[1]), protocol.TypePuzzleData)
	require.Len(t, demo, 1)
	assert.Equal(t, puzzle.TypeDetonation, decode[protocol.PuzzleData](t, demo[0]).Config.Type)
}

func TestSubmitSolution_VerifiedAgainstStoredTarget(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	crew := startCrew(t, room, stage.SafeCracker, stage.Hacker)
	safe, hacker := crew[0], crew[1]

	pd, ok := room.Puzzle(safe.id)
	require.True(t, ok)
	var lock combination.Target
	require.NoError(t, json.Unmarshal(pd.Config.Data, &lock))

	wrong := append([]int(nil), lock.Combination...)
	wrong[0] = (wrong[0] + 50) % puzzle.DialPositions
	accepted, err := room.SubmitSolution(safe.id, solution(t, combination.Payload{Combination: wrong}))
	require.NoError(t, err)
	assert.False(t, accepted)

	// Garbage is a wrong answer, not a fault.
	accepted, err = room.SubmitSolution(safe.id, protocol.PuzzleSolution{Solution: json.RawMessage(`"nope"`)})
	require.NoError(t, err)
	assert.False(t, accepted)

	accepted, err = room.SubmitSolution(safe.id, solution(t, combination.Payload{Combination: lock.Combination}))
	require.NoError(t, err)
	assert.True(t, accepted)

	results := ofType(drain(t, safe), protocol.TypeSolutionResult)
	require.Len(t, results, 3)
	assert.True(t, decode[protocol.SolutionResult](t, results[2]).Accepted)

	pd, _ = room.Puzzle(hacker.id)
	var seq pattern.Target
	require.NoError(t, json.Unmarshal(pd.Config.Data, &seq))
	accepted, err = room.SubmitSolution(hacker.id, solution(t, pattern.Payload{Sequence: seq.Sequence}))
	require.NoError(t, err)
	assert.True(t, accepted)

	envs := drain(t, hacker)
	assert.Len(t, ofType(envs, protocol.TypePuzzleCompleted), 2)
	done := ofType(envs, protocol.TypeStageCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, protocol.StageCompleted{NextStage: 2, Timer: 540}, decode[protocol.StageCompleted](t, done[0]))

	pd, _ = room.Puzzle(safe.id)
	assert.Equal(t, "safe_puzzle_2", pd.Key)
	assert.Equal(t, puzzle.TypeLockBank, pd.Config.Type)
}

func TestTeamPuzzle_GatesStage(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	room.verify = acceptAll
	crew := startCrew(t, room, stage.Hacker, stage.Demolitions)
	hacker, demo := crew[0], crew[1]

	for level := 1; level < 3; level++ {
		for _, c := range crew {
			_, err := room.SubmitSolution(c.id, protocol.PuzzleSolution{})
			require.NoError(t, err)
		}
	}
	require.Equal(t, 3, room.Snapshot().Stage)

	team, ok := room.Puzzle(protocol.TeamPuzzle)
	require.True(t, ok)
	assert.Equal(t, "team_puzzle_3", team.Key)
	assert.Equal(t, []string{string(stage.Hacker)}, team.Roles)

	drain(t, hacker)
	for _, c := range crew {
		_, err := room.SubmitSolution(c.id, protocol.PuzzleSolution{})
		require.NoError(t, err)
	}
	envs := drain(t, hacker)
	assert.Len(t, ofType(envs, protocol.TypeTeamPuzzleReady), 1)
	assert.Empty(t, ofType(envs, protocol.TypeStageCompleted))

	_, err := room.SubmitSolution(demo.id, protocol.PuzzleSolution{Puzzle: protocol.TeamPuzzle})
	assert.ErrorIs(t, err, ErrNotTeamMember)

	_, err = room.SubmitSolution(hacker.id, protocol.PuzzleSolution{Puzzle: protocol.TeamPuzzle})
	require.NoError(t, err)
	assert.Equal(t, 4, room.Snapshot().Stage)
}

func TestGameCompletesAfterFinalStage(t *testing.T) {
	room, clock := newTestRoom(t, nil)
	room.verify = acceptAll
	crew := startCrew(t, room, stage.Hacker, stage.SafeCracker)

	for level := 1; level <= stage.TotalStages; level++ {
		for _, c := range crew {
			_, err := room.SubmitSolution(c.id, protocol.PuzzleSolution{})
			require.NoError(t, err)
		}
		if level >= stage.TeamFromStage {
			_, err := room.SubmitSolution(crew[0].id, protocol.PuzzleSolution{Puzzle: protocol.TeamPuzzle})
			require.NoError(t, err)
		}
	}
	snap := room.Snapshot()
	assert.Equal(t, string(StatusCompleted), snap.Status)
	assert.Len(t, ofType(drain(t, crew[1]), protocol.TypeGameCompleted), 1)
	assert.Zero(t, clock.Pending())

	_, err := room.SubmitSolution(crew[0].id, protocol.PuzzleSolution{})
	assert.ErrorIs(t, err, ErrNotInProgress)
}

func TestTimerBroadcastDue(t *testing.T) {
	tests := []struct {
		secs int
		want bool
	}{
		{300, true},
		{299, false},
		{285, true},
		{40, false},
		{35, false},
		{30, true},
		{25, true},
		{24, false},
		{11, false},
		{10, true},
		{7, true},
		{0, true},
	}
	for _, tt := range tests {
		if got := TimerBroadcastDue(tt.secs); got != tt.want {
			t.Errorf("TimerBroadcastDue(%d) = %v, want %v", tt.secs, got, tt.want)
		}
	}
}

func TestTimer_CountsDownAndExpires(t *testing.T) {
	room, clock := newTestRoom(t, func(g *config.Game) { g.InitialTimer = 20 * time.Second })
	crew := startCrew(t, room, stage.Hacker, stage.Lookout)
	drain(t, crew[0])

	clock.Advance(5 * time.Second)
	assert.Equal(t, 15*time.Second, room.Remaining())
	// 19..16 are silent, 15 is on the 15s cadence.
	updates := ofType(drain(t, crew[0]), protocol.TypeTimerUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, 15, decode[protocol.TimerUpdate](t, updates[0]).Timer)

	clock.Advance(15 * time.Second)
	envs := drain(t, crew[0])
	over := ofType(envs, protocol.TypeGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, "time_expired", decode[protocol.GameOver](t, over[0]).Result)
	assert.Equal(t, string(StatusFailed), room.Snapshot().Status)
	assert.Zero(t, clock.Pending())
}

func TestRandomEvents(t *testing.T) {
	room, clock := newTestRoom(t, func(g *config.Game) { g.EventChance = 1 })
	crew := startCrew(t, room, stage.Hacker, stage.Lookout)
	drain(t, crew[0])

	clock.Advance(29 * time.Second)
	assert.Empty(t, ofType(drain(t, crew[0]), protocol.TypeRandomEvent))
	clock.Advance(time.Second)
	events := ofType(drain(t, crew[0]), protocol.TypeRandomEvent)
	require.Len(t, events, 1)
	ev := decode[protocol.RandomEvent](t, events[0])
	assert.Contains(t, puzzle.HostEvents, puzzle.EventType(ev.Event))
	assert.GreaterOrEqual(t, ev.Duration, 5)
	assert.LessOrEqual(t, ev.Duration, 15)

	// With the Lookout power active the crew is warned 5s ahead.
	require.NoError(t, room.UsePower(crew[1].id))
	prediction := ofType(drain(t, crew[1]), protocol.TypeLookoutPrediction)
	require.Len(t, prediction, 1)
	p := decode[protocol.LookoutPrediction](t, prediction[0])
	assert.GreaterOrEqual(t, p.PredictedTime, 10)
	assert.LessOrEqual(t, p.PredictedTime, 30)

	drain(t, crew[0])
	clock.Advance(30 * time.Second)
	envs := drain(t, crew[0])
	require.Len(t, ofType(envs, protocol.TypeLookoutWarning), 1)
	assert.Empty(t, ofType(envs, protocol.TypeRandomEvent))
	clock.Advance(5 * time.Second)
	assert.Len(t, ofType(drain(t, crew[0]), protocol.TypeRandomEvent), 1)
}

func TestEventChance(t *testing.T) {
	tune := config.Default().Game
	assert.InDelta(t, 0.2, EventChance(tune, 0), 1e-9)
	assert.InDelta(t, 0.4, EventChance(tune, 2), 1e-9)
}

func TestUsePower(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	room.verify = acceptAll
	crew := startCrew(t, room, stage.Hacker, stage.SafeCracker, stage.Demolitions)
	hacker, safe, demo := crew[0], crew[1], crew[2]

	require.NoError(t, room.UsePower(hacker.id))
	assert.Equal(t, 330*time.Second, room.Remaining())
	assert.ErrorIs(t, room.UsePower(hacker.id), ErrPowerUsed)

	// Stage 1 is a combination lock: nothing to bypass.
	assert.ErrorIs(t, room.UsePower(safe.id), ErrNothingToBypass)

	require.NoError(t, room.UsePower(demo.id))
	assert.Equal(t, 1, room.Snapshot().Shortcuts)
	powers := ofType(drain(t, safe), protocol.TypePowerUsed)
	require.Len(t, powers, 2)
	assert.Equal(t, string(stage.Demolitions), decode[protocol.PowerUsed](t, powers[1]).Role)

	for _, c := range crew {
		_, err := room.SubmitSolution(c.id, protocol.PuzzleSolution{})
		require.NoError(t, err)
	}
	// The shortcut eases stage 2 and powers recharge.
	pd, _ := room.Puzzle(hacker.id)
	assert.Equal(t, 1, pd.Config.Difficulty)
	assert.Zero(t, room.Snapshot().Shortcuts)
	require.NoError(t, room.UsePower(safe.id))
	assert.Equal(t, 1, room.bypasses[safe.id])
}

func TestSafeCrackerBypassAllowance(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	var allowed []int
	room.verify = func(_ puzzle.Type, _, _ json.RawMessage, bypasses int) (bool, error) {
		allowed = append(allowed, bypasses)
		return false, nil
	}
	crew := startCrew(t, room, stage.SafeCracker, stage.Hacker)
	room.mu.Lock()
	room.puzzles[crew[0].id].typ = puzzle.TypeLockBank
	room.mu.Unlock()

	_, err := room.SubmitSolution(crew[0].id, protocol.PuzzleSolution{})
	require.NoError(t, err)
	require.NoError(t, room.UsePower(crew[0].id))
	_, err = room.SubmitSolution(crew[0].id, protocol.PuzzleSolution{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, allowed)
}

func TestTimerVote(t *testing.T) {
	room, clock := newTestRoom(t, nil)
	crew := startCrew(t, room, stage.Hacker, stage.Lookout)
	a, b := crew[0], crew[1]

	assert.ErrorIs(t, room.CastVote(a.id, true), ErrNoVote)
	require.NoError(t, room.InitiateVote(a.id))
	assert.ErrorIs(t, room.InitiateVote(b.id), ErrVoteActive)

	require.NoError(t, room.CastVote(a.id, true))
	assert.ErrorIs(t, room.CastVote(a.id, true), ErrAlreadyVoted)
	require.NoError(t, room.CastVote(b.id, true))

	snap := room.Snapshot()
	assert.Equal(t, 1, snap.Alert)
	assert.Equal(t, 360, snap.Timer)
	envs := drain(t, b)
	require.Len(t, ofType(envs, protocol.TypeTimerExtended), 1)
	done := ofType(envs, protocol.TypeVoteCompleted)
	require.Len(t, done, 1)
	result := decode[protocol.VoteCompleted](t, done[0])
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Required)

	// One yes out of two connected is short of the majority once time runs out.
	require.NoError(t, room.InitiateVote(b.id))
	require.NoError(t, room.CastVote(b.id, true))
	clock.Advance(20 * time.Second)
	done = ofType(drain(t, a), protocol.TypeVoteCompleted)
	require.Len(t, done, 1)
	assert.False(t, decode[protocol.VoteCompleted](t, done[0]).Success)
	assert.Equal(t, 1, room.Snapshot().Alert)
}

func TestRequiredVotes(t *testing.T) {
	for connected, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3} {
		if got := RequiredVotes(connected); got != want {
			t.Errorf("RequiredVotes(%d) = %d, want %d", connected, got, want)
		}
	}
}

func TestHandle_RoutesAndReportsErrors(t *testing.T) {
	room, _ := newTestRoom(t, nil)
	host := join(t, room, "Ana", true, "")
	guest := join(t, room, "Bo", false, "")
	drain(t, host)
	drain(t, guest)

	room.Handle(guest.id, protocol.Envelope{Type: protocol.TypeSelectRole, Payload: json.RawMessage(`{"role":"Lookout"}`)})
	confirmed := ofType(drain(t, host), protocol.TypeRoleConfirmed)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "Lookout", decode[protocol.RoleConfirmed](t, confirmed[0]).Role)

	room.Handle(guest.id, protocol.Envelope{Type: protocol.TypeStartGame})
	errs := ofType(drain(t, guest), protocol.TypeError)
	require.Len(t, errs, 1)
	e := decode[protocol.Error](t, errs[0])
	assert.Equal(t, protocol.TypeStartGame, e.Context)
	assert.Equal(t, ErrNotHost.Error(), e.Message)
	assert.Empty(t, ofType(drain(t, host), protocol.TypeError))

	room.Handle(host.id, protocol.Envelope{Type: protocol.TypeChat, Payload: json.RawMessage(`{"message":"  go go go  "}`)})
	chat := ofType(drain(t, guest), protocol.TypeChat)
	require.Len(t, chat, 1)
	assert.Equal(t, protocol.Chat{PlayerID: host.id, PlayerName: "Ana", Message: "go go go"}, decode[protocol.Chat](t, chat[0]))

	room.Handle(host.id, protocol.Envelope{Type: "teleport"})
	assert.Len(t, ofType(drain(t, host), protocol.TypeError), 1)

	room.Handle(host.id, protocol.Envelope{Type: protocol.TypePuzzleSolution, Payload: json.RawMessage(`{"id":7,"solution":{}}`)})
	errs = ofType(drain(t, host), protocol.TypeError)
	require.Len(t, errs, 1)
	e = decode[protocol.Error](t, errs[0])
	assert.Equal(t, protocol.TypePuzzleSolution, e.Context)
	assert.Equal(t, 7, e.ID)
	assert.Equal(t, ErrNotInProgress.Error(), e.Message)
}

func TestConnect_ReconnectAndDisconnect(t *testing.T) {
	room, clock := newTestRoom(t, nil)
	host := join(t, room, "Ana", true, stage.Hacker)
	guest := join(t, room, "Bo", false, stage.SafeCracker)
	require.NoError(t, room.Start(host.id))

	// Reconnecting closes the old stream and resends the puzzle.
	out, err := room.Connect(guest.id)
	require.NoError(t, err)
	drain(t, guest)
	_, open := <-guest.out
	assert.False(t, open)
	fresh := testClient{id: guest.id, out: out}
	assert.Len(t, ofType(drain(t, fresh), protocol.TypePuzzleData), 1)

	// A stale stream does not disconnect the player.
	room.Disconnect(guest.id, guest.out)
	assert.True(t, room.Snapshot().Players[guest.id].Connected)

	room.Disconnect(guest.id, fresh.out)
	assert.False(t, room.Snapshot().Players[guest.id].Connected)
	assert.Len(t, ofType(drain(t, host), protocol.TypePlayerDisconnected), 1)

	_, err = room.Connect("nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	room.Disconnect(host.id, host.out)
	assert.False(t, room.Idle(clock.Now(), time.Minute))
	clock.Advance(2 * time.Minute)
	assert.True(t, room.Idle(clock.Now(), time.Minute))
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "Security Patrol", EventName(puzzle.EventSecurityPatrol))
	assert.Equal(t, "Camera Sweep", EventName(puzzle.EventCameraSweep))
}
