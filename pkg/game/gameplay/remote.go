package gameplay

import (
	"fmt"
	"slices"
	"time"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/stage"
	"heist/pkg/protocol"
)

// HandleEnvelope applies one frame from the host server. It must run on the loop; the client's
// read goroutine posts it there.
func (g *Game) HandleEnvelope(env protocol.Envelope) {
	if err := g.handleEnvelope(env); err != nil {
		g.log.Warn("bad frame from host", zap.String("type", env.Type), zap.Error(err))
	}
	g.repaint()
}

func (g *Game) handleEnvelope(env protocol.Envelope) error {
	switch env.Type {
	case protocol.TypeGameStarted:
		var msg protocol.GameStarted
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.Level = msg.Stage
		g.session.GameTimer = secs(msg.Timer)
		g.session.ShowMessage(gotext.Get("The heist is on!"), puzzle.SeveritySuccess)

	case protocol.TypePuzzleData:
		var msg protocol.PuzzleData
		if err := env.Decode(&msg); err != nil {
			return err
		}
		if msg.Team {
			g.team = &msg
			g.mountTeamIfReady()
			return nil
		}
		g.mountRemote(msg)
		g.ShowLevelObjectives()

	case protocol.TypeSolutionResult:
		// Resolved by the client against the pending submission.

	case protocol.TypePuzzleCompleted:
		var msg protocol.PuzzleCompleted
		if err := env.Decode(&msg); err != nil {
			return err
		}
		if g.team != nil && msg.Puzzle == g.team.Key {
			if g.onTeam {
				g.disp.ShowSuccess()
			}
			g.session.ShowMessage(gotext.Get("The team lock is open."), puzzle.SeveritySuccess)
			return nil
		}
		if msg.PlayerID != g.self {
			g.session.ShowMessage(fmt.Sprintf(gotext.Get("The %s cracked their puzzle."), dynamicGet(msg.Role)), puzzle.SeverityInfo)
		}

	case protocol.TypeTeamPuzzleReady:
		g.teamReady = true
		if g.team == nil {
			g.session.ShowMessage(gotext.Get("The team puzzle is open. Waiting for the crew..."), puzzle.SeverityInfo)
			return nil
		}
		g.mountTeamIfReady()

	case protocol.TypeStageCompleted:
		var msg protocol.StageCompleted
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.AdvanceLevel()
		g.session.Level = msg.NextStage
		g.session.GameTimer = secs(msg.Timer)
		g.resetStage()
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("Stage cleared. On to the %s."), stage.Name(msg.NextStage)), puzzle.SeveritySuccess)

	case protocol.TypeGameCompleted:
		g.session.ShowMessage(gotext.Get("The vault is open. The crew got away!"), puzzle.SeveritySuccess)
		g.finish(ResultWon)

	case protocol.TypeGameOver:
		var msg protocol.GameOver
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("Game over: %s"), msg.Result), puzzle.SeverityError)
		g.finish(ResultLost)

	case protocol.TypeTimerUpdate:
		var msg protocol.TimerUpdate
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.GameTimer = secs(msg.Timer)

	case protocol.TypeTimerExtended:
		var msg protocol.TimerExtended
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.GameTimer = secs(msg.Timer)
		g.session.Alert = msg.Alert
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("Timer extended. Alert level %d."), msg.Alert), puzzle.SeverityWarning)

	case protocol.TypeRandomEvent:
		var msg protocol.RandomEvent
		if err := env.Decode(&msg); err != nil {
			return err
		}
		ev := puzzle.EventType(msg.Event)
		g.disp.HandleRandomEvent(ev, secs(msg.Duration))
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("%s! Controls locked for %d seconds."), eventName(ev), msg.Duration), puzzle.SeverityWarning)

	case protocol.TypeLookoutWarning:
		var msg protocol.LookoutWarning
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("Lookout: %s in %d seconds!"), eventName(puzzle.EventType(msg.Event)), msg.WarningTime), puzzle.SeverityWarning)

	case protocol.TypeLookoutPrediction:
		var msg protocol.LookoutPrediction
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("Next event: %s in about %d seconds."), eventName(puzzle.EventType(msg.Event)), msg.PredictedTime), puzzle.SeverityInfo)

	case protocol.TypePowerUsed:
		var msg protocol.PowerUsed
		if err := env.Decode(&msg); err != nil {
			return err
		}
		if msg.PlayerID == g.self && stage.Role(msg.Role) == stage.SafeCracker {
			if err := g.disp.UsePower(); err != nil {
				g.log.Warn("local bypass failed", zap.Error(err))
			}
		}
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("%s used the %s power: %s"), msg.PlayerName, dynamicGet(msg.Role), msg.Description), puzzle.SeverityInfo)

	case protocol.TypeVoteInitiated:
		var msg protocol.VoteInitiated
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.voteOpen = true
		g.voted = slices.Contains(msg.Votes, g.self)
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("%s wants more time. Vote within %d seconds."), msg.InitiatorName, msg.TimeLimit), puzzle.SeverityInfo)

	case protocol.TypeVoteUpdate:
		var msg protocol.VoteUpdate
		if err := env.Decode(&msg); err != nil {
			return err
		}
		if msg.PlayerID == g.self {
			g.voted = true
		}
		g.session.ShowMessage(fmt.Sprintf(gotext.Get("%d yes votes so far."), len(msg.Votes)), puzzle.SeverityInfo)

	case protocol.TypeVoteCompleted:
		var msg protocol.VoteCompleted
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.voteOpen, g.voted = false, false
		sev := puzzle.SeverityWarning
		if msg.Success {
			sev = puzzle.SeveritySuccess
		}
		g.session.ShowMessage(msg.Message, sev)

	case protocol.TypeChat:
		var msg protocol.Chat
		if err := env.Decode(&msg); err != nil {
			return err
		}
		g.session.ShowMessage(fmt.Sprintf("%s: %s", msg.PlayerName, msg.Message), puzzle.SeverityInfo)

	case protocol.TypeError:
		var msg protocol.Error
		if err := env.Decode(&msg); err != nil {
			return err
		}
		if msg.Context == protocol.TypeUsePower {
			g.powerUsed = false
		}
		g.session.ShowMessage(msg.Message, puzzle.SeverityError)

	case protocol.TypeGameState, protocol.TypePlayerConnected, protocol.TypePlayerDisconnected, protocol.TypeRoleConfirmed:
		g.log.Debug("lobby frame", zap.String("type", env.Type))

	default:
		return fmt.Errorf("unknown frame type %q", env.Type)
	}
	return nil
}

func (g *Game) mountRemote(msg protocol.PuzzleData) {
	g.disp.SetSubmitter(g.remote.Submitter(msg))
	g.session.EnableSubmit()
	w, err := g.disp.Mount(msg.Config)
	if err != nil {
		g.log.Error("host puzzle failed to mount", zap.String("key", msg.Key), zap.Error(err))
	}
	g.onTeam = msg.Team
	g.mounted = w.Type()
	g.mountedAt = g.clock.Now()
	g.profile.RecordAttempt(g.mounted)
}

// mountTeamIfReady swaps to the team puzzle once the host opened it and the player's own puzzle
// is done.
func (g *Game) mountTeamIfReady() {
	if g.team == nil || !g.teamReady || !g.ownDone || g.onTeam {
		return
	}
	g.mountRemote(*g.team)
	g.session.ShowMessage(fmt.Sprintf(gotext.Get("Team puzzle: work with the %s."), teamList(g.team.Roles)), puzzle.SeverityWarning)
}

func (g *Game) resetStage() {
	g.team = nil
	g.teamReady = false
	g.onTeam = false
	g.ownDone = false
	g.powerUsed = false
}

func teamList(roles []string) string {
	if len(roles) == 0 {
		return gotext.Get("whole crew")
	}
	out := ""
	for i, r := range roles {
		switch {
		case i == 0:
		case i == len(roles)-1:
			out += " " + gotext.Get("and") + " "
		default:
			out += ", "
		}
		out += dynamicGet(r)
	}
	return out
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
