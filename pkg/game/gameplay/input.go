package gameplay

import (
	"errors"
	"fmt"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	engineinput "heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/stage"
	"heist/pkg/protocol"
)

var (
	// ErrPowerUsed is returned when the role power was already used on this stage.
	ErrPowerUsed = errors.New("power already used this stage")
	// ErrSolo is returned for crew actions in a solo game.
	ErrSolo = errors.New("needs a crew")
	// ErrVoted is returned when the player already voted on the open request.
	ErrVoted = errors.New("already voted")
)

// ProcessIntent handles a high-level input intent from the tiered input system.
func (g *Game) ProcessIntent(intent engineinput.Intent) {
	if g.result != ResultNone {
		return
	}

	switch intent.Action {
	case engineinput.ActionNone:
		return

	case engineinput.ActionQuit:
		g.finish(ResultQuit)
		return

	case engineinput.ActionVote:
		if err := g.Vote(); err != nil {
			g.message(fmt.Sprintf(gotext.Get("Vote unavailable: %v"), err), puzzle.SeverityWarning)
		}
		return

	case engineinput.ActionHint:
		g.message(Hint(g.mounted), puzzle.SeverityInfo)
		return

	case engineinput.ActionPower:
		if err := g.UsePower(); err != nil {
			g.message(fmt.Sprintf(gotext.Get("Power unavailable: %v"), err), puzzle.SeverityWarning)
		}
		return

	case engineinput.ActionSubmit, engineinput.ActionSelect, engineinput.ActionEntry:
		if g.session.SubmitDisabled {
			g.message(gotext.Get("Answer sent. Waiting for the verdict."), puzzle.SeverityInfo)
			return
		}
	}

	err := g.disp.HandleIntent(intent)
	switch {
	case err == nil:
	case puzzle.IsInputRejection(err):
		g.log.Debug("input rejected", zap.String("action", engineinput.ActionName(intent.Action)), zap.Error(err))
	default:
		g.log.Warn("input failed", zap.String("action", engineinput.ActionName(intent.Action)), zap.Error(err))
		g.message(err.Error(), puzzle.SeverityError)
	}
	g.repaint()
}

// UsePower applies the player's role power once per stage. In a networked game the host applies
// it and answers with a power_used frame.
func (g *Game) UsePower() error {
	if g.powerUsed {
		return ErrPowerUsed
	}
	if g.Networked() {
		if err := g.remote.Send(protocol.TypeUsePower, struct{}{}); err != nil {
			return err
		}
		g.powerUsed = true
		return nil
	}

	switch g.session.Role {
	case stage.Hacker:
		g.session.GameTimer += g.tune.HackerBonus
		g.message(fmt.Sprintf(gotext.Get("Security systems slowed: +%d seconds."), int(g.tune.HackerBonus.Seconds())), puzzle.SeveritySuccess)
	case stage.SafeCracker:
		if err := g.disp.UsePower(); err != nil {
			return err
		}
		g.message(gotext.Get("Lock bypassed."), puzzle.SeveritySuccess)
	case stage.Demolitions:
		g.shortcuts++
		g.message(gotext.Get("Shortcut blasted. The next stage will be easier."), puzzle.SeveritySuccess)
	case stage.Lookout:
		g.lookoutEnd = g.clock.Now().Add(g.tune.LookoutDuration)
		g.message(fmt.Sprintf(gotext.Get("Enhanced security detection for %d seconds."), int(g.tune.LookoutDuration.Seconds())), puzzle.SeveritySuccess)
	default:
		return fmt.Errorf("unknown role %q", g.session.Role)
	}
	g.powerUsed = true
	g.log.Info("power used", zap.String("role", string(g.session.Role)), zap.Int("stage", g.session.Level))
	return nil
}

// Vote asks the crew for a timer extension, or votes yes when a request is already open.
func (g *Game) Vote() error {
	if !g.Networked() {
		return ErrSolo
	}
	if !g.voteOpen {
		return g.remote.Send(protocol.TypeInitiateVote, struct{}{})
	}
	if g.voted {
		return ErrVoted
	}
	if err := g.remote.Send(protocol.TypeVote, protocol.Vote{Vote: true}); err != nil {
		return err
	}
	g.voted = true
	return nil
}
