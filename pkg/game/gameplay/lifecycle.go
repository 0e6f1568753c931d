package gameplay

import (
	"fmt"
	"time"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/stage"
)

// Start begins the heist. A solo game mounts the first stage and starts the game timer; a
// networked game waits for the host's puzzle_data frames.
func (g *Game) Start() {
	g.session.ClearMessages()
	g.session.ShowMessage(fmt.Sprintf(gotext.Get("You are the %s."), dynamicGet(string(g.session.Role))), puzzle.SeverityInfo)
	if g.Networked() {
		g.session.ShowMessage(gotext.Get("Waiting for the crew..."), puzzle.SeverityInfo)
		g.repaint()
		return
	}
	g.session.GameTimer = g.tune.InitialTimer
	g.ticker = g.timers.Every(time.Second, g.tick)
	g.SetupLevel()
}

// SetupLevel mounts the player's puzzle for the current stage. Solo widgets generate their own
// target.
func (g *Game) SetupLevel() {
	level := g.session.Level
	difficulty := puzzle.ClampDifficulty(level - g.shortcuts)
	g.shortcuts = 0
	g.powerUsed = false

	g.session.EnableSubmit()
	w, err := g.disp.Mount(puzzle.Config{
		Type:       puzzle.Type(stage.Key(g.session.Role, level)),
		Difficulty: difficulty,
	})
	if err != nil {
		g.log.Error("stage puzzle failed to mount", zap.Int("stage", level), zap.Error(err))
	}
	g.mounted = w.Type()
	g.mountedAt = g.clock.Now()
	g.profile.RecordAttempt(g.mounted)
	g.ShowLevelObjectives()
}

// ShowLevelObjectives logs the stage name and the player's task.
func (g *Game) ShowLevelObjectives() {
	level := g.session.Level
	g.message(fmt.Sprintf(gotext.Get("Stage %d of %d: %s"), level, stage.TotalStages, stage.Name(level)), puzzle.SeverityInfo)
	if stage.IsFinalStage(level) {
		g.message(gotext.Get("The vault is in sight. Crack it before the guards return."), puzzle.SeverityWarning)
	}
}

// onSolved runs when the active widget reports success to the session.
func (g *Game) onSolved() {
	if g.result != ResultNone {
		return
	}
	d := g.clock.Now().Sub(g.mountedAt)
	if g.profile.RecordSolve(g.mounted, d) {
		g.message(fmt.Sprintf(gotext.Get("New best time: %s"), d.Round(100*time.Millisecond)), puzzle.SeveritySuccess)
	}
	if err := g.profile.Save(); err != nil {
		g.log.Warn("failed to save profile", zap.Error(err))
	}

	if g.Networked() {
		if g.onTeam {
			// puzzle_completed announces the team lock to everyone.
			return
		}
		g.ownDone = true
		g.message(gotext.Get("Puzzle cracked. Waiting for the crew..."), puzzle.SeveritySuccess)
		g.mountTeamIfReady()
		return
	}
	g.timers.After(g.advanceDelay, g.AdvanceLevel)
}

// AdvanceLevel moves a solo game to the next stage, or wins it after the vault.
func (g *Game) AdvanceLevel() {
	if g.result != ResultNone {
		return
	}
	if stage.IsFinalStage(g.session.Level) {
		g.message(gotext.Get("The vault is open. The crew got away!"), puzzle.SeveritySuccess)
		g.finish(ResultWon)
		return
	}
	g.session.GameTimer += g.tune.StageBonus
	g.session.AdvanceLevel()
	g.SetupLevel()
}

func (g *Game) tick() {
	if g.result != ResultNone {
		return
	}
	g.session.GameTimer = max(g.session.GameTimer-time.Second, 0)
	if g.session.GameTimer <= 0 {
		g.disp.DisableInteraction(true)
		g.message(gotext.Get("Time is up. The guards caught the crew."), puzzle.SeverityError)
		g.finish(ResultLost)
		return
	}
	secs := int(g.session.GameTimer / time.Second)
	if every := int(g.tune.EventEvery / time.Second); every > 0 && secs%every == 0 {
		g.rollEvent()
	}
	g.repaint()
}

// rollEvent may start a random security event. With the Lookout power active the player is
// warned first.
func (g *Game) rollEvent() {
	chance := g.tune.EventChance + g.tune.EventAlertStep*float64(g.session.Alert)
	if g.rng.Float64() >= chance {
		return
	}
	ev := puzzle.HostEvents[g.rng.Intn(len(puzzle.HostEvents))]
	lo, hi := g.tune.EventMin, g.tune.EventMax
	dur := lo
	if hi > lo {
		dur += time.Duration(g.rng.Int63n(int64(hi-lo) + 1)).Truncate(time.Second)
	}

	if g.clock.Now().Before(g.lookoutEnd) {
		g.message(fmt.Sprintf(gotext.Get("Lookout: %s in %d seconds!"), eventName(ev), int(g.tune.LookoutWarning/time.Second)), puzzle.SeverityWarning)
		g.timers.After(g.tune.LookoutWarning, func() { g.startEvent(ev, dur) })
		return
	}
	g.startEvent(ev, dur)
}

func (g *Game) startEvent(ev puzzle.EventType, dur time.Duration) {
	if g.result != ResultNone {
		return
	}
	g.log.Debug("random event", zap.String("event", string(ev)), zap.Duration("duration", dur))
	g.disp.HandleRandomEvent(ev, dur)
	g.message(fmt.Sprintf(gotext.Get("%s! Controls locked for %d seconds."), eventName(ev), int(dur/time.Second)), puzzle.SeverityWarning)
}

func eventName(ev puzzle.EventType) string {
	switch ev {
	case puzzle.EventSecurityPatrol:
		return gotext.Get("Security patrol")
	case puzzle.EventCameraSweep:
		return gotext.Get("Camera sweep")
	case puzzle.EventSystemCheck:
		return gotext.Get("System check")
	case puzzle.EventAlarm:
		return gotext.Get("Alarm")
	default:
		return string(ev)
	}
}
