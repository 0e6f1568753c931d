package ebiten

import (
	"time"

	"heist/pkg/game/renderer"
	"heist/pkg/game/stage"
	"heist/pkg/game/state"
)

// HUDFromSession copies what the window shows from s. Call it on the game loop.
func HUDFromSession(s *state.Session, result string) HUD {
	return HUD{
		Stage:     s.Level,
		StageName: stage.Name(s.Level),
		Role:      string(s.Role),
		Timer:     s.GameTimer,
		Alert:     s.Alert,
		Countdown: s.Countdown(),
		Verifying: s.SubmitDisabled,
		Messages:  append([]state.Message(nil), s.Messages...),
		Result:    result,
	}
}

// getSnapshot returns a copy of the state to paint.
func (e *Renderer) getSnapshot() renderSnapshot {
	e.snapshotMutex.RLock()
	defer e.snapshotMutex.RUnlock()
	return e.snapshot
}

// flash records a cue for the screen flash overlay.
func (e *Renderer) flash(c renderer.Cue) {
	e.snapshotMutex.Lock()
	e.snapshot.flashCue = c
	e.snapshot.flashAt = time.Now().UnixMilli()
	e.snapshotMutex.Unlock()
}
