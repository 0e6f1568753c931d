// Package state holds the client-side session a frontend keeps while the player works puzzles.
// Session is the puzzle.Host the frontends hand to widgets.
package state

import (
	"time"

	"github.com/zyedidia/generic/mapset"

	"heist/pkg/engine/sched"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/stage"
)

// MaxMessages is how many messages the log keeps.
const MaxMessages = 5

// Message is one entry of the message log.
type Message struct {
	Text     string
	Severity puzzle.Severity
}

// Session represents the state of one player's heist. All methods run on the scheduler's loop.
type Session struct {
	Role  stage.Role
	Level int // Current stage, 1-based

	Messages []Message

	Solved mapset.Set[puzzle.Type]

	// SubmitDisabled is set once the active widget has asked the host to stop taking submissions.
	SubmitDisabled bool

	// Team progress mirrored from the host server.
	Alert     int
	GameTimer time.Duration

	clock     sched.Scheduler
	started   time.Time
	countdown sched.Timer
	deadline  time.Time

	// OnSuccess runs after a widget reports success.
	OnSuccess func()
}

// NewSession creates a session for role at stage 1.
func NewSession(role stage.Role, clock sched.Scheduler) *Session {
	return &Session{
		Role:     role,
		Level:    1,
		Messages: make([]Message, 0, MaxMessages),
		Solved:   mapset.New[puzzle.Type](),
		clock:    clock,
		started:  clock.Now(),
	}
}

var _ puzzle.Host = (*Session)(nil)

// ShowMessage adds a message to the log
func (s *Session) ShowMessage(text string, sev puzzle.Severity) {
	s.Messages = append(s.Messages, Message{Text: text, Severity: sev})

	if len(s.Messages) > MaxMessages {
		s.Messages = s.Messages[len(s.Messages)-MaxMessages:]
	}
}

// ClearMessages clears all messages
func (s *Session) ClearMessages() {
	s.Messages = s.Messages[:0]
}

// LastMessage returns the newest message, if any.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// ShowSuccess records the solved puzzle for the current stage.
func (s *Session) ShowSuccess() {
	if t, ok := stage.PuzzleFor(s.Role, s.Level); ok {
		s.Solved.Put(t)
	}
	s.stopCountdown()
	if s.OnSuccess != nil {
		s.OnSuccess()
	}
}

// DisableSubmit is called by widgets that submit once per attempt.
func (s *Session) DisableSubmit() {
	s.SubmitDisabled = true
}

// EnableSubmit is called when the widget starts a fresh attempt.
func (s *Session) EnableSubmit() {
	s.SubmitDisabled = false
}

// StartCountdown replaces the visible countdown. onExpire runs on the loop when it reaches zero.
func (s *Session) StartCountdown(d time.Duration, onExpire func()) {
	s.stopCountdown()
	s.deadline = s.clock.Now().Add(d)
	s.countdown = s.clock.After(d, func() {
		s.countdown = nil
		if onExpire != nil {
			onExpire()
		}
	})
}

func (s *Session) stopCountdown() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// Countdown returns the time left on the host countdown, zero when none is running.
func (s *Session) Countdown() time.Duration {
	if s.countdown == nil {
		return 0
	}
	return max(s.deadline.Sub(s.clock.Now()), 0)
}

// Elapsed returns how long the session has been running.
func (s *Session) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.started)
}

// HasSolved checks if the puzzle type was solved during this session
func (s *Session) HasSolved(t puzzle.Type) bool {
	return s.Solved.Has(t)
}

// AdvanceLevel moves to the next stage and resets stage-specific state. It returns false after
// the final stage.
func (s *Session) AdvanceLevel() bool {
	next := stage.NextStage(s.Level)
	if next == 0 {
		return false
	}
	s.Level = next
	s.SubmitDisabled = false
	s.stopCountdown()
	s.ClearMessages()
	return true
}

// Close stops the countdown.
func (s *Session) Close() {
	s.stopCountdown()
}
