// Package puzzletest wires a widget to deterministic test doubles: a virtual clock, a recording
// surface, a recording host and a seeded random source.
package puzzletest

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"heist/pkg/engine/sched"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer/record"
)

// ErrTransport is returned by a Harness submitter configured to fail.
var ErrTransport = errors.New("transport down")

// Message is one host ShowMessage call.
type Message struct {
	Text     string
	Severity puzzle.Severity
}

// Harness collects everything a widget reports.
type Harness struct {
	Clock   *sched.Manual
	Surface *record.Surface
	Audio   *record.Audio
	Logs    *observer.ObservedLogs

	Messages    []Message
	Successes   int
	Disables    int
	Enables     int
	Countdowns  []time.Duration
	Submissions []any

	// Verdict decides remote submissions when Remote is set.
	Verdict func(payload any) (bool, error)

	seed   int64
	logger *zap.Logger
}

// New returns a harness with a fixed seed.
func New(seed int64) *Harness {
	core, logs := observer.New(zap.DebugLevel)
	return &Harness{
		Clock:   sched.NewManual(),
		Surface: &record.Surface{},
		Audio:   &record.Audio{},
		Logs:    logs,
		seed:    seed,
		logger:  zap.New(core),
	}
}

// Host returns host callbacks recording into h.
func (h *Harness) Host() puzzle.Host {
	return puzzle.HostFuncs{
		OnMessage: func(text string, sev puzzle.Severity) {
			h.Messages = append(h.Messages, Message{Text: text, Severity: sev})
		},
		OnSuccess: func() { h.Successes++ },
		OnDisable: func() { h.Disables++ },
		OnEnable:  func() { h.Enables++ },
		OnCountdown: func(d time.Duration, _ func()) {
			h.Countdowns = append(h.Countdowns, d)
		},
	}
}

// Options builds self-validating widget options.
func (h *Harness) Options() puzzle.Options {
	return puzzle.Options{
		Host:      h.Host(),
		Audio:     h.Audio,
		Scheduler: h.Clock,
		Logger:    h.logger,
		Rand:      rand.New(rand.NewSource(h.seed)),
	}
}

// Remote builds server-validating options. Payloads are recorded and judged by Verdict.
func (h *Harness) Remote(verdict func(payload any) (bool, error)) puzzle.Options {
	h.Verdict = verdict
	opts := h.Options()
	opts.Submit = func(_ context.Context, payload any) (bool, error) {
		h.Submissions = append(h.Submissions, payload)
		if h.Verdict == nil {
			return false, ErrTransport
		}
		return h.Verdict(payload)
	}
	return opts
}

// LastMessage returns the most recent host message text.
func (h *Harness) LastMessage() string {
	if len(h.Messages) == 0 {
		return ""
	}
	return h.Messages[len(h.Messages)-1].Text
}

// View returns the last drawn view.
func (h *Harness) View() puzzle.View {
	v, _ := h.Surface.Last()
	return v
}

// Advance moves the virtual clock.
func (h *Harness) Advance(d time.Duration) {
	h.Clock.Advance(d)
}

// Flush delivers posted callbacks and async results.
func (h *Harness) Flush() {
	h.Clock.Flush()
}
