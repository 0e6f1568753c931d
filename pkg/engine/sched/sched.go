// Package sched provides the cooperative, single-threaded scheduling model the puzzle widgets run on.
//
// Every widget callback (player input, timer expiry, submission result) executes on one event loop.
// The only form of suspension is "run this callback after a delay". Widgets never own raw timers:
// they own a Group, and closing the Group cancels every timer, interval, sequence and pending async
// result at once.
package sched

import (
	"context"
	"time"
)

// MinInterval is the shortest period Every accepts. Shorter periods are raised to it.
const MinInterval = time.Millisecond

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running again. It reports whether the timer was still live.
	Stop() bool
}

// Scheduler runs callbacks on a single logical thread.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
	// After runs fn once after d.
	After(d time.Duration, fn func()) Timer
	// Every runs fn every d until stopped.
	Every(d time.Duration, fn func()) Timer
	// Post runs fn on the loop as soon as possible, never inline.
	Post(fn func())
	// Async runs work off the loop and then done on the loop.
	Async(work func(ctx context.Context), done func())
}

// Step is one element of a timed sequence: Do runs Delay after the previous step.
type Step struct {
	Delay time.Duration
	Do    func()
}

// stopFunc adapts a func to Timer.
type stopFunc func() bool

func (f stopFunc) Stop() bool { return f() }
