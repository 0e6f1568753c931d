package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Group owns every timer a single widget creates. Closing the group cancels them all, cancels the
// context handed to async work and drops any callback that was already queued on the loop.
// Group itself satisfies Scheduler.
type Group struct {
	s      Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	mu     sync.Mutex
	timers map[*groupTimer]struct{}
}

// NewGroup creates a group on top of s.
func NewGroup(s Scheduler) *Group {
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{
		s:      s,
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[*groupTimer]struct{}),
	}
}

type groupTimer struct {
	g       *Group
	inner   Timer
	stopped atomic.Bool
}

func (t *groupTimer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.g.forget(t)
	if t.inner != nil {
		t.inner.Stop()
	}
	return true
}

func (t *groupTimer) live() bool {
	return !t.g.closed.Load() && !t.stopped.Load()
}

func (g *Group) track(t *groupTimer) {
	g.mu.Lock()
	g.timers[t] = struct{}{}
	g.mu.Unlock()
}

func (g *Group) forget(t *groupTimer) {
	g.mu.Lock()
	delete(g.timers, t)
	g.mu.Unlock()
}

// Now delegates to the underlying scheduler.
func (g *Group) Now() time.Time {
	return g.s.Now()
}

// Context is cancelled when the group closes.
func (g *Group) Context() context.Context {
	return g.ctx
}

// After runs fn once after d unless the timer or the group is stopped first.
func (g *Group) After(d time.Duration, fn func()) Timer {
	t := &groupTimer{g: g}
	if g.closed.Load() {
		t.stopped.Store(true)
		return t
	}
	g.track(t)
	t.inner = g.s.After(d, func() {
		if !t.live() {
			return
		}
		t.stopped.Store(true)
		g.forget(t)
		fn()
	})
	return t
}

// Every runs fn every d unless the timer or the group is stopped.
func (g *Group) Every(d time.Duration, fn func()) Timer {
	t := &groupTimer{g: g}
	if g.closed.Load() {
		t.stopped.Store(true)
		return t
	}
	g.track(t)
	t.inner = g.s.Every(d, func() {
		if !t.live() {
			return
		}
		fn()
	})
	return t
}

// Post queues fn; it is dropped if the group closes before it runs.
func (g *Group) Post(fn func()) {
	if g.closed.Load() {
		return
	}
	g.s.Post(func() {
		if g.closed.Load() {
			return
		}
		fn()
	})
}

// Async runs work with the group's context and delivers done only if the group is still open.
func (g *Group) Async(work func(ctx context.Context), done func()) {
	if g.closed.Load() {
		return
	}
	g.s.Async(func(context.Context) {
		work(g.ctx)
	}, func() {
		if g.closed.Load() {
			return
		}
		done()
	})
}

// Sequence runs steps one after another, each Delay after the previous one. Stopping the returned
// timer abandons the remaining steps.
func (g *Group) Sequence(steps ...Step) Timer {
	var (
		mu      sync.Mutex
		current Timer
		stopped bool
	)
	var next func(i int)
	next = func(i int) {
		if i >= len(steps) {
			return
		}
		step := steps[i]
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		current = g.After(step.Delay, func() {
			if step.Do != nil {
				step.Do()
			}
			next(i + 1)
		})
	}
	next(0)
	return stopFunc(func() bool {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return false
		}
		stopped = true
		if current != nil {
			return current.Stop()
		}
		return true
	})
}

// Pending returns the number of live timers owned by the group.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}

// Closed reports whether Close has been called.
func (g *Group) Closed() bool {
	return g.closed.Load()
}

// Close cancels everything the group owns. It is idempotent.
func (g *Group) Close() {
	if !g.closed.CompareAndSwap(false, true) {
		return
	}
	g.cancel()
	g.mu.Lock()
	timers := make([]*groupTimer, 0, len(g.timers))
	for t := range g.timers {
		timers = append(timers, t)
	}
	g.timers = make(map[*groupTimer]struct{})
	g.mu.Unlock()
	for _, t := range timers {
		t.stopped.Store(true)
		if t.inner != nil {
			t.inner.Stop()
		}
	}
}
