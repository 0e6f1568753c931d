package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is the production Scheduler: a single goroutine draining an unbounded callback queue.
// Post, After and Every are safe to call from any goroutine.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	stopped bool

	wake chan struct{}
	done chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// NewLoop creates a loop. Call Run to start processing callbacks.
func NewLoop() *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run processes callbacks until ctx is cancelled or Stop is called. Async workers are waited for
// before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.workers.Wait()
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if l.stopped || len(l.pending) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

// Stop halts the loop. Queued callbacks are discarded and async work contexts are cancelled.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.pending = nil
	l.cancel()
	close(l.done)
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn. Calls after Stop are ignored.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it. It returns false if the loop stopped first.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// After runs fn on the loop once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return lt
}

// Every runs fn on the loop every d. The next tick is armed after fn returns, so a slow
// callback delays rather than stacks ticks. Periods below MinInterval are raised to it.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	d = max(d, MinInterval)
	lt := &loopTimer{}
	var arm func()
	arm = func() {
		lt.mu.Lock()
		defer lt.mu.Unlock()
		if lt.stopped.Load() {
			return
		}
		lt.t = time.AfterFunc(d, func() {
			l.Post(func() {
				if lt.stopped.Load() {
					return
				}
				fn()
				arm()
			})
		})
	}
	arm()
	return lt
}

// Async runs work on its own goroutine and posts done to the loop when it returns.
func (l *Loop) Async(work func(ctx context.Context), done func()) {
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		work(l.ctx)
		l.Post(done)
	}()
}

type loopTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped atomic.Bool
}

func (lt *loopTimer) Stop() bool {
	wasLive := lt.stopped.CompareAndSwap(false, true)
	lt.mu.Lock()
	if lt.t != nil {
		lt.t.Stop()
	}
	lt.mu.Unlock()
	return wasLive
}
