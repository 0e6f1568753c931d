package sched

import (
	"context"
	"sort"
	"time"
)

// Manual is a virtual-clock Scheduler for tests. Time only moves when Advance is called and
// posted callbacks only run on Flush or Advance. It is not safe for concurrent use.
type Manual struct {
	now    time.Time
	seq    int
	timers []*manualTimer
	posted []func()
}

// NewManual returns a Manual clock starting at a fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

type manualTimer struct {
	at      time.Time
	seq     int
	every   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// After schedules fn at Now()+d.
func (m *Manual) After(d time.Duration, fn func()) Timer {
	return m.add(d, 0, fn)
}

// Every schedules fn at every multiple of d from Now().
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	d = max(d, MinInterval)
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) *manualTimer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, every: every, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Post queues fn for the next Flush.
func (m *Manual) Post(fn func()) {
	m.posted = append(m.posted, fn)
}

// Async queues work followed by done for the next Flush.
func (m *Manual) Async(work func(ctx context.Context), done func()) {
	m.Post(func() {
		work(context.Background())
		done()
	})
}

// Flush runs every posted callback, including callbacks posted while flushing.
func (m *Manual) Flush() {
	for len(m.posted) > 0 {
		batch := m.posted
		m.posted = nil
		for _, fn := range batch {
			fn()
		}
	}
}

// Advance moves the clock forward by d, firing due timers in time order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Flush()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		if t.every > 0 {
			t.at = t.at.Add(t.every)
		} else {
			t.stopped = true
		}
		t.fn()
		m.Flush()
	}
	m.now = target
	m.prune()
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.prune()
	live := make([]*manualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.at.After(target) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at.Equal(live[j].at) {
			return live[i].seq < live[j].seq
		}
		return live[i].at.Before(live[j].at)
	})
	return live[0]
}

func (m *Manual) prune() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	m.prune()
	return len(m.timers)
}
