// Package record provides in-memory surface and audio backends. The headless frontend and the
// tests use them to observe what a widget drew and played.
package record

import (
	"sync"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// Surface keeps every view drawn on it.
type Surface struct {
	mu    sync.Mutex
	views []puzzle.View
}

// Draw records v
func (s *Surface) Draw(v puzzle.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
}

// Last returns the most recent view and whether any was drawn.
func (s *Surface) Last() (puzzle.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) == 0 {
		return puzzle.View{}, false
	}
	return s.views[len(s.views)-1], true
}

// Count returns the number of draws
func (s *Surface) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Reset forgets recorded views
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = nil
}

// Audio keeps every cue played.
type Audio struct {
	mu   sync.Mutex
	cues []renderer.Cue
}

// Play records c
func (a *Audio) Play(c renderer.Cue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cues = append(a.cues, c)
}

// Cues returns a copy of the cues played so far
func (a *Audio) Cues() []renderer.Cue {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]renderer.Cue(nil), a.cues...)
}

// Played reports whether c was played at least once
func (a *Audio) Played(c renderer.Cue) bool {
	for _, got := range a.Cues() {
		if got == c {
			return true
		}
	}
	return false
}
