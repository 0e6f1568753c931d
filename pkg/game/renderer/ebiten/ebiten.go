package ebiten

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	engineinput "heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
)

// New creates the window renderer. Call Run from the main goroutine.
func New(log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Renderer{
		log:            log.Named("ebiten"),
		windowWidth:    960,
		windowHeight:   720,
		tileSize:       defaultTileSize,
		inputChan:      make(chan engineinput.Intent, 32),
		keyRepeatState: make(map[string]keyRepeatInfo),
		closed:         make(chan struct{}),
	}
	if err := e.loadFonts(); err != nil {
		return nil, err
	}
	return e, nil
}

// surface adapts the renderer to puzzle.Surface; ebiten.Game already claims Draw.
type surface struct {
	e *Renderer
}

func (s surface) Draw(v puzzle.View) {
	s.e.snapshotMutex.Lock()
	s.e.snapshot.view = v
	s.e.snapshot.hasView = true
	s.e.snapshotMutex.Unlock()
}

// Surface returns the puzzle surface backed by this window.
func (e *Renderer) Surface() puzzle.Surface {
	return surface{e: e}
}

// SetHUD publishes the session state shown around the puzzle.
func (e *Renderer) SetHUD(h HUD) {
	e.snapshotMutex.Lock()
	e.snapshot.hud = h
	e.snapshot.hasHUD = true
	e.snapshotMutex.Unlock()
}

// Intents returns the channel of player intents read by the game loop.
func (e *Renderer) Intents() <-chan engineinput.Intent {
	return e.inputChan
}

// Close makes the next Update end the Ebiten loop. Safe to call more than once.
func (e *Renderer) Close() {
	e.closeOnce.Do(func() { close(e.closed) })
}

// Run opens the window and blocks until it is closed.
func (e *Renderer) Run(title string) error {
	ebiten.SetWindowSize(e.windowWidth, e.windowHeight)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(e); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

var _ ebiten.Game = (*Renderer)(nil)
