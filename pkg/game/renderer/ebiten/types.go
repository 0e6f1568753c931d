package ebiten

import (
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"

	engineinput "heist/pkg/engine/input"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
	"heist/pkg/game/state"
)

// HUD is the session state shown around the puzzle. The game loop publishes it with SetHUD
// because the session must not be read from Ebiten's goroutine.
type HUD struct {
	Stage     int
	StageName string
	Role      string
	Timer     time.Duration
	Alert     int
	Countdown time.Duration
	Verifying bool // Submissions are closed while the answer is checked
	Messages  []state.Message
	Result    string // Set once the heist is over
}

// textSegment represents a segment of text with a specific color
type textSegment struct {
	text  string
	color color.Color
}

// gridLayout is where the last frame put the puzzle grid, for mouse hit tests.
type gridLayout struct {
	x, y       int
	rows, cols int
	cell       int
}

// renderSnapshot holds a consistent snapshot of the state Draw paints.
// This prevents jitter from races between the game loop and Ebiten's goroutine.
type renderSnapshot struct {
	view    puzzle.View
	hasView bool
	hud     HUD
	hasHUD  bool

	flashCue renderer.Cue
	flashAt  int64 // Unix milliseconds of the last flashing cue, 0 for none
}

// keyRepeatInfo tracks the repeat state for a key or button
type keyRepeatInfo struct {
	firstPressed int64 // Timestamp when first pressed (milliseconds)
	lastRepeat   int64 // Timestamp when last repeat event was sent (milliseconds)
}

// Renderer is the Ebiten window. It implements ebiten.Game; Surface returns the puzzle.Surface
// widgets draw on.
type Renderer struct {
	log *zap.Logger

	// Window dimensions
	windowWidth  int
	windowHeight int

	// Tile size for grid cells (adjustable with Ctrl +/-)
	tileSize int

	// Font sources for text rendering
	monoFontSource     *text.GoTextFaceSource // Monospace font for grid cells
	sansFontSource     *text.GoTextFaceSource // Sans-serif font for UI text
	sansBoldFontSource *text.GoTextFaceSource // Sans-serif bold for titles

	// Cached font faces (recreated when tile size changes)
	cachedTileFontSize float64
	cachedUIFontSize   float64
	cachedMonoFace     *text.GoTextFace
	cachedSansFace     *text.GoTextFace
	cachedSansBoldFace *text.GoTextFace

	snapshot      renderSnapshot
	snapshotMutex sync.RWMutex

	// Grid placement from the last Draw; Update and Draw both run on Ebiten's goroutine
	grid gridLayout

	// Input channel for communication between Ebiten and game loop
	inputChan chan engineinput.Intent

	// Key repeat state tracking
	// Maps key/button codes to their repeat state
	keyRepeatState      map[string]keyRepeatInfo
	keyRepeatStateMutex sync.RWMutex

	// Flag to track if we've logged window opening
	windowOpenedLogged bool

	closeOnce sync.Once
	closed    chan struct{}
}
