// Package ebiten provides an Ebiten-based 2D graphical frontend for the heist puzzles.
package ebiten

import (
	"image/color"

	"heist/pkg/game/renderer"
)

// Color palette for the game - brighter colors for visibility
var (
	colorBackground      = color.RGBA{26, 26, 46, 255}    // Dark blue-gray
	colorPanelBackground = color.RGBA{30, 30, 50, 220}    // Semi-transparent dark
	colorCellBackground  = color.RGBA{60, 60, 80, 255}    // Grid cell block
	colorCursorBg        = color.RGBA{60, 80, 100, 255}   // Focused cell
	colorText            = color.RGBA{200, 210, 245, 255} // Soft off-white with blue-purple tint
	colorSubtle          = color.RGBA{120, 130, 180, 255} // Soft blue-purple-gray
	colorAction          = color.RGBA{180, 150, 250, 255} // Blue-purple
	colorTitle           = color.RGBA{100, 220, 255, 255} // Cyan
	colorActive          = color.RGBA{255, 255, 0, 255}   // Bright yellow
	colorSelected        = color.RGBA{220, 170, 255, 255} // Bright purple
	colorCorrect         = color.RGBA{0, 220, 0, 255}     // Bright green
	colorClose           = color.RGBA{255, 200, 100, 255} // Orange
	colorDenied          = color.RGBA{255, 100, 100, 255} // Bright red
	colorWarning         = color.RGBA{255, 220, 100, 255} // Yellow
	colorSuccess         = color.RGBA{100, 255, 150, 255} // Green
	colorWall            = color.RGBA{180, 180, 200, 255} // Light gray-blue
	colorSensitive       = color.RGBA{255, 80, 80, 255}   // Red
	colorCharge          = color.RGBA{255, 150, 255, 255} // Pink
	colorPath            = color.RGBA{100, 150, 255, 255} // Bright blue
	colorExit            = color.RGBA{100, 255, 100, 255} // Bright green
	colorInert           = color.RGBA{90, 90, 110, 255}   // Dim gray
)

// styleColors maps widget text styles to the palette.
var styleColors = map[renderer.TextStyle]color.RGBA{
	renderer.StyleNormal:    colorText,
	renderer.StyleTitle:     colorTitle,
	renderer.StyleSubtle:    colorSubtle,
	renderer.StyleCursor:    colorText,
	renderer.StyleActive:    colorActive,
	renderer.StyleSelected:  colorSelected,
	renderer.StyleCorrect:   colorCorrect,
	renderer.StyleClose:     colorClose,
	renderer.StyleDenied:    colorDenied,
	renderer.StyleWarning:   colorWarning,
	renderer.StyleSuccess:   colorSuccess,
	renderer.StyleWall:      colorWall,
	renderer.StyleSensitive: colorSensitive,
	renderer.StyleCharge:    colorCharge,
	renderer.StylePath:      colorPath,
	renderer.StyleExit:      colorExit,
	renderer.StyleInert:     colorInert,
}

// Tile size constraints
const (
	minTileSize     = 24
	maxTileSize     = 96
	tileSizeStep    = 8
	defaultTileSize = 48
	baseFontSize    = 16.0 // UI font size at the default tile size
)

const (
	keyRepeatInitialDelay = 500 // Initial delay before first repeat (milliseconds)
	keyRepeatInterval     = 100 // Interval between repeat events (milliseconds)
)

// Flash overlay after an audio cue
const flashDuration = 400 // milliseconds
