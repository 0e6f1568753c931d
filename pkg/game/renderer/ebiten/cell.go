package ebiten

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// cellAt returns the index of the grid cell under the pixel (x, y).
func (l gridLayout) cellAt(x, y int) (int, bool) {
	if l.cell <= 0 || x < l.x || y < l.y {
		return 0, false
	}
	col := (x - l.x) / l.cell
	row := (y - l.y) / l.cell
	if row >= l.rows || col >= l.cols {
		return 0, false
	}
	return row*l.cols + col, true
}

// cellColors returns the glyph and background colours for a cell. Inert cells get no block.
func cellColors(c puzzle.CellView, cursor bool) (fg color.RGBA, bg color.RGBA, hasBg bool) {
	fg = styleColor(c.Style)
	switch {
	case cursor:
		return fg, colorCursorBg, true
	case c.Style == renderer.StyleInert:
		return fg, color.RGBA{}, false
	default:
		return fg, colorCellBackground, true
	}
}

// drawGrid draws g with its top-left corner at (x, y) and remembers the layout for hit tests.
func (e *Renderer) drawGrid(screen *ebiten.Image, g *puzzle.GridView, x, y int) int {
	e.grid = gridLayout{x: x, y: y, rows: g.Rows, cols: g.Cols, cell: e.tileSize}
	for i, c := range g.Cells {
		row, col := i/g.Cols, i%g.Cols
		e.drawTile(screen, c, x+col*e.tileSize, y+row*e.tileSize, i == g.Cursor)
	}
	return g.Rows * e.tileSize
}

// drawTile draws a single cell with its block background
func (e *Renderer) drawTile(screen *ebiten.Image, c puzzle.CellView, x, y int, cursor bool) {
	fg, bg, hasBg := cellColors(c, cursor)
	if hasBg {
		margin := float32(2)
		vector.DrawFilledRect(screen, float32(x)+margin, float32(y)+margin,
			float32(e.tileSize)-margin*2, float32(e.tileSize)-margin*2,
			bg, false)
	}
	if cursor {
		vector.StrokeRect(screen, float32(x)+1, float32(y)+1,
			float32(e.tileSize)-2, float32(e.tileSize)-2, 2, colorActive, false)
	}
	if c.Glyph == "" || c.Glyph == " " {
		return
	}

	face := e.getMonoFontFace()
	// text/v2 Draw uses top-left as the origin point; centre the glyph in the tile
	w, h := text.Measure(c.Glyph, face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)+(float64(e.tileSize)-w)/2, float64(y)+(float64(e.tileSize)-h)/2)
	op.ColorScale.ScaleWithColor(fg)
	text.Draw(screen, c.Glyph, face, op)
}
