package puzzle

import (
	"strings"
	"time"

	"heist/pkg/game/renderer"
)

// View is a complete, backend-neutral snapshot of what a widget shows.
type View struct {
	Type     Type
	Title    string
	Phase    Phase
	Disabled bool
	Event    EventType

	Status   string
	Severity Severity

	Lines []Line
	Grid  *GridView

	// Remaining is the visible countdown, zero when the widget has none.
	Remaining time.Duration
	Controls  string
}

// Span is a run of styled text.
type Span struct {
	Text  string
	Style renderer.TextStyle
}

// Line is one row of body text.
type Line []Span

// Text builds a single-span line.
func Text(s string, style renderer.TextStyle) Line {
	return Line{{Text: s, Style: style}}
}

// GridView is a board of glyphs. Cursor is -1 when no cell is focused.
type GridView struct {
	Rows   int
	Cols   int
	Cells  []CellView
	Cursor int
}

// CellView is one board glyph.
type CellView struct {
	Glyph string
	Style renderer.TextStyle
}

// NewGridView returns a board filled with glyph.
func NewGridView(rows, cols int, glyph string) *GridView {
	g := &GridView{Rows: rows, Cols: cols, Cells: make([]CellView, rows*cols), Cursor: -1}
	for i := range g.Cells {
		g.Cells[i] = CellView{Glyph: glyph, Style: renderer.StyleSubtle}
	}
	return g
}

// Plain flattens the view to unstyled text. Tests and logs use it.
func (v View) Plain() string {
	var sb strings.Builder
	if v.Title != "" {
		sb.WriteString(v.Title)
		sb.WriteByte('\n')
	}
	for _, line := range v.Lines {
		for _, span := range line {
			sb.WriteString(span.Text)
		}
		sb.WriteByte('\n')
	}
	if v.Grid != nil {
		for r := 0; r < v.Grid.Rows; r++ {
			for c := 0; c < v.Grid.Cols; c++ {
				sb.WriteString(v.Grid.Cells[r*v.Grid.Cols+c].Glyph)
			}
			sb.WriteByte('\n')
		}
	}
	if v.Status != "" {
		sb.WriteString(v.Status)
		sb.WriteByte('\n')
	}
	return sb.String()
}
