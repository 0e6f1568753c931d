package ebiten

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/engine/sched"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
	"heist/pkg/game/stage"
	"heist/pkg/game/state"
)

func TestGridLayout_CellAt(t *testing.T) {
	l := gridLayout{x: 16, y: 100, rows: 3, cols: 4, cell: 48}

	tests := []struct {
		name   string
		x, y   int
		want   int
		wantOK bool
	}{
		{"first cell", 16, 100, 0, true},
		{"inside first cell", 63, 147, 0, true},
		{"second row", 16, 148, 4, true},
		{"last cell", 16 + 3*48 + 10, 100 + 2*48 + 10, 11, true},
		{"left of grid", 15, 120, 0, false},
		{"above grid", 20, 99, 0, false},
		{"right of grid", 16 + 4*48, 120, 0, false},
		{"below grid", 20, 100 + 3*48, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.cellAt(tt.x, tt.y)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("cellAt(%d, %d) = %d, %v, want %d, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGridLayout_CellAtWithoutGrid(t *testing.T) {
	if _, ok := (gridLayout{}).cellAt(10, 10); ok {
		t.Error("cellAt on an empty layout reported a hit")
	}
}

func TestCellColors(t *testing.T) {
	fg, bg, hasBg := cellColors(puzzle.CellView{Glyph: "X", Style: renderer.StyleCorrect}, false)
	assert.Equal(t, colorCorrect, fg)
	assert.Equal(t, colorCellBackground, bg)
	assert.True(t, hasBg)

	_, bg, hasBg = cellColors(puzzle.CellView{Glyph: "X"}, true)
	assert.Equal(t, colorCursorBg, bg)
	assert.True(t, hasBg)

	_, _, hasBg = cellColors(puzzle.CellView{Glyph: ".", Style: renderer.StyleInert}, false)
	assert.False(t, hasBg, "inert cells have no block")
}

func TestParseMarkup(t *testing.T) {
	segs := parseMarkup("Press ACTION{Hint} now")
	require.Len(t, segs, 4)
	assert.Equal(t, "Press ", segs[0].text)
	assert.Equal(t, "H", segs[1].text)
	assert.Equal(t, color.Color(colorActive), segs[1].color)
	assert.Equal(t, "int", segs[2].text)
	assert.Equal(t, color.Color(colorAction), segs[2].color)
	assert.Equal(t, " now", segs[3].text)
}

func TestParseMarkup_UnknownFunctionIsLiteral(t *testing.T) {
	segs := parseMarkup("FOO{bar}")
	require.Len(t, segs, 1)
	assert.Equal(t, "FOO{bar}", segs[0].text)
}

func TestParseMarkup_PlainText(t *testing.T) {
	segs := parseMarkup("no markup here")
	require.Len(t, segs, 1)
	assert.Equal(t, "no markup here", segs[0].text)
	assert.Empty(t, parseMarkup(""))
}

func TestLineSegments_SkipsEmptySpans(t *testing.T) {
	line := puzzle.Line{
		{Text: "Code: ", Style: renderer.StyleSubtle},
		{Text: ""},
		{Text: "1 2 3", Style: renderer.StyleActive},
	}
	segs := lineSegments(line)
	require.Len(t, segs, 2)
	assert.Equal(t, color.Color(styleColor(renderer.StyleSubtle)), segs[0].color)
	assert.Equal(t, "1 2 3", segs[1].text)
}

func TestFlashAlpha(t *testing.T) {
	tests := []struct {
		age  int64
		want float64
	}{
		{-1, 0},
		{0, 0.35},
		{200, 0.175},
		{flashDuration, 0},
		{5000, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, flashAlpha(tt.age), 1e-9, "flashAlpha(%d)", tt.age)
	}
}

func TestFlashColor(t *testing.T) {
	for _, c := range []renderer.Cue{renderer.CueError, renderer.CueAlarm, renderer.CueExplosion, renderer.CueSuccess} {
		if _, ok := flashColor(c); !ok {
			t.Errorf("flashColor(%v) = false, want true", c)
		}
	}
	for _, c := range []renderer.Cue{renderer.CueClick, renderer.CueTick, renderer.CueReveal} {
		if _, ok := flashColor(c); ok {
			t.Errorf("flashColor(%v) = true, want false", c)
		}
	}
}

func TestPulse_StaysInRange(t *testing.T) {
	for ms := int64(0); ms < 4000; ms += 37 {
		v := pulse(ms, 2000, 0.5, 1.0)
		if v < 0.5 || v > 1.0 {
			t.Fatalf("pulse(%d) = %f, want within [0.5, 1.0]", ms, v)
		}
	}
	c := pulsingColor(color.RGBA{200, 100, 50, 255}, 0)
	assert.Equal(t, uint8(255), c.A, "alpha is not pulsed")
}

func TestApplyAlpha(t *testing.T) {
	got := applyAlpha(color.RGBA{200, 100, 50, 255}, 0.5)
	assert.Equal(t, color.RGBA{100, 50, 25, 127}, got)
}

func TestSynthesize_Length(t *testing.T) {
	tones := []tone{{440, 10 * time.Millisecond}, {880, 20 * time.Millisecond}}
	buf := synthesize(tones, 1000)
	// 10 + 20 samples, two 16-bit channels each
	if len(buf) != 30*4 {
		t.Errorf("len(synthesize) = %d, want %d", len(buf), 30*4)
	}
	assert.Empty(t, synthesize(nil, sampleRate))
}

func TestCueTones_CoverLoudCues(t *testing.T) {
	for _, c := range []renderer.Cue{renderer.CueError, renderer.CueAlarm, renderer.CueSuccess} {
		if len(cueTones[c]) == 0 {
			t.Errorf("cueTones[%v] is empty", c)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{4500 * time.Millisecond, "0:05"},
		{300 * time.Second, "5:00"},
		{61 * time.Second, "1:01"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHUDFromSession(t *testing.T) {
	s := state.NewSession(stage.Hacker, sched.NewManual())
	s.GameTimer = 120 * time.Second
	s.Alert = 2
	s.ShowMessage("hello", puzzle.SeverityWarning)

	h := HUDFromSession(s, "")
	assert.Equal(t, 1, h.Stage)
	assert.Equal(t, stage.Name(1), h.StageName)
	assert.Equal(t, "Hacker", h.Role)
	assert.Equal(t, 120*time.Second, h.Timer)
	assert.Equal(t, 2, h.Alert)
	require.Len(t, h.Messages, 1)

	// The HUD keeps its own copy of the log
	s.ShowMessage("later", puzzle.SeverityInfo)
	assert.Len(t, h.Messages, 1)
	assert.False(t, h.Verifying)

	s.DisableSubmit()
	assert.True(t, HUDFromSession(s, "").Verifying)
}
