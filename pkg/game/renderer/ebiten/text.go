package ebiten

import (
	"image/color"
	"regexp"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/leonelquinteros/gotext"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

// dynamicGet is used for runtime translation key lookups.
// We use a function variable to avoid go vet's non-constant format string check,
// since we intentionally look up translation keys dynamically from markup.
var dynamicGet = gotext.Get

var markupRegex = regexp.MustCompile(`([A-Z][A-Z0-9_]*)\{([^}]*)\}`)

// styleColor returns the palette colour for a widget text style.
func styleColor(s renderer.TextStyle) color.RGBA {
	if c, ok := styleColors[s]; ok {
		return c
	}
	return colorText
}

// severityColor returns the colour of a status or message line.
func severityColor(s puzzle.Severity) color.RGBA {
	switch s {
	case puzzle.SeveritySuccess:
		return colorSuccess
	case puzzle.SeverityWarning:
		return colorWarning
	case puzzle.SeverityError:
		return colorDenied
	default:
		return colorText
	}
}

// lineSegments converts a styled widget line to coloured segments.
func lineSegments(line puzzle.Line) []textSegment {
	segments := make([]textSegment, 0, len(line))
	for _, span := range line {
		if span.Text == "" {
			continue
		}
		segments = append(segments, textSegment{text: span.Text, color: styleColor(span.Style)})
	}
	return segments
}

// parseMarkup parses a string with markup (ACTION{}, ROLE{}, GT{}) and returns colored segments
func parseMarkup(msg string) []textSegment {
	var segments []textSegment

	lastIndex := 0
	for _, match := range markupRegex.FindAllStringSubmatchIndex(msg, -1) {
		// Add text before the markup
		if match[0] > lastIndex {
			segments = append(segments, textSegment{text: msg[lastIndex:match[0]], color: colorText})
		}

		function := msg[match[2]:match[3]]
		content := msg[match[4]:match[5]]

		switch function {
		case "ACTION":
			if content != "" {
				segments = append(segments,
					textSegment{text: content[:1], color: colorActive},
					textSegment{text: content[1:], color: colorAction})
			}
		case "ROLE":
			segments = append(segments, textSegment{text: dynamicGet(content), color: colorTitle})
		case "GT":
			segments = append(segments, textSegment{text: dynamicGet(content), color: colorText})
		default:
			segments = append(segments, textSegment{text: msg[match[0]:match[1]], color: colorText})
		}
		lastIndex = match[1]
	}
	if lastIndex < len(msg) {
		segments = append(segments, textSegment{text: msg[lastIndex:], color: colorText})
	}
	return segments
}

// applyAlpha scales a colour's opacity.
func applyAlpha(c color.Color, alpha float64) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{
		R: uint8(float64(r>>8) * alpha),
		G: uint8(float64(g>>8) * alpha),
		B: uint8(float64(b>>8) * alpha),
		A: uint8(float64(a>>8) * alpha),
	}
}

// drawColoredText draws text in one colour with face.
func (e *Renderer) drawColoredText(screen *ebiten.Image, str string, x, y int, col color.Color, face *text.GoTextFace) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(col)
	text.Draw(screen, str, face, op)
}

// drawSegments draws segments left to right and returns the width used.
func (e *Renderer) drawSegments(screen *ebiten.Image, segments []textSegment, x, y int, face *text.GoTextFace) int {
	cx := float64(x)
	for _, seg := range segments {
		op := &text.DrawOptions{}
		op.GeoM.Translate(cx, float64(y))
		op.ColorScale.ScaleWithColor(seg.color)
		text.Draw(screen, seg.text, face, op)
		w, _ := text.Measure(seg.text, face, 0)
		cx += w
	}
	return int(cx) - x
}
