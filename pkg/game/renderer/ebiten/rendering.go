package ebiten

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/leonelquinteros/gotext"

	"heist/pkg/game/puzzle"
)

const (
	margin        = 16
	messageLines  = 5
	footerControl = "ACTION{Power}  ACTION{Vote}  ACTION{Hint}  ACTION{Quit}"
)

// Draw renders the frame (Ebiten interface)
func (e *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	snap := e.getSnapshot()
	screenWidth, screenHeight := screen.Bounds().Dx(), screen.Bounds().Dy()
	lineHeight := int(e.getUIFontSize()) + 6
	now := time.Now().UnixMilli()

	y := margin
	if snap.hasHUD {
		y = e.drawHeader(screen, snap.hud, y, screenWidth)
	}

	if snap.hasView {
		y = e.drawView(screen, snap.view, y, lineHeight, now)
	} else {
		e.drawColoredText(screen, gotext.Get("Waiting for the crew..."), margin, y, colorSubtle, e.getSansFontFace())
	}

	if snap.hasHUD {
		e.drawMessages(screen, snap.hud, screenWidth, screenHeight, lineHeight)
		if snap.hud.Result != "" {
			e.drawResult(screen, snap.hud.Result, screenWidth, screenHeight)
		}
	}

	if c, ok := flashColor(snap.flashCue); ok && snap.flashAt > 0 {
		if alpha := flashAlpha(now - snap.flashAt); alpha > 0 {
			vector.DrawFilledRect(screen, 0, 0, float32(screenWidth), float32(screenHeight), applyAlpha(c, alpha), false)
		}
	}
}

// drawHeader draws stage, role, game timer and alert level on one line.
func (e *Renderer) drawHeader(screen *ebiten.Image, h HUD, y, screenWidth int) int {
	face := e.getSansFontFace()
	vector.DrawFilledRect(screen, 0, 0, float32(screenWidth), float32(y+int(face.Size)+margin/2), colorPanelBackground, false)

	segments := []textSegment{
		{text: fmt.Sprintf("%s %d: %s", gotext.Get("Stage"), h.Stage, h.StageName), color: colorAction},
		{text: "    " + dynamicGet(h.Role), color: colorTitle},
	}
	if h.Timer > 0 {
		col := colorText
		if h.Timer <= 30*time.Second {
			col = colorDenied
		}
		segments = append(segments, textSegment{text: "    " + formatDuration(h.Timer), color: col})
	}
	if h.Countdown > 0 {
		segments = append(segments, textSegment{text: "    " + gotext.Get("Locked for") + " " + formatDuration(h.Countdown), color: colorWarning})
	}
	if h.Alert > 0 {
		segments = append(segments, textSegment{text: fmt.Sprintf("    %s %d", gotext.Get("Alert"), h.Alert), color: colorWarning})
	}
	if h.Verifying {
		segments = append(segments, textSegment{text: "    " + gotext.Get("Verifying..."), color: colorSubtle})
	}
	e.drawSegments(screen, segments, margin, y, face)
	return y + int(face.Size) + margin*2
}

// drawView draws the widget title, banner, body lines, grid, status and countdown.
func (e *Renderer) drawView(screen *ebiten.Image, v puzzle.View, y, lineHeight int, now int64) int {
	if v.Title != "" {
		bold := e.getSansBoldFontFace()
		e.drawColoredText(screen, v.Title, margin, y, colorTitle, bold)
		y += int(bold.Size) + 12
	}

	if v.Disabled {
		banner := gotext.Get("Interaction disabled")
		if v.Event != "" {
			banner = fmt.Sprintf("%s: %s", gotext.Get("Security alert"), eventName(v.Event))
		}
		e.drawColoredText(screen, "!! "+banner+" !!", margin, y, pulsingColor(colorWarning, now), e.getSansFontFace())
		y += lineHeight
	}

	face := e.getSansFontFace()
	for _, line := range v.Lines {
		e.drawSegments(screen, lineSegments(line), margin, y, face)
		y += lineHeight
	}

	if v.Grid != nil && v.Grid.Rows > 0 && v.Grid.Cols > 0 {
		y += 8
		y += e.drawGrid(screen, v.Grid, margin, y) + 8
	} else {
		e.grid = gridLayout{}
	}

	if v.Status != "" {
		e.drawColoredText(screen, v.Status, margin, y, severityColor(v.Severity), face)
		y += lineHeight
	}
	if v.Remaining > 0 {
		e.drawSegments(screen, []textSegment{
			{text: gotext.Get("Time left:") + " ", color: colorSubtle},
			{text: formatDuration(v.Remaining), color: colorText},
		}, margin, y, face)
		y += lineHeight
	}
	if v.Controls != "" {
		e.drawColoredText(screen, v.Controls, margin, y, colorSubtle, face)
		y += lineHeight
	}
	return y
}

// drawMessages draws the newest session messages in a panel along the bottom edge, with the
// footer controls underneath.
func (e *Renderer) drawMessages(screen *ebiten.Image, h HUD, screenWidth, screenHeight, lineHeight int) {
	face := e.getSansFontFace()
	panelHeight := lineHeight*(messageLines+1) + margin
	top := screenHeight - panelHeight - lineHeight
	vector.DrawFilledRect(screen, 0, float32(top), float32(screenWidth), float32(panelHeight+lineHeight), colorPanelBackground, false)

	msgs := h.Messages
	if len(msgs) > messageLines {
		msgs = msgs[len(msgs)-messageLines:]
	}
	y := top + margin/2
	if len(msgs) == 0 {
		e.drawColoredText(screen, gotext.Get("(no messages)"), margin, y, colorSubtle, face)
	}
	for i, m := range msgs {
		// Older messages fade
		alpha := 0.5 + 0.5*float64(i+1)/float64(len(msgs))
		e.drawColoredText(screen, m.Text, margin, y, applyAlpha(severityColor(m.Severity), alpha), face)
		y += lineHeight
	}

	e.drawSegments(screen, parseMarkup(footerControl), margin, screenHeight-lineHeight-margin/2, face)
}

// drawResult dims the screen and shows how the heist ended.
func (e *Renderer) drawResult(screen *ebiten.Image, result string, screenWidth, screenHeight int) {
	vector.DrawFilledRect(screen, 0, 0, float32(screenWidth), float32(screenHeight), colorPanelBackground, false)
	bold := e.getSansBoldFontFace()
	e.drawColoredText(screen, result, margin*2, screenHeight/2, colorTitle, bold)
}

func eventName(ev puzzle.EventType) string {
	switch ev {
	case puzzle.EventSecurityPatrol:
		return gotext.Get("Security patrol")
	case puzzle.EventCameraSweep:
		return gotext.Get("Camera sweep")
	case puzzle.EventSystemCheck:
		return gotext.Get("System check")
	case puzzle.EventAlarm:
		return gotext.Get("Alarm")
	default:
		return string(ev)
	}
}

// formatDuration renders d as m:ss, rounding up to the next second.
func formatDuration(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
