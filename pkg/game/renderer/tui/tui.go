// Package tui draws puzzle views on a colour terminal.
package tui

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/leonelquinteros/gotext"

	"heist/pkg/engine/terminal"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
	"heist/pkg/game/stage"
	"heist/pkg/game/state"
)

// dynamicGet is used for runtime translation key lookups.
// We use a function variable to avoid go vet's non-constant format string check,
// since we intentionally look up translation keys dynamically from markup.
var dynamicGet = gotext.Get

// Renderer is the terminal puzzle surface. Draw repaints the whole frame.
type Renderer struct {
	out     io.Writer
	session *state.Session

	// Width overrides the terminal width when positive.
	Width int
	// ClearScreen erases the terminal before each frame.
	ClearScreen bool

	styles       map[renderer.TextStyle]color.Style
	colorAction  color.Style
	colorShort   color.Style
	colorRole    color.Style
	markupRegexp *regexp.Regexp

	mu   sync.Mutex
	last puzzle.View
	have bool
}

// New creates a renderer writing to out. session, when set, feeds the header and message pane.
func New(out io.Writer, session *state.Session) *Renderer {
	t := &Renderer{out: out, session: session}
	t.Init()
	return t
}

// Init sets up colours and the markup parser.
func (t *Renderer) Init() {
	t.styles = map[renderer.TextStyle]color.Style{
		renderer.StyleTitle:     {color.FgCyan, color.OpBold},
		renderer.StyleSubtle:    {color.FgGray, color.OpBold},
		renderer.StyleCursor:    {color.FgBlack, color.BgWhite},
		renderer.StyleActive:    {color.FgYellow, color.OpBold},
		renderer.StyleSelected:  {color.FgMagenta, color.OpBold},
		renderer.StyleCorrect:   {color.FgGreen, color.OpBold},
		renderer.StyleClose:     {color.FgYellow},
		renderer.StyleDenied:    {color.FgRed, color.OpBold},
		renderer.StyleWarning:   {color.FgYellow, color.OpBold},
		renderer.StyleSuccess:   {color.FgGreen},
		renderer.StyleWall:      {color.FgGray},
		renderer.StyleSensitive: {color.FgRed},
		renderer.StyleCharge:    {color.FgMagenta},
		renderer.StylePath:      {color.FgBlue},
		renderer.StyleExit:      {color.FgGreen, color.OpBold},
		renderer.StyleInert:     {color.FgDarkGray},
	}
	t.colorAction = color.Style{color.FgMagenta}
	t.colorShort = color.Style{color.FgMagenta, color.OpBold}
	t.colorRole = color.Style{color.FgBlue, color.OpBold}

	t.markupRegexp = regexp.MustCompile(`([a-zA-Z_]*){([a-z A-Z0-9_,:]+)}`)
}

var _ puzzle.Surface = (*Renderer)(nil)

// Draw keeps v as the current view and repaints.
func (t *Renderer) Draw(v puzzle.View) {
	t.mu.Lock()
	t.last = v
	t.have = true
	t.mu.Unlock()
	t.Redraw()
}

// Redraw repaints the current view, e.g. after the header changed. Before the first view only a
// session-backed renderer draws, showing the header and messages of the lobby.
func (t *Renderer) Redraw() {
	t.mu.Lock()
	v, ok := t.last, t.have
	t.mu.Unlock()
	if !ok && t.session == nil {
		return
	}
	if t.ClearScreen {
		terminal.Clear(t.out)
	}
	fmt.Fprint(t.out, t.Frame(v))
}

// StyleText applies a text style.
func (t *Renderer) StyleText(text string, style renderer.TextStyle) string {
	s, ok := t.styles[style]
	if !ok {
		return text
	}
	return s.Sprint(text)
}

// FormatText formats a message with the markup system: GT{key} translates, ACTION{Quit}
// highlights the first letter as the shortcut, ROLE{Hacker} colours a role.
func (t *Renderer) FormatText(msg string, args ...any) string {
	ret := fmt.Sprintf(msg, args...)

	for _, match := range t.markupRegexp.FindAllStringSubmatch(ret, -1) {
		function := match[1]
		operand := match[2]

		var val string
		switch function {
		case "GT":
			val = dynamicGet(operand)
		case "ACTION":
			val = t.colorShort.Sprint(operand[0:1]) + t.colorAction.Sprint(operand[1:])
		case "ROLE":
			val = t.colorRole.Sprint(dynamicGet(operand))
		default:
			return fmt.Sprintf("ERROR, function not found: %v -> %v", function, operand)
		}
		ret = strings.Replace(ret, match[0], val, -1)
	}
	return ret
}

func (t *Renderer) width() int {
	if t.Width > 0 {
		return t.Width
	}
	w, _ := terminal.GetSize()
	return w
}

// Frame renders v with the session header and message pane.
func (t *Renderer) Frame(v puzzle.View) string {
	var sb strings.Builder

	if t.session != nil {
		t.printHeader(&sb)
	}

	if v.Title != "" {
		sb.WriteString(t.StyleText(v.Title, renderer.StyleTitle))
		sb.WriteString("\n\n")
	}
	if v.Disabled {
		banner := gotext.Get("Interaction disabled")
		if v.Event != "" {
			banner = fmt.Sprintf("%s: %s", gotext.Get("Security alert"), eventName(v.Event))
		}
		sb.WriteString(t.StyleText("!! "+banner+" !!", renderer.StyleWarning))
		sb.WriteString("\n\n")
	}

	for _, line := range v.Lines {
		for _, span := range line {
			sb.WriteString(t.StyleText(span.Text, span.Style))
		}
		sb.WriteByte('\n')
	}
	if v.Grid != nil {
		if len(v.Lines) > 0 {
			sb.WriteByte('\n')
		}
		t.printGrid(&sb, v.Grid)
	}

	if v.Status != "" {
		sb.WriteByte('\n')
		sb.WriteString(t.StyleText(v.Status, severityStyle(v.Severity)))
		sb.WriteByte('\n')
	}
	if remaining := t.countdown(v); remaining > 0 {
		fmt.Fprintf(&sb, "%s %s\n", t.StyleText(gotext.Get("Time left:"), renderer.StyleSubtle), FormatDuration(remaining))
	}

	if t.session != nil {
		t.printMessagesPane(&sb)
	}
	if v.Controls != "" {
		sb.WriteString(t.StyleText(v.Controls, renderer.StyleSubtle))
		sb.WriteByte('\n')
	}
	sb.WriteString(t.FormatText("ACTION{Power}  ACTION{Vote}  ACTION{Hint}  ACTION{Quit}\n"))
	return sb.String()
}

func (t *Renderer) printHeader(sb *strings.Builder) {
	s := t.session
	fmt.Fprintf(sb, "%s %d: %s    ", t.colorAction.Sprint(gotext.Get("Stage")), s.Level, stage.Name(s.Level))
	sb.WriteString(t.FormatText("ROLE{%s}", s.Role))
	if s.GameTimer > 0 {
		style := renderer.StyleNormal
		if s.GameTimer <= 30*time.Second {
			style = renderer.StyleDenied
		}
		fmt.Fprintf(sb, "    %s", t.StyleText(FormatDuration(s.GameTimer), style))
	}
	if s.Alert > 0 {
		fmt.Fprintf(sb, "    %s", t.StyleText(fmt.Sprintf("%s %d", gotext.Get("Alert"), s.Alert), renderer.StyleWarning))
	}
	if s.SubmitDisabled {
		fmt.Fprintf(sb, "    %s", t.StyleText(gotext.Get("Verifying..."), renderer.StyleSubtle))
	}
	sb.WriteString("\n\n")
}

func (t *Renderer) printGrid(sb *strings.Builder, g *puzzle.GridView) {
	for r := 0; r < g.Rows; r++ {
		sb.WriteString("  ")
		for c := 0; c < g.Cols; c++ {
			i := r*g.Cols + c
			cell := g.Cells[i]
			style := cell.Style
			if i == g.Cursor {
				style = renderer.StyleCursor
			}
			sb.WriteString(t.StyleText(cell.Glyph, style))
			if c < g.Cols-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
}

// printMessagesPane renders the messages log pane
func (t *Renderer) printMessagesPane(sb *strings.Builder) {
	width := t.width()

	label := " " + gotext.Get("Messages") + " "
	labelLen := len([]rune(label))
	sideLen := (width - labelLen) / 2
	if sideLen < 1 {
		sideLen = 1
	}
	leftDashes := strings.Repeat("─", sideLen)
	rightDashes := strings.Repeat("─", max(width-sideLen-labelLen, 1))

	sb.WriteByte('\n')
	sb.WriteString(t.StyleText(leftDashes+label+rightDashes, renderer.StyleSubtle))
	sb.WriteByte('\n')

	if len(t.session.Messages) == 0 {
		sb.WriteString(t.StyleText("  "+gotext.Get("(no messages)"), renderer.StyleSubtle))
		sb.WriteByte('\n')
	} else {
		for _, msg := range t.session.Messages {
			fmt.Fprintf(sb, "  %s\n", t.StyleText(msg.Text, severityStyle(msg.Severity)))
		}
	}
	sb.WriteString(t.StyleText(strings.Repeat("─", width), renderer.StyleSubtle))
	sb.WriteByte('\n')
}

func (t *Renderer) countdown(v puzzle.View) time.Duration {
	if v.Remaining > 0 {
		return v.Remaining
	}
	if t.session != nil {
		return t.session.Countdown()
	}
	return 0
}

func severityStyle(s puzzle.Severity) renderer.TextStyle {
	switch s {
	case puzzle.SeveritySuccess:
		return renderer.StyleSuccess
	case puzzle.SeverityWarning:
		return renderer.StyleWarning
	case puzzle.SeverityError:
		return renderer.StyleDenied
	default:
		return renderer.StyleNormal
	}
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

// FormatDuration renders d as m:ss, rounding up to the next second.
func FormatDuration(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Bell is the terminal audio backend: failure and alarm cues ring the bell, the rest are silent.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell creates a bell writing to out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

var _ puzzle.Audio = (*Bell)(nil)

// Play rings for error, alarm, explosion and success cues.
func (b *Bell) Play(c renderer.Cue) {
	switch c {
	case renderer.CueError, renderer.CueAlarm, renderer.CueExplosion, renderer.CueSuccess:
		b.mu.Lock()
		terminal.Bell(b.out)
		b.mu.Unlock()
	}
}
