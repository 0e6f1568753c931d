// Package renderer holds the presentation vocabulary shared by puzzle widgets and the
// frontends that draw them (terminal, Ebiten window, test recorder).
package renderer

// TextStyle represents different text styling options
type TextStyle int

const (
	StyleNormal TextStyle = iota
	StyleTitle
	StyleSubtle
	StyleCursor
	StyleActive   // element currently lit / highlighted
	StyleSelected // element the player picked
	StyleCorrect
	StyleClose
	StyleDenied
	StyleWarning
	StyleSuccess
	StyleWall
	StyleSensitive
	StyleCharge
	StylePath
	StyleExit
	StyleInert
)

// String returns the style name, used by text snapshots in tests.
func (s TextStyle) String() string {
	switch s {
	case StyleNormal:
		return "normal"
	case StyleTitle:
		return "title"
	case StyleSubtle:
		return "subtle"
	case StyleCursor:
		return "cursor"
	case StyleActive:
		return "active"
	case StyleSelected:
		return "selected"
	case StyleCorrect:
		return "correct"
	case StyleClose:
		return "close"
	case StyleDenied:
		return "denied"
	case StyleWarning:
		return "warning"
	case StyleSuccess:
		return "success"
	case StyleWall:
		return "wall"
	case StyleSensitive:
		return "sensitive"
	case StyleCharge:
		return "charge"
	case StylePath:
		return "path"
	case StyleExit:
		return "exit"
	case StyleInert:
		return "inert"
	default:
		return "unknown"
	}
}

// Cue is a short sound effect a widget asks the audio backend to play.
type Cue int

const (
	CueClick Cue = iota
	CueTick
	CueReveal
	CueError
	CueAlarm
	CueExplosion
	CueSuccess
)

// String returns the cue name.
func (c Cue) String() string {
	switch c {
	case CueClick:
		return "click"
	case CueTick:
		return "tick"
	case CueReveal:
		return "reveal"
	case CueError:
		return "error"
	case CueAlarm:
		return "alarm"
	case CueExplosion:
		return "explosion"
	case CueSuccess:
		return "success"
	default:
		return "unknown"
	}
}
