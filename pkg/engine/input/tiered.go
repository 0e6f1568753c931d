package input

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Device represents a physical input source.
type Device int

const (
	DeviceUnknown Device = iota
	DeviceKeyboard
	DeviceMouse
	DeviceGamepad
	DeviceTerminal
	DeviceRemote
)

// Action represents a high‑level intent on a puzzle.
type Action int

const (
	ActionNone Action = iota

	// Cursor movement over cells, digits, locks or sections
	ActionCursorUp
	ActionCursorDown
	ActionCursorLeft
	ActionCursorRight

	// Value manipulation
	ActionIncrease // rotate a dial clockwise / bump a value
	ActionDecrease
	ActionDigit // Value holds 0-9
	ActionClear // drop the current partial entry

	// Selection
	ActionSelect // select whatever is under the cursor
	ActionPick   // select by index, Value holds the index (pointer devices)
	ActionNext   // focus the next lock/section
	ActionSubmit // confirm / detonate / submit

	// Entry carries a full typed answer in Text ("12 47 83")
	ActionEntry

	// Meta
	ActionPower
	ActionVote // ask the crew for more time, or vote yes on an open request
	ActionHint
	ActionQuit
)

// Intent is the 4th‑layer, high‑level description of what the player wants to do.
type Intent struct {
	Action Action
	Value  int
	Text   string
}

// Pick returns a pointer selection intent for the given cell or element index.
func Pick(idx int) Intent {
	return Intent{Action: ActionPick, Value: idx}
}

// Entry returns an intent carrying a typed answer.
func Entry(text string) Intent {
	return Intent{Action: ActionEntry, Text: text}
}

// RawInput is the 1st‑layer event emitted directly from an input device.
// Code is a device‑specific identifier (e.g. "arrow_up", "7", "enter").
type RawInput struct {
	Device    Device
	Code      string
	Timestamp time.Time
}

// DebouncedInput is the 2nd‑layer representation after debouncing/deduplication.
type DebouncedInput struct {
	Device Device
	Code   string
}

// Debouncer drops repeats of the same code that arrive within Window of each other.
// Dial knobs held down on some terminals autorepeat faster than the widgets can animate.
type Debouncer struct {
	Window time.Duration

	last     string
	lastTime time.Time
}

// Accept converts a raw event to a debounced one, reporting false if it should be dropped.
func (d *Debouncer) Accept(raw RawInput) (DebouncedInput, bool) {
	ev := DebouncedInput{Device: raw.Device, Code: raw.Code}
	if d == nil || d.Window <= 0 {
		return ev, true
	}
	if raw.Code == d.last && raw.Timestamp.Sub(d.lastTime) < d.Window {
		return ev, false
	}
	d.last = raw.Code
	d.lastTime = raw.Timestamp
	return ev, true
}

// NewDebouncedInput converts a raw event to a debounced event without a repeat window.
func NewDebouncedInput(raw RawInput) DebouncedInput {
	return DebouncedInput{
		Device: raw.Device,
		Code:   raw.Code,
	}
}

var bindingsMu sync.RWMutex

// bindings maps raw codes to actions (3rd-layer bindings).
// Multiple codes may point to the same Action.
var bindings = map[string]Action{
	// Cursor (arrows, Vim)
	"arrow_up":    ActionCursorUp,
	"k":           ActionCursorUp,
	"arrow_down":  ActionCursorDown,
	"j":           ActionCursorDown,
	"arrow_left":  ActionCursorLeft,
	"h":           ActionCursorLeft,
	"arrow_right": ActionCursorRight,
	"l":           ActionCursorRight,

	// Dials
	"+":          ActionIncrease,
	"=":          ActionIncrease,
	"numpad_add": ActionIncrease,
	"-":          ActionDecrease,
	"numpad_sub": ActionDecrease,

	"backspace": ActionClear,
	"c":         ActionClear,

	" ":     ActionSelect,
	"space": ActionSelect,
	"tab":   ActionNext,
	"enter": ActionSubmit,

	// Gamepad (XInput layout)
	"gamepad_dpad_up":    ActionCursorUp,
	"gamepad_dpad_down":  ActionCursorDown,
	"gamepad_dpad_left":  ActionCursorLeft,
	"gamepad_dpad_right": ActionCursorRight,
	"gamepad_a":          ActionSelect,
	"gamepad_x":          ActionSubmit,
	"gamepad_y":          ActionPower,
	"gamepad_lb":         ActionDecrease,
	"gamepad_rb":         ActionIncrease,
	"gamepad_back":       ActionHint,
	"gamepad_start":      ActionNext,
	"gamepad_b":          ActionQuit,

	"p":      ActionPower,
	"v":      ActionVote,
	"?":      ActionHint,
	"hint":   ActionHint,
	"q":      ActionQuit,
	"quit":   ActionQuit,
	"escape": ActionQuit,
}

// MapToIntent is the 3rd+4th layer: it applies the current bindings to a
// debounced input and returns a high‑level Intent.
func MapToIntent(ev DebouncedInput) Intent {
	if len(ev.Code) == 1 && ev.Code[0] >= '0' && ev.Code[0] <= '9' {
		return Intent{Action: ActionDigit, Value: int(ev.Code[0] - '0')}
	}
	if rest, ok := strings.CutPrefix(ev.Code, "pick:"); ok {
		if idx, err := strconv.Atoi(rest); err == nil && idx >= 0 {
			return Pick(idx)
		}
		return Intent{Action: ActionNone}
	}
	bindingsMu.RLock()
	defer bindingsMu.RUnlock()
	if act, ok := bindings[ev.Code]; ok {
		return Intent{Action: act}
	}
	return Intent{Action: ActionNone}
}

// ActionName returns a human-friendly name for an action.
func ActionName(a Action) string {
	switch a {
	case ActionCursorUp:
		return "Cursor Up"
	case ActionCursorDown:
		return "Cursor Down"
	case ActionCursorLeft:
		return "Cursor Left"
	case ActionCursorRight:
		return "Cursor Right"
	case ActionIncrease:
		return "Increase"
	case ActionDecrease:
		return "Decrease"
	case ActionDigit:
		return "Digit"
	case ActionClear:
		return "Clear"
	case ActionSelect:
		return "Select"
	case ActionPick:
		return "Pick"
	case ActionNext:
		return "Next"
	case ActionSubmit:
		return "Submit"
	case ActionEntry:
		return "Entry"
	case ActionPower:
		return "Use Power"
	case ActionVote:
		return "Vote"
	case ActionHint:
		return "Hint"
	case ActionQuit:
		return "Quit"
	default:
		return "None"
	}
}

// GetBindingsByAction returns the current bindings grouped by action.
func GetBindingsByAction() map[Action][]string {
	bindingsMu.RLock()
	defer bindingsMu.RUnlock()
	result := make(map[Action][]string)
	for code, act := range bindings {
		result[act] = append(result[act], code)
	}
	for act, codes := range result {
		sort.Strings(codes)
		result[act] = codes
	}
	return result
}

// reserved codes cannot be rebound or unbound.
func reserved(code string) bool {
	switch code {
	case "arrow_up", "arrow_down", "arrow_left", "arrow_right", "enter", "escape":
		return true
	}
	return false
}

// SetSingleBinding replaces all bindings for the given action with a single code.
func SetSingleBinding(action Action, code string) {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()
	for c, a := range bindings {
		if reserved(c) {
			continue
		}
		if a == action {
			delete(bindings, c)
		}
	}
	if code != "" && !reserved(code) {
		bindings[code] = action
	}
}
