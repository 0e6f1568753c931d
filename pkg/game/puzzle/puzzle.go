// Package puzzle defines the contract every heist mini-game widget implements, the lifecycle state
// machine they share and the factory registry the dispatcher mounts them from.
package puzzle

import (
	"errors"
	"time"

	"heist/pkg/engine/input"
)

// Type tags a puzzle variant. It is the dispatcher key.
type Type string

// Puzzle variant tags
const (
	TypeCombination  Type = "combination"
	TypePattern      Type = "pattern"
	TypePatternWalk  Type = "pattern_walk"
	TypeLockBank     Type = "lock_bank"
	TypeOrderedLocks Type = "ordered_locks"
	TypeTimedBank    Type = "timed_bank"
	TypeVault        Type = "vault"
	TypeDetonation   Type = "detonation"
)

// Phase is the widget lifecycle state. A widget is in exactly one phase at a time and
// PhaseCompleted is terminal.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseActive
	PhaseLockedByEvent
	PhaseCompleted
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseActive:
		return "active"
	case PhaseLockedByEvent:
		return "locked"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Severity classifies a player-facing message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the severity name
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// EventType names a random security event pushed by the host.
type EventType string

// Random events
const (
	EventSecurityPatrol EventType = "security_patrol"
	EventCameraSweep    EventType = "camera_sweep"
	EventSystemCheck    EventType = "system_check"
	// EventAlarm is raised by the vault widget itself.
	EventAlarm EventType = "alarm"
)

// HostEvents are the events the host may schedule.
var HostEvents = []EventType{EventSecurityPatrol, EventCameraSweep, EventSystemCheck}

// Widget is the lifecycle contract shared by every puzzle variant.
type Widget interface {
	// Type returns the variant tag.
	Type() Type
	// Phase returns the current lifecycle phase.
	Phase() Phase
	// Initialize builds the view, adopts or generates the target and arms timers.
	Initialize() error
	// HandleRandomEvent locks input for d unless the widget has completed.
	HandleRandomEvent(ev EventType, d time.Duration)
	// DisableInteraction toggles input acceptance independently of the phase.
	DisableInteraction(disabled bool)
	// ShowSuccess moves the widget to PhaseCompleted. It is idempotent.
	ShowSuccess()
	// Cleanup cancels every timer and pending submission. It is idempotent.
	Cleanup()
	// HandleIntent applies one player input.
	HandleIntent(in input.Intent) error
}

// Bypasser is implemented by widgets that let the Safe Cracker skip part of the puzzle.
type Bypasser interface {
	Bypass() error
}

var (
	// ErrUnknownType is returned when no constructor is registered for a type tag.
	ErrUnknownType = errors.New("unknown puzzle type")
	// ErrInvalidConfig is returned for out-of-range difficulty or undecodable pre-generated data.
	ErrInvalidConfig = errors.New("invalid puzzle configuration")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("puzzle already initialized")
	// ErrNotInitialized is returned for input before Initialize.
	ErrNotInitialized = errors.New("puzzle not initialized")
	// ErrClosed is returned for any call after Cleanup.
	ErrClosed = errors.New("puzzle cleaned up")
	// ErrCompleted is returned for mutating input after success.
	ErrCompleted = errors.New("puzzle already completed")
	// ErrLocked is returned while a random event holds the widget.
	ErrLocked = errors.New("puzzle locked by security event")
	// ErrDisabled is returned while the host has disabled interaction.
	ErrDisabled = errors.New("interaction disabled")
	// ErrBusy is returned while a submission is awaiting the host's verdict.
	ErrBusy = errors.New("submission in progress")
	// ErrInvalidInput is the root of every rejected player input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported is returned for intents the variant does not understand.
	ErrUnsupported = errors.New("unsupported input")
)

// IsInputRejection reports whether err means "the input was refused" rather than a fault.
func IsInputRejection(err error) bool {
	for _, e := range []error{ErrInvalidInput, ErrUnsupported, ErrLocked, ErrDisabled, ErrBusy, ErrCompleted} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
