// Package input turns device events into puzzle intents.
package input

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// ErrInterrupt is returned when the player presses Ctrl+C in raw mode.
var ErrInterrupt = errors.New("interrupted")

// KeyReader decodes single keypresses, including arrow escape sequences, from a raw terminal.
type KeyReader struct {
	r *bufio.Reader
}

// NewKeyReader reads keys from r.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: bufio.NewReader(r)}
}

// RawMode puts stdin into raw mode and returns the function that restores it.
func RawMode() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, oldState) }, nil
}

// ReadRaw blocks for the next key and returns it as a RawInput.
func (k *KeyReader) ReadRaw() (RawInput, error) {
	code, err := k.readCode()
	if err != nil {
		return RawInput{}, err
	}
	return RawInput{Device: DeviceTerminal, Code: code, Timestamp: time.Now()}, nil
}

func (k *KeyReader) readCode() (string, error) {
	for {
		b, err := k.r.ReadByte()
		if err != nil {
			return "", err
		}
		switch {
		case b == 3:
			return "", ErrInterrupt
		case b == 0x1b:
			if code, ok := k.readEscape(); ok {
				return code, nil
			}
			return "escape", nil
		case b == '\r' || b == '\n':
			return "enter", nil
		case b == '\t':
			return "tab", nil
		case b == 127 || b == 8:
			return "backspace", nil
		case b == ' ':
			return "space", nil
		case b >= 33 && b < 127:
			return string(b), nil
		}
		// Anything else (other control bytes) is ignored.
	}
}

// readEscape reads the rest of a CSI (ESC [) or SS3 (ESC O) arrow sequence if one is buffered.
func (k *KeyReader) readEscape() (string, bool) {
	if k.r.Buffered() == 0 {
		return "", false
	}
	b2, err := k.r.ReadByte()
	if err != nil || (b2 != '[' && b2 != 'O') {
		return "", false
	}
	b3, err := k.r.ReadByte()
	if err != nil {
		return "", false
	}
	switch b3 {
	case 'A':
		return "arrow_up", true
	case 'B':
		return "arrow_down", true
	case 'C':
		return "arrow_right", true
	case 'D':
		return "arrow_left", true
	}
	return "", false
}

// Stream reads keys until an error and sends the mapped intents on out. ActionNone is dropped.
// Stream closes out when it returns.
func (k *KeyReader) Stream(d *Debouncer, out chan<- Intent) error {
	defer close(out)
	for {
		raw, err := k.ReadRaw()
		if err != nil {
			return err
		}
		ev, ok := d.Accept(raw)
		if !ok {
			continue
		}
		intent := MapToIntent(ev)
		if intent.Action == ActionNone {
			continue
		}
		out <- intent
	}
}
