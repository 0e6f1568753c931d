package puzzle

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseInts splits typed entry text on spaces, commas and dashes ("12-47-83", "12, 47 83").
func ParseInts(text string) ([]int, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '-' || r == '/'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty entry", ErrInvalidInput)
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, f)
		}
		out = append(out, n)
	}
	return out, nil
}

// CheckRange rejects any value outside [lo, hi].
func CheckRange(values []int, lo, hi int) error {
	for i, v := range values {
		if v < lo || v > hi {
			return fmt.Errorf("%w: value %d at position %d outside [%d,%d]", ErrInvalidInput, v, i+1, lo, hi)
		}
	}
	return nil
}

// CheckLen rejects entries of the wrong length.
func CheckLen(n, want int) error {
	if n != want {
		return fmt.Errorf("%w: got %d values, want %d", ErrInvalidInput, n, want)
	}
	return nil
}

// InvalidMessage is the player-facing text for a rejected input.
const InvalidMessage = "Invalid input. Please check your entry."
