package puzzle

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Config is the immutable input handed to a widget by the host.
type Config struct {
	Type       Type            `json:"type" yaml:"type"`
	Difficulty int             `json:"difficulty" yaml:"difficulty"`
	Data       json.RawMessage `json:"data,omitempty" yaml:"-"`
}

// Validate checks the difficulty range.
func (c Config) Validate() error {
	if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: difficulty %d outside [%d,%d]", ErrInvalidConfig, c.Difficulty, MinDifficulty, MaxDifficulty)
	}
	return nil
}

// HasData reports whether the host pre-generated the target.
func (c Config) HasData() bool {
	trimmed := bytes.TrimSpace(c.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// DecodeData unmarshals pre-generated data into v. It reports false when there is none.
func (c Config) DecodeData(v any) (bool, error) {
	if !c.HasData() {
		return false, nil
	}
	if err := json.Unmarshal(c.Data, v); err != nil {
		return false, fmt.Errorf("%w: %s data: %v", ErrInvalidConfig, c.Type, err)
	}
	return true, nil
}

// ClampDifficulty forces d into the supported range.
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// Scale linearly interpolates between lo (difficulty 1) and hi (difficulty 5).
func Scale(difficulty int, lo, hi float64) float64 {
	d := ClampDifficulty(difficulty)
	return lo + (hi-lo)*float64(d-MinDifficulty)/float64(MaxDifficulty-MinDifficulty)
}
