package puzzle_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/game/puzzle"
)

func TestDialDistance_Examples(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{12, 13, 1},
		{0, 99, 1},
		{99, 0, 1},
		{5, 55, 50},
		{10, 90, 20},
		{47, 47, 0},
	}
	for _, c := range cases {
		if got := puzzle.DialDistance(c.a, c.b); got != c.want {
			t.Errorf("DialDistance(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestDialDistance_SymmetricAndBounded(t *testing.T) {
	for a := 0; a < 100; a++ {
		if puzzle.DialDistance(a, a) != 0 {
			t.Fatalf("DialDistance(%d, %d) != 0", a, a)
		}
		for b := 0; b < 100; b++ {
			d := puzzle.DialDistance(a, b)
			if d != puzzle.DialDistance(b, a) {
				t.Fatalf("DialDistance(%d, %d) not symmetric", a, b)
			}
			if d < 0 || d > 50 {
				t.Fatalf("DialDistance(%d, %d) = %d, want within [0,50]", a, b, d)
			}
		}
	}
}

func TestCircularDistance_Degrees(t *testing.T) {
	assert.Equal(t, 2, puzzle.CircularDistance(359, 1, puzzle.DialDegrees))
	assert.Equal(t, 180, puzzle.CircularDistance(0, 180, puzzle.DialDegrees))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 99, puzzle.Wrap(-1, 100))
	assert.Equal(t, 0, puzzle.Wrap(100, 100))
	assert.Equal(t, 42, puzzle.Wrap(42, 100))
}

func TestWrap_EmptyDial(t *testing.T) {
	for _, size := range []int{0, -3} {
		assert.Equal(t, 0, puzzle.Wrap(7, size), "Wrap size %d", size)
		assert.Equal(t, 0, puzzle.Wrap(-7, size), "Wrap size %d", size)
		assert.Equal(t, 0, puzzle.CircularDistance(3, 9, size), "CircularDistance size %d", size)
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, puzzle.WithinTolerance(53, 50, 3))
	assert.True(t, puzzle.WithinTolerance(47, 50, 3))
	assert.False(t, puzzle.WithinTolerance(54, 50, 3))
}

func TestConfig_DecodeData(t *testing.T) {
	var v struct{ Combo []int }
	ok, err := puzzle.Config{}.DecodeData(&v)
	assert.False(t, ok)
	assert.NoError(t, err)

	ok, err = puzzle.Config{Data: json.RawMessage("null")}.DecodeData(&v)
	assert.False(t, ok)
	assert.NoError(t, err)

	ok, err = puzzle.Config{Data: json.RawMessage(`{"Combo":[1,2,3]}`)}.DecodeData(&v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, v.Combo)

	_, err = puzzle.Config{Type: puzzle.TypeCombination, Data: json.RawMessage(`{`)}.DecodeData(&v)
	assert.ErrorIs(t, err, puzzle.ErrInvalidConfig)
}

func TestScale(t *testing.T) {
	assert.InDelta(t, 2.0, puzzle.Scale(1, 2, 1), 1e-9)
	assert.InDelta(t, 1.0, puzzle.Scale(5, 2, 1), 1e-9)
	assert.InDelta(t, 1.5, puzzle.Scale(3, 2, 1), 1e-9)
	assert.InDelta(t, 1.0, puzzle.Scale(42, 2, 1), 1e-9, "difficulty is clamped")
}

func TestRegistry_CreateAndAlias(t *testing.T) {
	r := puzzle.NewRegistry()
	var built puzzle.Config
	require.NoError(t, r.Register(puzzle.TypeCombination, func(_ puzzle.Surface, cfg puzzle.Config, _ puzzle.Options) puzzle.Widget {
		built = cfg
		return nil
	}))
	assert.Error(t, r.Register(puzzle.TypeCombination, nil))

	r.Alias("safe_puzzle_1", puzzle.TypeCombination)
	_, err := r.Create(nil, puzzle.Config{Type: "safe_puzzle_1", Difficulty: 1}, puzzle.Options{})
	require.NoError(t, err)
	assert.Equal(t, puzzle.TypeCombination, built.Type)

	_, err = r.Create(nil, puzzle.Config{Type: "laser_grid"}, puzzle.Options{})
	assert.True(t, errors.Is(err, puzzle.ErrUnknownType))
	assert.Equal(t, []puzzle.Type{puzzle.TypeCombination}, r.Types())
}

func TestIsInputRejection(t *testing.T) {
	assert.True(t, puzzle.IsInputRejection(puzzle.ErrLocked))
	assert.True(t, puzzle.IsInputRejection(errors.Join(errors.New("x"), puzzle.ErrInvalidInput)))
	assert.False(t, puzzle.IsInputRejection(puzzle.ErrClosed))
	assert.False(t, puzzle.IsInputRejection(nil))
}
