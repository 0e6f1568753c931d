// Package pattern implements the pattern memory puzzle. A sequence of grid cells lights up one by
// one and the player repeats it. The free variant draws cells at random (no immediate repeats) and
// scores the whole entry at the end; the walk variant wanders between neighbouring cells from an
// edge cell and fails on the first wrong click.
package pattern

import (
	"fmt"
	"math/rand"
	"slices"

	"heist/pkg/engine/world"
	"heist/pkg/game/puzzle"
)

// Sequence length per difficulty (index 0 is difficulty 1).
var lengths = [...]int{4, 5, 7, 8, 10}

// Target is the grid size and the cell sequence (row-major indices).
type Target struct {
	Size     int   `json:"size"`
	Sequence []int `json:"sequence"`
}

// Payload is the player's full entry.
type Payload struct {
	Sequence []int `json:"sequence"`
}

// GridSize returns the board edge for a difficulty: 3x3, 4x4 or 5x5.
func GridSize(difficulty int) int {
	switch d := puzzle.ClampDifficulty(difficulty); {
	case d <= 1:
		return 3
	case d <= 3:
		return 4
	default:
		return 5
	}
}

// Length returns the sequence length for a difficulty.
func Length(difficulty int) int {
	return lengths[puzzle.ClampDifficulty(difficulty)-1]
}

// Generate draws a free sequence with no cell repeated back to back.
func Generate(rng *rand.Rand, difficulty int) Target {
	size := GridSize(difficulty)
	cells := size * size
	seq := make([]int, Length(difficulty))
	for i := range seq {
		next := rng.Intn(cells)
		for i > 0 && next == seq[i-1] {
			next = rng.Intn(cells)
		}
		seq[i] = next
	}
	return Target{Size: size, Sequence: seq}
}

// adjacentBias is the chance a walk step moves to a neighbour instead of jumping to a
// non-adjacent cell.
const adjacentBias = 0.8

// GenerateWalk draws an adjacency-biased random walk starting on the grid's edge.
func GenerateWalk(rng *rand.Rand, difficulty int) Target {
	size := GridSize(difficulty)
	g := world.MustGrid(size, size)

	var perimeter []*world.Cell
	g.ForEachCell(func(row, col int, c *world.Cell) {
		if g.IsOnPerimeter(row, col) {
			perimeter = append(perimeter, c)
		}
	})
	current := perimeter[rng.Intn(len(perimeter))]
	seq := []int{g.Index(current.Row, current.Col)}

	for len(seq) < Length(difficulty) {
		var next *world.Cell
		if rng.Float64() < adjacentBias {
			neighbors := current.GetNeighbors()
			next = neighbors[rng.Intn(len(neighbors))]
		} else {
			for next == nil || next == current || current.IsAdjacent(next) {
				next = g.CellAt(rng.Intn(g.Len()))
			}
		}
		current = next
		seq = append(seq, g.Index(current.Row, current.Col))
	}
	return Target{Size: size, Sequence: seq}
}

// Validate checks a target decoded from host data.
func (t Target) Validate() error {
	if t.Size < 3 || t.Size > 5 {
		return fmt.Errorf("%w: grid size %d", puzzle.ErrInvalidInput, t.Size)
	}
	if n := len(t.Sequence); n < 4 || n > 10 {
		return fmt.Errorf("%w: sequence length %d", puzzle.ErrInvalidInput, n)
	}
	return puzzle.CheckRange(t.Sequence, 0, t.Size*t.Size-1)
}

// FirstMismatch returns the index of the first entry that differs from the target, or -1.
// A shorter entry that agrees so far returns -1.
func FirstMismatch(target, entry []int) int {
	for i, v := range entry {
		if i >= len(target) || target[i] != v {
			return i
		}
	}
	return -1
}

// Verify is the authoritative check used by the host.
func Verify(t Target, p Payload) bool {
	return slices.Equal(t.Sequence, p.Sequence)
}
