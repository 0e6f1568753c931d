// Package world provides generic 2D grid primitives used by the board puzzles.
package world

// Cell represents a single tile in the grid.
type Cell struct {
	Name string

	// Grid position
	Row int
	Col int

	// Navigation - links to adjacent cells
	North *Cell
	East  *Cell
	South *Cell
	West  *Cell

	// Cell type flags
	Open   bool // passable for reachability checks
	Locked bool // blocked regardless of Open
}

// NewCell creates a new cell at the given position
func NewCell(row, col int, name string) *Cell {
	return &Cell{
		Name: name,
		Row:  row,
		Col:  col,
	}
}

// Passable reports whether the cell is open and not locked.
func (c *Cell) Passable() bool {
	return c != nil && c.Open && !c.Locked
}

// GetNeighbor returns the neighboring cell in the given direction
func (c *Cell) GetNeighbor(dir Direction) *Cell {
	if c == nil {
		return nil
	}
	switch dir {
	case North:
		return c.North
	case East:
		return c.East
	case South:
		return c.South
	case West:
		return c.West
	default:
		return nil
	}
}

// SetNeighbor sets the neighboring cell in the given direction
func (c *Cell) SetNeighbor(dir Direction, neighbor *Cell) {
	if c == nil {
		return
	}
	switch dir {
	case North:
		c.North = neighbor
	case East:
		c.East = neighbor
	case South:
		c.South = neighbor
	case West:
		c.West = neighbor
	}
}

// IsAdjacent reports whether other is one of the four orthogonal neighbours.
func (c *Cell) IsAdjacent(other *Cell) bool {
	if c == nil || other == nil {
		return false
	}
	for _, n := range c.GetNeighbors() {
		if n == other {
			return true
		}
	}
	return false
}

// GetNeighbors returns all non-nil adjacent cells
func (c *Cell) GetNeighbors() []*Cell {
	var neighbors []*Cell
	if c.North != nil {
		neighbors = append(neighbors, c.North)
	}
	if c.East != nil {
		neighbors = append(neighbors, c.East)
	}
	if c.South != nil {
		neighbors = append(neighbors, c.South)
	}
	if c.West != nil {
		neighbors = append(neighbors, c.West)
	}
	return neighbors
}
