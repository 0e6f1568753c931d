package world

import (
	"errors"
	"fmt"
)

// Grid is a rectangular board of cells addressed by row/col or by row-major index.
type Grid struct {
	cells []*Cell
	rows  int
	cols  int

	startCell *Cell
	exitCell  *Cell
}

// NewGrid creates a new grid with the given dimensions and links every cell to its neighbours.
func NewGrid(rows, cols int) (*Grid, error) {
	g := &Grid{}
	if err := g.Build(rows, cols); err != nil {
		return nil, err
	}
	g.BuildAllCellConnections()
	return g, nil
}

// MustGrid is NewGrid for dimensions known to be valid at compile time.
func MustGrid(rows, cols int) *Grid {
	g, err := NewGrid(rows, cols)
	if err != nil {
		panic(err)
	}
	return g
}

// Rows returns the number of rows in the grid
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns in the grid
func (g *Grid) Cols() int {
	return g.cols
}

// Len returns the number of cells in the grid
func (g *Grid) Len() int {
	return g.rows * g.cols
}

// StartCell returns the starting cell
func (g *Grid) StartCell() *Cell {
	return g.startCell
}

// ExitCell returns the exit cell
func (g *Grid) ExitCell() *Cell {
	return g.exitCell
}

// IsValidPosition checks if a row/col position is within grid bounds
func (g *Grid) IsValidPosition(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// IsValidIndex checks if a row-major index is within grid bounds
func (g *Grid) IsValidIndex(idx int) bool {
	return idx >= 0 && idx < g.Len()
}

// IsOnPerimeter checks if a position is on the edge of the grid
func (g *Grid) IsOnPerimeter(row, col int) bool {
	if !g.IsValidPosition(row, col) {
		return false
	}
	return row == 0 || col == 0 || row == g.rows-1 || col == g.cols-1
}

// Index converts a position to its row-major index, or -1 when out of bounds.
func (g *Grid) Index(row, col int) int {
	if !g.IsValidPosition(row, col) {
		return -1
	}
	return row*g.cols + col
}

// GetCell returns the cell at the given position, or nil if out of bounds
func (g *Grid) GetCell(row, col int) *Cell {
	idx := g.Index(row, col)
	if idx < 0 {
		return nil
	}
	return g.cells[idx]
}

// CellAt returns the cell at the given row-major index, or nil if out of bounds
func (g *Grid) CellAt(idx int) *Cell {
	if !g.IsValidIndex(idx) {
		return nil
	}
	return g.cells[idx]
}

// GetCellRelative returns the cell adjacent to the given cell in the specified direction
func (g *Grid) GetCellRelative(c *Cell, dir Direction) *Cell {
	if c == nil {
		return nil
	}
	if !dir.IsValid() {
		return nil
	}
	rowRel, colRel := dir.Delta()
	return g.GetCell(c.Row+rowRel, c.Col+colRel)
}

// SetStartCellAt sets the starting cell by position and opens it. Returns false if out of bounds.
func (g *Grid) SetStartCellAt(row, col int) bool {
	cell := g.GetCell(row, col)
	if cell == nil {
		return false
	}
	g.startCell = cell
	cell.Open = true
	return true
}

// SetExitCellAt sets the exit cell by position and opens it.
func (g *Grid) SetExitCellAt(row, col int) bool {
	cell := g.GetCell(row, col)
	if cell == nil {
		return false
	}
	g.exitCell = cell
	cell.Open = true
	return true
}

// Open marks the cell at the given position as passable. Returns false if out of bounds.
func (g *Grid) Open(row, col int) bool {
	cell := g.GetCell(row, col)
	if cell == nil {
		return false
	}
	cell.Open = true
	return true
}

// Build initializes the grid with the given dimensions
func (g *Grid) Build(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}

	g.rows = rows
	g.cols = cols
	g.cells = make([]*Cell, rows*cols)
	g.startCell = nil
	g.exitCell = nil

	for currentRow := 0; currentRow < rows; currentRow++ {
		for currentCol := 0; currentCol < cols; currentCol++ {
			name := fmt.Sprintf("%v:%v", currentRow, currentCol)
			g.cells[currentRow*cols+currentCol] = NewCell(currentRow, currentCol, name)
		}
	}
	return nil
}

// BuildAllCellConnections connects all cells to their neighbors
func (g *Grid) BuildAllCellConnections() {
	g.ForEachCell(func(_, _ int, cell *Cell) {
		for _, dir := range AllDirections() {
			adj := g.GetCellRelative(cell, dir)
			if adj == nil {
				continue
			}
			cell.SetNeighbor(dir, adj)
			adj.SetNeighbor(dir.Opposite(), cell)
		}
	})
}

// ForEachCell iterates over all cells in the grid, calling the provided function for each
func (g *Grid) ForEachCell(fn func(row, col int, cell *Cell)) {
	for _, cell := range g.cells {
		fn(cell.Row, cell.Col, cell)
	}
}

// Validate checks that the grid has distinct start and exit cells.
func (g *Grid) Validate() error {
	switch {
	case g.rows <= 0 || g.cols <= 0:
		return errors.New("grid has invalid dimensions")
	case g.startCell == nil:
		return errors.New("grid has no start cell")
	case g.exitCell == nil:
		return errors.New("grid has no exit cell")
	case g.startCell == g.exitCell:
		return errors.New("start and exit are the same cell")
	}
	return nil
}
