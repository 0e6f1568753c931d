// Package detonation implements the demolition map. A 5x5 site has a start and an exit joined by
// a broken route; the player spends an exact budget of charges on wall cells so the blast opens a
// continuous 4-connected path. Sensitive cells can never take a charge.
package detonation

import (
	"fmt"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"heist/pkg/engine/world"
	"heist/pkg/game/puzzle"
)

// Kind is what occupies a site cell.
type Kind string

// Cell kinds
const (
	KindPath      Kind = "path"
	KindWall      Kind = "wall"
	KindSensitive Kind = "sensitive"
	KindStart     Kind = "start"
	KindExit      Kind = "exit"
)

// Size is the edge of the site.
const Size = 5

// Target is the site layout, row-major, and the charge budget.
type Target struct {
	Size   int    `json:"size"`
	Cells  []Kind `json:"cells"`
	Budget int    `json:"budget"`
}

// Payload is the set of charged cells.
type Payload struct {
	Charges []int `json:"charges"`
}

// Budget returns the number of charges for a difficulty.
func Budget(difficulty int) int {
	return 1 + (puzzle.ClampDifficulty(difficulty)+1)/2
}

// Generate builds a site whose start-exit route is interrupted by exactly Budget walls.
func Generate(rng *rand.Rand, difficulty int) Target {
	for i := 0; i < 20; i++ {
		t := layout(rng, difficulty, true)
		if !Connected(t, nil) {
			return t
		}
	}
	return layout(rng, difficulty, false)
}

func layout(rng *rand.Rand, difficulty int, decoys bool) Target {
	budget := Budget(difficulty)
	g := world.MustGrid(Size, Size)
	startRow := rng.Intn(Size)
	exitRow := (startRow + 1 + rng.Intn(Size-1)) % Size
	g.SetStartCellAt(startRow, 0)
	g.SetExitCellAt(exitRow, Size-1)

	// Monotone walk from the west edge to the exit on the east edge.
	var route []*world.Cell
	for c := g.StartCell(); ; {
		route = append(route, c)
		if c == g.ExitCell() {
			break
		}
		dir := world.East
		if c.Col == Size-1 || c.Row != exitRow && rng.Intn(2) == 0 {
			dir = world.South
			if c.Row > exitRow {
				dir = world.North
			}
		}
		c = c.GetNeighbor(dir)
	}

	t := Target{Size: Size, Cells: make([]Kind, Size*Size), Budget: budget}
	onRoute := mapset.New[*world.Cell]()
	for _, c := range route {
		onRoute.Put(c)
	}
	sensitive := puzzle.Scale(difficulty, 0.15, 0.35)
	g.ForEachCell(func(r, c int, cell *world.Cell) {
		idx := g.Index(r, c)
		switch {
		case cell == g.StartCell():
			t.Cells[idx] = KindStart
		case cell == g.ExitCell():
			t.Cells[idx] = KindExit
		case onRoute.Has(cell):
			t.Cells[idx] = KindPath
		default:
			roll := rng.Float64()
			switch {
			case roll < sensitive:
				t.Cells[idx] = KindSensitive
			case decoys && roll < sensitive+0.15:
				t.Cells[idx] = KindPath
			default:
				t.Cells[idx] = KindWall
			}
		}
	})

	interior := route[1 : len(route)-1]
	for _, k := range rng.Perm(len(interior))[:budget] {
		c := interior[k]
		t.Cells[g.Index(c.Row, c.Col)] = KindWall
	}
	return t
}

// Validate checks a target decoded from host data.
func (t Target) Validate() error {
	if t.Size < 2 || len(t.Cells) != t.Size*t.Size {
		return fmt.Errorf("%w: %d cells on a %d site", puzzle.ErrInvalidInput, len(t.Cells), t.Size)
	}
	if t.Budget < 1 {
		return fmt.Errorf("%w: budget %d", puzzle.ErrInvalidInput, t.Budget)
	}
	starts, exits := 0, 0
	for _, k := range t.Cells {
		switch k {
		case KindStart:
			starts++
		case KindExit:
			exits++
		case KindPath, KindWall, KindSensitive:
		default:
			return fmt.Errorf("%w: cell kind %q", puzzle.ErrInvalidInput, k)
		}
	}
	if starts != 1 || exits != 1 {
		return fmt.Errorf("%w: %d starts and %d exits", puzzle.ErrInvalidInput, starts, exits)
	}
	return nil
}

func (t Target) find(k Kind) int {
	for i, c := range t.Cells {
		if c == k {
			return i
		}
	}
	return -1
}

// site lays the target out on a grid: path, start, exit and charged cells are open and sensitive
// cells are locked.
func (t Target) site(charges []int) (*world.Grid, error) {
	g, err := world.NewGrid(t.Size, t.Size)
	if err != nil {
		return nil, err
	}
	if len(t.Cells) != g.Len() {
		return nil, fmt.Errorf("%w: %d cells on a %d site", puzzle.ErrInvalidInput, len(t.Cells), t.Size)
	}
	charged := mapset.New[int]()
	for _, c := range charges {
		charged.Put(c)
	}
	g.ForEachCell(func(r, c int, cell *world.Cell) {
		idx := g.Index(r, c)
		switch t.Cells[idx] {
		case KindStart:
			g.SetStartCellAt(r, c)
		case KindExit:
			g.SetExitCellAt(r, c)
		case KindPath:
			g.Open(r, c)
		case KindWall:
			cell.Open = charged.Has(idx)
		case KindSensitive:
			cell.Locked = true
		}
	})
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", puzzle.ErrInvalidInput, err)
	}
	return g, nil
}

// Connected reports whether start reaches exit through path, start, exit and charged cells.
func Connected(t Target, charges []int) bool {
	g, err := t.site(charges)
	if err != nil {
		return false
	}
	return world.Connected(g.StartCell(), g.ExitCell(), world.PassableCells)
}

// Route returns a shortest start-to-exit route through the blasted site as row-major indices,
// or nil when the charges leave no path.
func Route(t Target, charges []int) []int {
	g, err := t.site(charges)
	if err != nil {
		return nil
	}
	path := world.ShortestPath(g.StartCell(), g.ExitCell(), world.PassableCells)
	if path == nil {
		return nil
	}
	route := make([]int, len(path))
	for i, c := range path {
		route[i] = g.Index(c.Row, c.Col)
	}
	return route
}

// CheckCharges reports why a charge set cannot be detonated, or nil.
func CheckCharges(t Target, charges []int) error {
	if len(charges) != t.Budget {
		return fmt.Errorf("%w: %d of %d charges placed", ErrChargeCount, len(charges), t.Budget)
	}
	seen := mapset.New[int]()
	for _, c := range charges {
		if c < 0 || c >= len(t.Cells) || seen.Has(c) {
			return fmt.Errorf("%w: charge at %d", puzzle.ErrInvalidInput, c)
		}
		seen.Put(c)
		switch t.Cells[c] {
		case KindSensitive:
			return fmt.Errorf("%w: cell %d", ErrSensitiveCell, c)
		case KindWall:
		default:
			return fmt.Errorf("%w: cell %d", ErrNotWall, c)
		}
	}
	return nil
}

// Verify is the authoritative check used by the host.
func Verify(t Target, p Payload) bool {
	return CheckCharges(t, p.Charges) == nil && Connected(t, p.Charges)
}
