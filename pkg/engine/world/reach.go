package world

import (
	"github.com/zyedidia/generic/mapset"
)

// Reachable returns every cell reachable from start by 4-connected moves through cells
// accepted by passable. start itself is included only if passable accepts it.
func Reachable(start *Cell, passable func(*Cell) bool) mapset.Set[*Cell] {
	visited := mapset.New[*Cell]()
	if start == nil || !passable(start) {
		return visited
	}
	queue := []*Cell{start}
	visited.Put(start)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range current.GetNeighbors() {
			if visited.Has(n) || !passable(n) {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}
	return visited
}

// Connected reports whether to can be reached from from through passable cells.
func Connected(from, to *Cell, passable func(*Cell) bool) bool {
	if from == nil || to == nil {
		return false
	}
	return Reachable(from, passable).Has(to)
}

// ShortestPath returns a shortest 4-connected path from -> to (both inclusive) through passable
// cells, or nil if none exists.
func ShortestPath(from, to *Cell, passable func(*Cell) bool) []*Cell {
	if from == nil || to == nil || !passable(from) || !passable(to) {
		return nil
	}
	prev := map[*Cell]*Cell{from: nil}
	queue := []*Cell{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			break
		}
		for _, n := range current.GetNeighbors() {
			if _, seen := prev[n]; seen || !passable(n) {
				continue
			}
			prev[n] = current
			queue = append(queue, n)
		}
	}
	if _, ok := prev[to]; !ok {
		return nil
	}
	var path []*Cell
	for c := to; c != nil; c = prev[c] {
		path = append([]*Cell{c}, path...)
	}
	return path
}

// PassableCells is the default predicate: open and not locked.
func PassableCells(c *Cell) bool {
	return c.Passable()
}
