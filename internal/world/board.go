package world

import (
	"slices"

	"github.com/gridwar/server/internal/core/ecs"
)

// Cell is one board square: the terrain tile and the units standing on it.
type Cell struct {
	Terrain   ecs.EntityID
	Occupants []ecs.EntityID
}

// Board is a row-major R×C grid of cells. It is only mutated through the
// Manager, which keeps it in step with Position components.
type Board struct {
	rows  int
	cols  int
	cells []Cell
}

func newBoard(rows, cols int) *Board {
	return &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

// In reports whether c lies on the board.
func (b *Board) In(c Coord) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

func (b *Board) at(c Coord) *Cell {
	return &b.cells[c.Row*b.cols+c.Col]
}

// Each visits every coordinate in row-major order.
func (b *Board) Each(fn func(Coord)) {
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			fn(Coord{Row: r, Col: c})
		}
	}
}

func (b *Board) removeOccupant(c Coord, e ecs.EntityID) bool {
	cell := b.at(c)
	i := slices.Index(cell.Occupants, e)
	if i < 0 {
		return false
	}
	cell.Occupants = slices.Delete(cell.Occupants, i, i+1)
	return true
}
