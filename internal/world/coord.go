package world

import "github.com/gridwar/server/internal/component"

// Coord addresses one board cell.
type Coord struct {
	Row int `json:"y"`
	Col int `json:"x"`
}

func (c Coord) Add(o component.Offset) Coord {
	return Coord{Row: c.Row + o.DRow, Col: c.Col + o.DCol}
}

// Neighbours returns the four orthogonal neighbours (N, S, W, E), including
// those off the board; callers filter with Board.In.
func (c Coord) Neighbours() [4]Coord {
	return [4]Coord{
		{c.Row - 1, c.Col},
		{c.Row + 1, c.Col},
		{c.Row, c.Col - 1},
		{c.Row, c.Col + 1},
	}
}

// Manhattan returns |dRow| + |dCol|.
func Manhattan(a, b Coord) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// Less orders coordinates row-major.
func Less(a, b Coord) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// Compare is Less as a three-way comparison for slices.SortFunc.
func Compare(a, b Coord) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
