package factory

import (
	"fmt"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// layoutLegend maps layout characters to terrain.
var layoutLegend = map[rune]component.TerrainType{
	'.': component.Flatland,
	'F': component.Flatland,
	'M': component.Mountain,
	'H': component.Hill,
	'T': component.Trench,
	'R': component.River,
}

// CreateBoardBasic fills every cell with a flatland tile carrying a matching
// Position.
func (f *Factory) CreateBoardBasic() error {
	return f.populate(func(world.Coord) (component.TerrainType, error) {
		return component.Flatland, nil
	})
}

// CreateBoardFromLayout builds mixed terrain from one string per row using
// the legend . (or F) flatland, M mountain, H hill, T trench, R river.
func (f *Factory) CreateBoardFromLayout(layout []string) error {
	m := f.m
	if len(layout) != m.Rows() {
		return fmt.Errorf("layout has %d rows, board has %d", len(layout), m.Rows())
	}
	grid := make([][]rune, len(layout))
	for r, line := range layout {
		grid[r] = []rune(line)
		if len(grid[r]) != m.Cols() {
			return fmt.Errorf("layout row %d has %d columns, board has %d", r, len(grid[r]), m.Cols())
		}
		for c, ch := range grid[r] {
			if _, ok := layoutLegend[ch]; !ok {
				return fmt.Errorf("layout (%d,%d): unknown terrain symbol %q", r, c, ch)
			}
		}
	}
	return f.populate(func(c world.Coord) (component.TerrainType, error) {
		return layoutLegend[grid[c.Row][c.Col]], nil
	})
}

func (f *Factory) populate(terrainAt func(world.Coord) (component.TerrainType, error)) error {
	m := f.m
	var err error
	m.Board().Each(func(c world.Coord) {
		if err != nil {
			return
		}
		if cell, _ := m.Cell(c); !cell.Terrain.IsZero() {
			err = fmt.Errorf("cell %v already has terrain", c)
		}
	})
	if err != nil {
		return err
	}

	m.Board().Each(func(c world.Coord) {
		if err != nil {
			return
		}
		var t component.TerrainType
		if t, err = terrainAt(c); err != nil {
			return
		}
		var bundle []any
		if bundle, err = tileBundle(t); err != nil {
			return
		}
		bundle = append(bundle, &component.Position{Row: c.Row, Col: c.Col})
		var tile ecs.EntityID
		if tile, err = f.create(bundle...); err != nil {
			return
		}
		err = m.SetTerrain(c, tile)
	})
	return err
}

// PlacePiece puts piece on (row, col).
func (f *Factory) PlacePiece(piece ecs.EntityID, row, col int) error {
	return f.m.PlaceOccupant(piece, world.Coord{Row: row, Col: col})
}

// Corner selects the board corner an army is deployed to.
type Corner uint8

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

var cornerNames = map[Corner]string{
	TopLeft:     "top_left",
	TopRight:    "top_right",
	BottomLeft:  "bottom_left",
	BottomRight: "bottom_right",
}

func (c Corner) String() string {
	if s, ok := cornerNames[c]; ok {
		return s
	}
	return fmt.Sprintf("corner(%d)", uint8(c))
}

// ParseCorner maps a snake_case corner name back to its value.
func ParseCorner(s string) (Corner, error) {
	for c, name := range cornerNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown corner %q", s)
}

func (c Corner) MarshalText() ([]byte, error) {
	if _, ok := cornerNames[c]; !ok {
		return nil, fmt.Errorf("invalid corner %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Corner) UnmarshalText(b []byte) error {
	v, err := ParseCorner(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// deployBlock is the side of the square block an army fills.
const deployBlock = 5

// cornerCells lists the 5×5 block at corner in placement order: row-major,
// starting at the corner and walking away from it along both axes.
func cornerCells(corner Corner, rows, cols int) []world.Coord {
	rowStart, rowStep := 0, 1
	colStart, colStep := 0, 1
	if corner == BottomLeft || corner == BottomRight {
		rowStart, rowStep = rows-1, -1
	}
	if corner == TopRight || corner == BottomRight {
		colStart, colStep = cols-1, -1
	}
	cells := make([]world.Coord, 0, deployBlock*deployBlock)
	for i := 0; i < deployBlock; i++ {
		for j := 0; j < deployBlock; j++ {
			cells = append(cells, world.Coord{Row: rowStart + i*rowStep, Col: colStart + j*colStep})
		}
	}
	return cells
}

// PlaceArmy deploys army into the 5×5 block at corner, consuming the army
// front-to-back. Every target cell is checked before anything moves.
func (f *Factory) PlaceArmy(army []ecs.EntityID, corner Corner) error {
	m := f.m
	if m.Rows() < deployBlock || m.Cols() < deployBlock {
		return fmt.Errorf("board %dx%d too small for a %dx%d deployment", m.Rows(), m.Cols(), deployBlock, deployBlock)
	}
	if len(army) > deployBlock*deployBlock {
		return fmt.Errorf("army of %d does not fit a %dx%d block", len(army), deployBlock, deployBlock)
	}
	cells := cornerCells(corner, m.Rows(), m.Cols())
	for i, e := range army {
		if !m.Alive(e) {
			return fmt.Errorf("place army at %s: entity %d: %w", corner, e, ecs.ErrUnknownEntity)
		}
		if m.Position.Has(e) {
			return fmt.Errorf("place army at %s: entity %d already on board: %w", corner, e, world.ErrCellUnavailable)
		}
		if !m.CanHost(cells[i]) {
			return fmt.Errorf("place army at %s: cell %v: %w", corner, cells[i], world.ErrCellUnavailable)
		}
	}
	for i, e := range army {
		if err := m.PlaceOccupant(e, cells[i]); err != nil {
			return fmt.Errorf("place army at %s: %w", corner, err)
		}
	}
	return nil
}

func (f *Factory) PlaceArmyTopLeft(army []ecs.EntityID) error {
	return f.PlaceArmy(army, TopLeft)
}

func (f *Factory) PlaceArmyTopRight(army []ecs.EntityID) error {
	return f.PlaceArmy(army, TopRight)
}

func (f *Factory) PlaceArmyBottomLeft(army []ecs.EntityID) error {
	return f.PlaceArmy(army, BottomLeft)
}

func (f *Factory) PlaceArmyBottomRight(army []ecs.EntityID) error {
	return f.PlaceArmy(army, BottomRight)
}
