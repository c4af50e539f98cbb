package component

import "fmt"

// TerrainType is the ground a board tile is made of.
type TerrainType uint8

const (
	Flatland TerrainType = iota
	Mountain
	Hill
	Trench
	River
)

var terrainNames = map[TerrainType]string{
	Flatland: "flatland",
	Mountain: "mountain",
	Hill:     "hill",
	Trench:   "trench",
	River:    "river",
}

func (t TerrainType) String() string {
	if s, ok := terrainNames[t]; ok {
		return s
	}
	return fmt.Sprintf("terrain(%d)", uint8(t))
}

// ParseTerrainType maps a lowercase terrain name back to its type.
func ParseTerrainType(s string) (TerrainType, error) {
	for t, name := range terrainNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown terrain %q", s)
}

// Terrain marks an entity as a board tile.
type Terrain struct {
	Type TerrainType
}

// Occupiable tiles can host a single unit.
type Occupiable struct{}

// Impassable tiles can be neither crossed nor occupied.
type Impassable struct{}

// Position is a board coordinate. Tiles carry their own cell; pieces carry
// the cell they occupy, kept in step with the board by the world manager.
type Position struct {
	Row int
	Col int
}
