package world

import (
	"errors"
	"testing"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
)

// flatBoard fills every cell with an occupiable flatland tile.
func flatBoard(t *testing.T, rows, cols int) *Manager {
	t.Helper()
	m := NewManager(rows, cols)
	m.Board().Each(func(c Coord) {
		tile := m.CreateEntity()
		mustAdd(t, m, tile, &component.Terrain{Type: component.Flatland})
		mustAdd(t, m, tile, &component.Occupiable{})
		mustAdd(t, m, tile, &component.Position{Row: c.Row, Col: c.Col})
		if err := m.SetTerrain(c, tile); err != nil {
			t.Fatalf("SetTerrain(%v): %v", c, err)
		}
	})
	return m
}

func mustAdd(t *testing.T, m *Manager, e ecs.EntityID, c any) {
	t.Helper()
	if err := m.AddComponent(e, c); err != nil {
		t.Fatalf("AddComponent(%d, %T): %v", e, c, err)
	}
}

func TestAddComponentUnknownEntity(t *testing.T) {
	m := NewManager(2, 2)
	err := m.AddComponent(ecs.EntityID(42), &component.Name{Text: "ghost"})
	if !errors.Is(err, ecs.ErrUnknownEntity) {
		t.Fatalf("AddComponent on unknown entity = %v, want ErrUnknownEntity", err)
	}

	e := m.CreateEntity()
	if err := m.Destroy(e); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := m.AddComponent(e, &component.Human{}); !errors.Is(err, ecs.ErrUnknownEntity) {
		t.Errorf("AddComponent on destroyed entity = %v, want ErrUnknownEntity", err)
	}
}

func TestCountTracksMultipleInstances(t *testing.T) {
	m := NewManager(1, 1)
	e := m.CreateEntity()
	mustAdd(t, m, e, &component.Name{Text: "a"})
	mustAdd(t, m, e, &component.Name{Text: "b"})

	if got := m.Count(e, component.KindName); got != 2 {
		t.Errorf("Count(name) = %d, want 2", got)
	}
	if got := m.Count(e, component.KindHealth); got != 0 {
		t.Errorf("Count(health) = %d, want 0", got)
	}
	first, _ := m.Name.First(e)
	if first.Text != "a" {
		t.Errorf("first name = %q, want %q", first.Text, "a")
	}
}

func TestPlaceMoveRemoveKeepPositionInStep(t *testing.T) {
	m := flatBoard(t, 4, 4)
	unit := m.CreateEntity()
	mustAdd(t, m, unit, &component.Piece{Type: component.Infantry})

	if err := m.PlaceOccupant(unit, Coord{1, 1}); err != nil {
		t.Fatalf("PlaceOccupant: %v", err)
	}
	if got, _ := m.Occupant(Coord{1, 1}); got != unit {
		t.Fatalf("Occupant(1,1) = %d, want %d", got, unit)
	}

	if err := m.MoveOccupant(unit, Coord{3, 2}); err != nil {
		t.Fatalf("MoveOccupant: %v", err)
	}
	if _, ok := m.Occupant(Coord{1, 1}); ok {
		t.Errorf("old cell still occupied after move")
	}
	if pos, _ := m.PositionOf(unit); pos != (Coord{3, 2}) {
		t.Errorf("position = %v, want (3,2)", pos)
	}
	if err := m.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}

	if err := m.RemoveOccupant(unit); err != nil {
		t.Fatalf("RemoveOccupant: %v", err)
	}
	if m.Position.Has(unit) {
		t.Errorf("position kept after RemoveOccupant")
	}
	if _, ok := m.Occupant(Coord{3, 2}); ok {
		t.Errorf("cell still occupied after RemoveOccupant")
	}
}

func TestPlaceOccupantRejectsUnhostableCells(t *testing.T) {
	m := flatBoard(t, 3, 3)

	mountain := m.CreateEntity()
	mustAdd(t, m, mountain, &component.Terrain{Type: component.Mountain})
	mustAdd(t, m, mountain, &component.Impassable{})
	if err := m.SetTerrain(Coord{0, 1}, mountain); err != nil {
		t.Fatal(err)
	}
	river := m.CreateEntity()
	mustAdd(t, m, river, &component.Terrain{Type: component.River})
	if err := m.SetTerrain(Coord{0, 2}, river); err != nil {
		t.Fatal(err)
	}

	first := m.CreateEntity()
	if err := m.PlaceOccupant(first, Coord{0, 0}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		at   Coord
		want error
	}{
		{"occupied", Coord{0, 0}, ErrCellUnavailable},
		{"impassable", Coord{0, 1}, ErrCellUnavailable},
		{"river", Coord{0, 2}, ErrCellUnavailable},
		{"off board", Coord{5, 0}, ErrOffBoard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := m.CreateEntity()
			if err := m.PlaceOccupant(e, tt.at); !errors.Is(err, tt.want) {
				t.Errorf("PlaceOccupant(%v) = %v, want %v", tt.at, err, tt.want)
			}
			if m.Position.Has(e) {
				t.Errorf("failed placement left a Position behind")
			}
		})
	}
	if !m.Passable(Coord{0, 2}) {
		t.Errorf("river should be passable")
	}
	if m.Passable(Coord{0, 1}) {
		t.Errorf("mountain should not be passable")
	}
}

func TestDestroyPurgesBoardAndStores(t *testing.T) {
	m := flatBoard(t, 3, 3)
	unit := m.CreateEntity()
	mustAdd(t, m, unit, &component.Health{Current: 1, Max: 1})
	mustAdd(t, m, unit, &component.Piece{Type: component.Infantry})
	if err := m.PlaceOccupant(unit, Coord{2, 2}); err != nil {
		t.Fatal(err)
	}

	if err := m.Destroy(unit); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, ok := m.Occupant(Coord{2, 2}); ok {
		t.Errorf("board still references destroyed unit")
	}
	for _, k := range component.Kinds() {
		if n := m.Count(unit, k); n != 0 {
			t.Errorf("destroyed unit still holds %d %s", n, k)
		}
	}
	for e := range m.Piece.Entities() {
		if e == unit {
			t.Errorf("piece index still yields destroyed unit")
		}
	}
	if err := m.Destroy(unit); !errors.Is(err, ecs.ErrUnknownEntity) {
		t.Errorf("second Destroy = %v, want ErrUnknownEntity", err)
	}
	if err := m.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestMoveOccupantDetectsDesync(t *testing.T) {
	m := flatBoard(t, 2, 2)
	unit := m.CreateEntity()
	if err := m.PlaceOccupant(unit, Coord{0, 0}); err != nil {
		t.Fatal(err)
	}
	// Corrupt the position behind the manager's back.
	m.Position.Set(unit, &component.Position{Row: 1, Col: 1})

	if err := m.MoveOccupant(unit, Coord{0, 1}); !errors.Is(err, ErrInvariant) {
		t.Errorf("MoveOccupant on desynced unit = %v, want ErrInvariant", err)
	}
	if err := m.CheckInvariants(); !errors.Is(err, ErrInvariant) {
		t.Errorf("CheckInvariants = %v, want ErrInvariant", err)
	}
}
