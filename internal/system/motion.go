package system

import (
	"fmt"
	"slices"

	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// MotionSystem computes and applies unit movement.
type MotionSystem struct {
	m *world.Manager
}

func NewMotionSystem(m *world.Manager) *MotionSystem {
	return &MotionSystem{m: m}
}

// reach is the result of a budget-bounded BFS from a unit.
type reach struct {
	start  world.Coord
	parent map[world.Coord]world.Coord
	dests  []world.Coord
}

// explore runs a uniform-cost BFS over orthogonal steps. It never enters an
// impassable or occupied cell and stops at the unit's remaining budget.
// Destinations are reached cells that can host the unit.
func (s *MotionSystem) explore(e ecs.EntityID) (*reach, bool) {
	m := s.m
	if !m.IsLive(e) {
		return nil, false
	}
	mo, ok := m.Motion.First(e)
	if !ok || mo.Current <= 0 {
		return nil, false
	}
	start, ok := m.PositionOf(e)
	if !ok {
		return nil, false
	}

	r := &reach{start: start, parent: make(map[world.Coord]world.Coord)}
	dist := map[world.Coord]int{start: 0}
	frontier := []world.Coord{start}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if dist[cur] == mo.Current {
			continue
		}
		for _, next := range cur.Neighbours() {
			if _, seen := dist[next]; seen {
				continue
			}
			if !m.Passable(next) {
				continue
			}
			if _, occupied := m.Occupant(next); occupied {
				continue
			}
			dist[next] = dist[cur] + 1
			r.parent[next] = cur
			frontier = append(frontier, next)
			if m.CanHost(next) {
				r.dests = append(r.dests, next)
			}
		}
	}
	slices.SortFunc(r.dests, world.Compare)
	return r, true
}

// path rebuilds start→dest, start excluded.
func (r *reach) path(dest world.Coord) []world.Coord {
	var rev []world.Coord
	for c := dest; c != r.start; c = r.parent[c] {
		rev = append(rev, c)
	}
	slices.Reverse(rev)
	return rev
}

// MoveableLocations lists the cells e can end a move on this turn, sorted
// row-major. It is empty for units without Motion or Position.
func (s *MotionSystem) MoveableLocations(e ecs.EntityID) []world.Coord {
	r, ok := s.explore(e)
	if !ok {
		return nil
	}
	return r.dests
}

// MakeMove moves e to dest along a cheapest path and charges one motion
// point per cell. It returns the traversed cells, dest last.
func (s *MotionSystem) MakeMove(e ecs.EntityID, dest world.Coord) ([]world.Coord, error) {
	r, ok := s.explore(e)
	if !ok {
		return nil, fmt.Errorf("move entity %d to %v: %w", e, dest, ErrIllegalDestination)
	}
	if _, found := slices.BinarySearchFunc(r.dests, dest, world.Compare); !found {
		return nil, fmt.Errorf("move entity %d to %v: %w", e, dest, ErrIllegalDestination)
	}

	path := r.path(dest)
	if err := s.m.MoveOccupant(e, dest); err != nil {
		return nil, err
	}
	mo, _ := s.m.Motion.First(e)
	mo.Current -= len(path)
	return path, nil
}
