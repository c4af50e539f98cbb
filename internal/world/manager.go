package world

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
)

var (
	// ErrOffBoard is returned for coordinates outside the grid.
	ErrOffBoard = errors.New("coordinate off board")
	// ErrCellUnavailable is returned when a cell cannot host another unit.
	ErrCellUnavailable = errors.New("cell cannot host a unit")
	// ErrInvariant flags a store/board mismatch. It is a programming error:
	// the current command must abort.
	ErrInvariant = errors.New("world invariant violated")
)

// Manager owns every entity and component of one match together with the
// board index. It does no locking; the owning match serializes access.
type Manager struct {
	ecs   *ecs.World
	board *Board

	Terrain    *ecs.Store[component.Terrain]
	Occupiable *ecs.Store[component.Occupiable]
	Impassable *ecs.Store[component.Impassable]
	Position   *ecs.Store[component.Position]
	Name       *ecs.Store[component.Name]
	Human      *ecs.Store[component.Human]
	AI         *ecs.Store[component.AI]
	UserID     *ecs.Store[component.UserID]
	Piece      *ecs.Store[component.Piece]
	Health     *ecs.Store[component.Health]
	Motion     *ecs.Store[component.Motion]
	Melee      *ecs.Store[component.MeleeAttack]
	Range      *ecs.Store[component.RangeAttack]
	Immune     *ecs.Store[component.RangeAttackImmunity]
	Owned      *ecs.Store[component.Owned]
	Turn       *ecs.Store[component.Turn]
}

// NewManager creates an empty manager with a rows×cols board.
func NewManager(rows, cols int) *Manager {
	m := &Manager{
		ecs:        ecs.NewWorld(),
		board:      newBoard(rows, cols),
		Terrain:    ecs.NewStore[component.Terrain](),
		Occupiable: ecs.NewStore[component.Occupiable](),
		Impassable: ecs.NewStore[component.Impassable](),
		Position:   ecs.NewStore[component.Position](),
		Name:       ecs.NewStore[component.Name](),
		Human:      ecs.NewStore[component.Human](),
		AI:         ecs.NewStore[component.AI](),
		UserID:     ecs.NewStore[component.UserID](),
		Piece:      ecs.NewStore[component.Piece](),
		Health:     ecs.NewStore[component.Health](),
		Motion:     ecs.NewStore[component.Motion](),
		Melee:      ecs.NewStore[component.MeleeAttack](),
		Range:      ecs.NewStore[component.RangeAttack](),
		Immune:     ecs.NewStore[component.RangeAttackImmunity](),
		Owned:      ecs.NewStore[component.Owned](),
		Turn:       ecs.NewStore[component.Turn](),
	}
	m.ecs.Registry().Register(
		m.Terrain, m.Occupiable, m.Impassable, m.Position, m.Name, m.Human,
		m.AI, m.UserID, m.Piece, m.Health, m.Motion, m.Melee, m.Range,
		m.Immune, m.Owned, m.Turn,
	)
	return m
}

func (m *Manager) Rows() int { return m.board.rows }
func (m *Manager) Cols() int { return m.board.cols }

// Board exposes the grid for read-only walks.
func (m *Manager) Board() *Board { return m.board }

func (m *Manager) CreateEntity() ecs.EntityID {
	return m.ecs.CreateEntity()
}

func (m *Manager) Alive(e ecs.EntityID) bool {
	return m.ecs.Alive(e)
}

// AddComponent appends c (a pointer to one of the component types) to e.
func (m *Manager) AddComponent(e ecs.EntityID, c any) error {
	if !m.ecs.Alive(e) {
		return fmt.Errorf("add %T to entity %d: %w", c, e, ecs.ErrUnknownEntity)
	}
	switch v := c.(type) {
	case *component.Terrain:
		m.Terrain.Add(e, v)
	case *component.Occupiable:
		m.Occupiable.Add(e, v)
	case *component.Impassable:
		m.Impassable.Add(e, v)
	case *component.Position:
		m.Position.Add(e, v)
	case *component.Name:
		m.Name.Add(e, v)
	case *component.Human:
		m.Human.Add(e, v)
	case *component.AI:
		m.AI.Add(e, v)
	case *component.UserID:
		m.UserID.Add(e, v)
	case *component.Piece:
		m.Piece.Add(e, v)
	case *component.Health:
		m.Health.Add(e, v)
	case *component.Motion:
		m.Motion.Add(e, v)
	case *component.MeleeAttack:
		m.Melee.Add(e, v)
	case *component.RangeAttack:
		m.Range.Add(e, v)
	case *component.RangeAttackImmunity:
		m.Immune.Add(e, v)
	case *component.Owned:
		m.Owned.Add(e, v)
	case *component.Turn:
		m.Turn.Add(e, v)
	default:
		return fmt.Errorf("add component to entity %d: unsupported type %T", e, c)
	}
	return nil
}

// Count returns how many instances of kind e holds. Zero means absent.
func (m *Manager) Count(e ecs.EntityID, kind component.Kind) int {
	switch kind {
	case component.KindTerrain:
		return m.Terrain.Count(e)
	case component.KindOccupiable:
		return m.Occupiable.Count(e)
	case component.KindImpassable:
		return m.Impassable.Count(e)
	case component.KindPosition:
		return m.Position.Count(e)
	case component.KindName:
		return m.Name.Count(e)
	case component.KindHuman:
		return m.Human.Count(e)
	case component.KindAI:
		return m.AI.Count(e)
	case component.KindUserID:
		return m.UserID.Count(e)
	case component.KindPiece:
		return m.Piece.Count(e)
	case component.KindHealth:
		return m.Health.Count(e)
	case component.KindMotion:
		return m.Motion.Count(e)
	case component.KindMeleeAttack:
		return m.Melee.Count(e)
	case component.KindRangeAttack:
		return m.Range.Count(e)
	case component.KindRangeAttackImmunity:
		return m.Immune.Count(e)
	case component.KindOwned:
		return m.Owned.Count(e)
	case component.KindTurn:
		return m.Turn.Count(e)
	}
	return 0
}

// Destroy removes e from every component store and every board cell in a
// single step. Destroying a dead id reports ErrUnknownEntity.
func (m *Manager) Destroy(e ecs.EntityID) error {
	if !m.ecs.Alive(e) {
		return fmt.Errorf("destroy entity %d: %w", e, ecs.ErrUnknownEntity)
	}
	for i := range m.board.cells {
		cell := &m.board.cells[i]
		if j := slices.Index(cell.Occupants, e); j >= 0 {
			cell.Occupants = slices.Delete(cell.Occupants, j, j+1)
		}
		if cell.Terrain == e {
			cell.Terrain = 0
		}
	}
	m.ecs.Destroy(e)
	return nil
}

// ── Board access ─────────────────────────────────────────────────────

// Cell returns a copy of the cell at c.
func (m *Manager) Cell(c Coord) (Cell, bool) {
	if !m.board.In(c) {
		return Cell{}, false
	}
	cell := m.board.at(c)
	return Cell{Terrain: cell.Terrain, Occupants: slices.Clone(cell.Occupants)}, true
}

// Occupant returns the first unit standing on c.
func (m *Manager) Occupant(c Coord) (ecs.EntityID, bool) {
	if !m.board.In(c) {
		return 0, false
	}
	occ := m.board.at(c).Occupants
	if len(occ) == 0 {
		return 0, false
	}
	return occ[0], true
}

// Passable reports whether a unit may cross c, ignoring other units.
func (m *Manager) Passable(c Coord) bool {
	if !m.board.In(c) {
		return false
	}
	tile := m.board.at(c).Terrain
	return !tile.IsZero() && !m.Impassable.Has(tile)
}

// CanHost reports whether a unit may end its move on c: the tile is
// occupiable, not impassable, and nobody stands there.
func (m *Manager) CanHost(c Coord) bool {
	if !m.Passable(c) {
		return false
	}
	cell := m.board.at(c)
	return m.Occupiable.Has(cell.Terrain) && len(cell.Occupants) == 0
}

// SetTerrain installs tile as the terrain of cell c.
func (m *Manager) SetTerrain(c Coord, tile ecs.EntityID) error {
	if !m.board.In(c) {
		return fmt.Errorf("set terrain at %v: %w", c, ErrOffBoard)
	}
	if !m.ecs.Alive(tile) {
		return fmt.Errorf("set terrain at %v: %w", c, ecs.ErrUnknownEntity)
	}
	if !m.Terrain.Has(tile) {
		return fmt.Errorf("set terrain at %v: entity %d has no terrain", c, tile)
	}
	m.board.at(c).Terrain = tile
	return nil
}

// PlaceOccupant puts an off-board unit onto c and records its Position.
func (m *Manager) PlaceOccupant(e ecs.EntityID, c Coord) error {
	if !m.ecs.Alive(e) {
		return fmt.Errorf("place entity %d: %w", e, ecs.ErrUnknownEntity)
	}
	if !m.board.In(c) {
		return fmt.Errorf("place entity %d at %v: %w", e, c, ErrOffBoard)
	}
	if m.Position.Has(e) {
		return fmt.Errorf("place entity %d at %v: already on board: %w", e, c, ErrCellUnavailable)
	}
	if !m.CanHost(c) {
		return fmt.Errorf("place entity %d at %v: %w", e, c, ErrCellUnavailable)
	}
	cell := m.board.at(c)
	cell.Occupants = append(cell.Occupants, e)
	m.Position.Set(e, &component.Position{Row: c.Row, Col: c.Col})
	return nil
}

// MoveOccupant relocates an on-board unit to c. Only the start and
// destination cells change.
func (m *Manager) MoveOccupant(e ecs.EntityID, to Coord) error {
	from, err := m.occupantCell(e)
	if err != nil {
		return err
	}
	if !m.board.In(to) {
		return fmt.Errorf("move entity %d to %v: %w", e, to, ErrOffBoard)
	}
	if !m.CanHost(to) {
		return fmt.Errorf("move entity %d to %v: %w", e, to, ErrCellUnavailable)
	}
	m.board.removeOccupant(from, e)
	cell := m.board.at(to)
	cell.Occupants = append(cell.Occupants, e)
	m.Position.Set(e, &component.Position{Row: to.Row, Col: to.Col})
	return nil
}

// RemoveOccupant takes a unit off the board and drops its Position.
func (m *Manager) RemoveOccupant(e ecs.EntityID) error {
	from, err := m.occupantCell(e)
	if err != nil {
		return err
	}
	m.board.removeOccupant(from, e)
	m.Position.Remove(e)
	return nil
}

// occupantCell resolves e's Position and checks the board agrees with it.
func (m *Manager) occupantCell(e ecs.EntityID) (Coord, error) {
	if !m.ecs.Alive(e) {
		return Coord{}, fmt.Errorf("entity %d: %w", e, ecs.ErrUnknownEntity)
	}
	c, ok := m.PositionOf(e)
	if !ok {
		return Coord{}, fmt.Errorf("entity %d is not on the board: %w", e, ErrCellUnavailable)
	}
	if !m.board.In(c) || !slices.Contains(m.board.at(c).Occupants, e) {
		return Coord{}, fmt.Errorf("entity %d position %v not mirrored on board: %w", e, c, ErrInvariant)
	}
	return c, nil
}

// ── Lookups ──────────────────────────────────────────────────────────

// PositionOf returns the canonical Position of e as a Coord.
func (m *Manager) PositionOf(e ecs.EntityID) (Coord, bool) {
	p, ok := m.Position.First(e)
	if !ok {
		return Coord{}, false
	}
	return Coord{Row: p.Row, Col: p.Col}, true
}

// OwnerOf returns the player entity that owns e.
func (m *Manager) OwnerOf(e ecs.EntityID) (ecs.EntityID, bool) {
	o, ok := m.Owned.First(e)
	if !ok {
		return 0, false
	}
	return o.Owner, true
}

// IsLive reports whether e is alive and, if it has Health, above zero.
func (m *Manager) IsLive(e ecs.EntityID) bool {
	if !m.ecs.Alive(e) {
		return false
	}
	if h, ok := m.Health.First(e); ok {
		return h.Current > 0
	}
	return true
}

// TurnEntity returns the singleton turn tracker.
func (m *Manager) TurnEntity() (ecs.EntityID, bool) {
	for e := range m.Turn.Entities() {
		return e, true
	}
	return 0, false
}

// CheckInvariants verifies that every occupant is alive and that its
// Position matches the cell it stands on, and that no unit sits on an
// impassable or unoccupiable tile.
func (m *Manager) CheckInvariants() error {
	var err error
	m.board.Each(func(c Coord) {
		if err != nil {
			return
		}
		cell := m.board.at(c)
		if len(cell.Occupants) > 0 && !m.CanHostOccupied(c) {
			err = fmt.Errorf("cell %v holds a unit on unhostable terrain: %w", c, ErrInvariant)
			return
		}
		for _, e := range cell.Occupants {
			if !m.ecs.Alive(e) {
				err = fmt.Errorf("cell %v references dead entity %d: %w", c, e, ErrInvariant)
				return
			}
			if p, ok := m.PositionOf(e); !ok || p != c {
				err = fmt.Errorf("entity %d on cell %v has position %v: %w", e, c, p, ErrInvariant)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	for e := range m.Piece.Entities() {
		if c, ok := m.PositionOf(e); ok {
			if !m.board.In(c) || !slices.Contains(m.board.at(c).Occupants, e) {
				return fmt.Errorf("entity %d position %v missing from board: %w", e, c, ErrInvariant)
			}
		}
	}
	return nil
}

// CanHostOccupied is CanHost without the emptiness check.
func (m *Manager) CanHostOccupied(c Coord) bool {
	return m.Passable(c) && m.Occupiable.Has(m.board.at(c).Terrain)
}
