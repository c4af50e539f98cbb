package factory

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/data"
	"github.com/gridwar/server/internal/world"
)

// ErrMalformedBundle is returned when a builder cannot assemble the component
// set an entity of that kind requires.
var ErrMalformedBundle = errors.New("malformed component bundle")

// Factory builds well-formed entities as fixed component bundles so callers
// never hand-assemble them.
type Factory struct {
	m      *world.Manager
	pieces *data.PieceTable
}

// New returns a factory writing into m. A nil table selects the built-in
// piece stat blocks.
func New(m *world.Manager, pieces *data.PieceTable) *Factory {
	if pieces == nil {
		pieces = data.DefaultPieceTable()
	}
	return &Factory{m: m, pieces: pieces}
}

// Manager returns the manager the factory writes into.
func (f *Factory) Manager() *world.Manager { return f.m }

// create validates the bundle, allocates an entity and attaches every
// component. A failure part-way destroys the entity so no orphan survives.
func (f *Factory) create(components ...any) (ecs.EntityID, error) {
	for _, c := range components {
		if c == nil {
			return 0, fmt.Errorf("%w: nil component", ErrMalformedBundle)
		}
		if v := reflect.ValueOf(c); v.Kind() == reflect.Pointer && v.IsNil() {
			return 0, fmt.Errorf("%w: nil %T", ErrMalformedBundle, c)
		}
	}
	e := f.m.CreateEntity()
	for _, c := range components {
		if err := f.m.AddComponent(e, c); err != nil {
			_ = f.m.Destroy(e)
			return 0, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
		}
	}
	return e, nil
}

// ── Tiles ────────────────────────────────────────────────────────────

// Tile builds a terrain tile of the given type:
// flatland, hill and trench are occupiable; mountain is impassable;
// river can be crossed but not occupied.
func (f *Factory) Tile(t component.TerrainType) (ecs.EntityID, error) {
	bundle, err := tileBundle(t)
	if err != nil {
		return 0, err
	}
	return f.create(bundle...)
}

func tileBundle(t component.TerrainType) ([]any, error) {
	switch t {
	case component.Flatland, component.Hill, component.Trench:
		return []any{&component.Terrain{Type: t}, &component.Occupiable{}}, nil
	case component.Mountain:
		return []any{&component.Terrain{Type: t}, &component.Impassable{}}, nil
	case component.River:
		return []any{&component.Terrain{Type: t}}, nil
	}
	return nil, fmt.Errorf("%w: unknown terrain %v", ErrMalformedBundle, t)
}

func (f *Factory) Flatland() (ecs.EntityID, error) { return f.Tile(component.Flatland) }
func (f *Factory) Mountain() (ecs.EntityID, error) { return f.Tile(component.Mountain) }
func (f *Factory) Hill() (ecs.EntityID, error)     { return f.Tile(component.Hill) }
func (f *Factory) Trench() (ecs.EntityID, error)   { return f.Tile(component.Trench) }
func (f *Factory) River() (ecs.EntityID, error)    { return f.Tile(component.River) }

// ── Players ──────────────────────────────────────────────────────────

// HumanPlayer builds a player controlled by the external account userID.
func (f *Factory) HumanPlayer(name, userID string) (ecs.EntityID, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: human player %q needs a user id", ErrMalformedBundle, name)
	}
	return f.create(
		&component.Name{Text: name},
		&component.Human{},
		&component.UserID{ID: userID},
	)
}

// AIPlayer builds a computer-controlled player.
func (f *Factory) AIPlayer(name string) (ecs.EntityID, error) {
	return f.create(&component.Name{Text: name}, &component.AI{})
}

// TurnTracker builds the singleton turn entity cycling through players.
func (f *Factory) TurnTracker(players []ecs.EntityID) (ecs.EntityID, error) {
	if len(players) == 0 {
		return 0, fmt.Errorf("%w: turn tracker needs at least one player", ErrMalformedBundle)
	}
	if _, exists := f.m.TurnEntity(); exists {
		return 0, fmt.Errorf("%w: match already has a turn tracker", ErrMalformedBundle)
	}
	for _, p := range players {
		if !f.isPlayer(p) {
			return 0, fmt.Errorf("%w: entity %d is not a player", ErrMalformedBundle, p)
		}
	}
	return f.create(&component.Turn{
		Players: append([]ecs.EntityID(nil), players...),
		Acted:   make(map[ecs.EntityID]struct{}),
	})
}

func (f *Factory) isPlayer(e ecs.EntityID) bool {
	return f.m.Alive(e) && (f.m.Human.Has(e) != f.m.AI.Has(e))
}

// ── Pieces ───────────────────────────────────────────────────────────

// Piece builds a unit of type pt owned by owner, using the piece table's
// stat block.
func (f *Factory) Piece(pt component.PieceType, owner ecs.EntityID) (ecs.EntityID, error) {
	tpl := f.pieces.Get(pt)
	if tpl == nil {
		return 0, fmt.Errorf("%w: no stat block for %s", ErrMalformedBundle, pt)
	}
	if !f.isPlayer(owner) {
		return 0, fmt.Errorf("%w: owner %d of %s is not a player", ErrMalformedBundle, owner, pt)
	}

	bundle := []any{
		&component.Piece{Type: pt},
		&component.Health{Current: tpl.Health, Max: tpl.Health},
	}
	if tpl.Movement > 0 {
		bundle = append(bundle, &component.Motion{
			Base:    tpl.Movement,
			Current: tpl.Movement,
			Cost:    tpl.MotionCost,
		})
	}
	if tpl.Melee != nil {
		bundle = append(bundle, &component.MeleeAttack{Power: tpl.Melee.Power, Cost: tpl.Melee.Cost})
	}
	if tpl.Range != nil {
		bundle = append(bundle, &component.RangeAttack{
			Power:    tpl.Range.Power,
			MinRange: tpl.Range.Min,
			MaxRange: tpl.Range.Max,
			Splash:   tpl.Range.SplashOffsets(),
			Cost:     tpl.Range.Cost,
		})
	}
	if tpl.RangeImmune {
		bundle = append(bundle, &component.RangeAttackImmunity{})
	}
	bundle = append(bundle, &component.Owned{Owner: owner})
	return f.create(bundle...)
}

func (f *Factory) Infantry(owner ecs.EntityID) (ecs.EntityID, error) {
	return f.Piece(component.Infantry, owner)
}

func (f *Factory) MachineGun(owner ecs.EntityID) (ecs.EntityID, error) {
	return f.Piece(component.MachineGun, owner)
}

func (f *Factory) Artillery(owner ecs.EntityID) (ecs.EntityID, error) {
	return f.Piece(component.Artillery, owner)
}

func (f *Factory) CommandBunker(owner ecs.EntityID) (ecs.EntityID, error) {
	return f.Piece(component.CommandBunker, owner)
}

// armyComposition is the fixed army: 1 bunker, 3 artillery, 7 machine guns,
// 14 infantry, in that order.
var armyComposition = []struct {
	piece component.PieceType
	count int
}{
	{component.CommandBunker, 1},
	{component.Artillery, 3},
	{component.MachineGun, 7},
	{component.Infantry, 14},
}

// ArmySize is the number of pieces CreateArmy builds.
const ArmySize = 25

// CreateArmy builds a full army for owner. On failure every piece built so
// far is destroyed.
func (f *Factory) CreateArmy(owner ecs.EntityID) ([]ecs.EntityID, error) {
	army := make([]ecs.EntityID, 0, ArmySize)
	for _, slot := range armyComposition {
		for i := 0; i < slot.count; i++ {
			e, err := f.Piece(slot.piece, owner)
			if err != nil {
				for _, built := range army {
					_ = f.m.Destroy(built)
				}
				return nil, fmt.Errorf("create army: %w", err)
			}
			army = append(army, e)
		}
	}
	return army, nil
}
