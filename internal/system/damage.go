package system

import (
	"fmt"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// Strike is one attacker→victim damage calculation.
type Strike struct {
	Attacker      ecs.EntityID
	AttackerPiece component.PieceType
	Victim        ecs.EntityID
	VictimPiece   component.PieceType
	VictimHealth  int
	Power         int
	Ranged        bool
	Splash        bool // victim was caught by splash, not targeted
}

// DamageRule turns a strike into hit points lost.
type DamageRule interface {
	Damage(s Strike) int
}

// FlatDamage deals the attacker's power unchanged.
type FlatDamage struct{}

func (FlatDamage) Damage(s Strike) int { return s.Power }

// Hit records the effect of one strike on one unit.
type Hit struct {
	Entity    ecs.EntityID        `json:"id"`
	Piece     component.PieceType `json:"-"`
	Owner     ecs.EntityID        `json:"owner"`
	At        world.Coord         `json:"at"`
	Damage    int                 `json:"damage"`
	Remaining int                 `json:"health"`
	Died      bool                `json:"died"`
}

// Outcome is the result of a resolved attack.
type Outcome struct {
	Attacker ecs.EntityID `json:"attacker"`
	Target   world.Coord  `json:"target"`
	Hits     []Hit        `json:"hits"`
}

// Deaths returns the hits that destroyed their unit.
func (o Outcome) Deaths() []Hit {
	var out []Hit
	for _, h := range o.Hits {
		if h.Died {
			out = append(out, h)
		}
	}
	return out
}

// strike applies one calculated strike to victim at c. Health is floored at
// zero; a unit reaching zero is destroyed.
func strike(m *world.Manager, rule DamageRule, s Strike, c world.Coord) (Hit, error) {
	h, ok := m.Health.First(s.Victim)
	if !ok {
		return Hit{}, fmt.Errorf("strike entity %d: no health", s.Victim)
	}
	s.VictimHealth = h.Current
	if p, ok := m.Piece.First(s.Victim); ok {
		s.VictimPiece = p.Type
	}
	dmg := rule.Damage(s)
	if dmg < 0 {
		dmg = 0
	}
	h.Current = max(h.Current-dmg, 0)

	owner, _ := m.OwnerOf(s.Victim)
	hit := Hit{
		Entity:    s.Victim,
		Piece:     s.VictimPiece,
		Owner:     owner,
		At:        c,
		Damage:    dmg,
		Remaining: h.Current,
		Died:      h.Current <= 0,
	}
	if hit.Died {
		if err := m.Destroy(s.Victim); err != nil {
			return hit, err
		}
	}
	return hit, nil
}

func pieceType(m *world.Manager, e ecs.EntityID) component.PieceType {
	if p, ok := m.Piece.First(e); ok {
		return p.Type
	}
	return 0
}

// isEnemy reports whether other is a live unit owned by someone else than
// the owner of e.
func isEnemy(m *world.Manager, e, other ecs.EntityID) bool {
	if other == e || !m.IsLive(other) || !m.Health.Has(other) {
		return false
	}
	theirs, ok := m.OwnerOf(other)
	if !ok {
		return false
	}
	mine, _ := m.OwnerOf(e)
	return theirs != mine
}
