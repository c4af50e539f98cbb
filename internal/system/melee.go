package system

import (
	"fmt"
	"slices"

	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// MeleeSystem resolves close-quarters attacks on orthogonal neighbours.
type MeleeSystem struct {
	m    *world.Manager
	rule DamageRule
}

// NewMeleeSystem returns a melee system. A nil rule deals flat damage.
func NewMeleeSystem(m *world.Manager, rule DamageRule) *MeleeSystem {
	if rule == nil {
		rule = FlatDamage{}
	}
	return &MeleeSystem{m: m, rule: rule}
}

// AttackableLocations lists the neighbouring cells holding a live enemy.
// Units without a positive melee power attack nothing.
func (s *MeleeSystem) AttackableLocations(e ecs.EntityID) []world.Coord {
	m := s.m
	if !m.IsLive(e) {
		return nil
	}
	atk, ok := m.Melee.First(e)
	if !ok || atk.Power <= 0 {
		return nil
	}
	pos, ok := m.PositionOf(e)
	if !ok {
		return nil
	}
	var out []world.Coord
	for _, c := range pos.Neighbours() {
		if occ, ok := m.Occupant(c); ok && isEnemy(m, e, occ) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, world.Compare)
	return out
}

// Resolve strikes the occupant of target.
func (s *MeleeSystem) Resolve(attacker ecs.EntityID, target world.Coord) (Outcome, error) {
	if !slices.Contains(s.AttackableLocations(attacker), target) {
		return Outcome{}, fmt.Errorf("melee by %d on %v: %w", attacker, target, ErrNotAdjacent)
	}
	atk, _ := s.m.Melee.First(attacker)
	victim, _ := s.m.Occupant(target)

	hit, err := strike(s.m, s.rule, Strike{
		Attacker:      attacker,
		AttackerPiece: pieceType(s.m, attacker),
		Victim:        victim,
		Power:         atk.Power,
	}, target)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Attacker: attacker, Target: target, Hits: []Hit{hit}}, nil
}
