package system

import (
	"fmt"

	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// RangeSystem resolves ranged attacks. Distance is Manhattan; splash offsets
// are applied to the targeted cell.
type RangeSystem struct {
	m    *world.Manager
	rule DamageRule
}

// NewRangeSystem returns a range system. A nil rule deals flat damage.
func NewRangeSystem(m *world.Manager, rule DamageRule) *RangeSystem {
	if rule == nil {
		rule = FlatDamage{}
	}
	return &RangeSystem{m: m, rule: rule}
}

// AttackableLocations lists every on-board cell within the attacker's
// [MinRange, MaxRange] window, empty cells included, minus cells held by an
// immune unit. Row-major order.
func (s *RangeSystem) AttackableLocations(e ecs.EntityID) []world.Coord {
	m := s.m
	if !m.IsLive(e) {
		return nil
	}
	atk, ok := m.Range.First(e)
	if !ok {
		return nil
	}
	pos, ok := m.PositionOf(e)
	if !ok {
		return nil
	}
	var out []world.Coord
	m.Board().Each(func(c world.Coord) {
		d := world.Manhattan(pos, c)
		if d < atk.MinRange || d > atk.MaxRange {
			return
		}
		if occ, ok := m.Occupant(c); ok && m.Immune.Has(occ) {
			return
		}
		out = append(out, c)
	})
	return out
}

func (s *RangeSystem) inRange(e ecs.EntityID, target world.Coord) bool {
	m := s.m
	atk, ok := m.Range.First(e)
	if !ok || !m.IsLive(e) || !m.Board().In(target) {
		return false
	}
	pos, ok := m.PositionOf(e)
	if !ok {
		return false
	}
	d := world.Manhattan(pos, target)
	if d < atk.MinRange || d > atk.MaxRange {
		return false
	}
	occ, ok := m.Occupant(target)
	return !ok || !m.Immune.Has(occ)
}

// Resolve fires at target. The occupant of target, if any, takes the primary
// strike; every live non-immune unit on a splash cell takes a splash strike.
// A unit is struck at most once per attack.
func (s *RangeSystem) Resolve(attacker ecs.EntityID, target world.Coord) (Outcome, error) {
	if !s.inRange(attacker, target) {
		return Outcome{}, fmt.Errorf("ranged attack by %d on %v: %w", attacker, target, ErrOutOfRange)
	}
	m := s.m
	atk, _ := m.Range.First(attacker)
	splash := append([]world.Coord(nil), target)
	for _, off := range atk.Splash {
		splash = append(splash, target.Add(off))
	}

	out := Outcome{Attacker: attacker, Target: target}
	struck := make(map[ecs.EntityID]bool)
	attackerPiece := pieceType(m, attacker)
	for i, c := range splash {
		victim, ok := m.Occupant(c)
		if !ok || struck[victim] || !m.IsLive(victim) || !m.Health.Has(victim) || m.Immune.Has(victim) {
			continue
		}
		struck[victim] = true
		hit, err := strike(m, s.rule, Strike{
			Attacker:      attacker,
			AttackerPiece: attackerPiece,
			Victim:        victim,
			Power:         atk.Power,
			Ranged:        true,
			Splash:        i > 0,
		}, c)
		if err != nil {
			return Outcome{}, err
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}
