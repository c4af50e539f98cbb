package system

import (
	"fmt"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// TurnSystem advances the turn order. It does not authorize callers.
type TurnSystem struct {
	m *world.Manager
}

func NewTurnSystem(m *world.Manager) *TurnSystem {
	return &TurnSystem{m: m}
}

func (s *TurnSystem) turn() (*component.Turn, error) {
	e, ok := s.m.TurnEntity()
	if !ok {
		return nil, ErrNoTurnTracker
	}
	t, _ := s.m.Turn.First(e)
	if len(t.Players) == 0 || t.Current < 0 || t.Current >= len(t.Players) {
		return nil, fmt.Errorf("turn index %d of %d players: %w", t.Current, len(t.Players), world.ErrInvariant)
	}
	return t, nil
}

// Current returns the player whose turn it is.
func (s *TurnSystem) Current() (ecs.EntityID, error) {
	t, err := s.turn()
	if err != nil {
		return 0, err
	}
	return t.Players[t.Current], nil
}

// Players returns the turn order.
func (s *TurnSystem) Players() ([]ecs.EntityID, error) {
	t, err := s.turn()
	if err != nil {
		return nil, err
	}
	return append([]ecs.EntityID(nil), t.Players...), nil
}

// EndTurn hands the turn to the next player, clears the attack bookkeeping
// and refills the motion of every piece the new player owns.
func (s *TurnSystem) EndTurn() (ecs.EntityID, error) {
	t, err := s.turn()
	if err != nil {
		return 0, err
	}
	t.Current = (t.Current + 1) % len(t.Players)
	clear(t.Acted)
	next := t.Players[t.Current]

	ecs.Each2(s.m.Owned, s.m.Motion, func(_ ecs.EntityID, o *component.Owned, mo *component.Motion) {
		if o.Owner == next {
			mo.Current = mo.Base
		}
	})
	return next, nil
}

// HasActed reports whether piece already attacked this turn.
func (s *TurnSystem) HasActed(piece ecs.EntityID) bool {
	t, err := s.turn()
	if err != nil {
		return false
	}
	_, ok := t.Acted[piece]
	return ok
}

// MarkActed records that piece attacked this turn.
func (s *TurnSystem) MarkActed(piece ecs.EntityID) error {
	t, err := s.turn()
	if err != nil {
		return err
	}
	if t.Acted == nil {
		t.Acted = make(map[ecs.EntityID]struct{})
	}
	t.Acted[piece] = struct{}{}
	return nil
}
