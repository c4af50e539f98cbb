package system

import "errors"

var (
	// ErrIllegalDestination is returned when a move target is not among the
	// unit's moveable locations.
	ErrIllegalDestination = errors.New("illegal destination")
	// ErrNotAdjacent is returned when a melee target is not an attackable
	// neighbour.
	ErrNotAdjacent = errors.New("target not adjacent")
	// ErrOutOfRange is returned when a ranged target lies outside the
	// attacker's window or is immune.
	ErrOutOfRange = errors.New("target out of range")
	// ErrNoTurnTracker is returned when the match has no Turn entity.
	ErrNoTurnTracker = errors.New("no turn tracker")
)
