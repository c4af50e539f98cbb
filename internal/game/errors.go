package game

import "errors"

var (
	// ErrNotYourTurn is returned when the requester's player is not the
	// current player.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrNotOwner is returned when the requester does not control the unit.
	ErrNotOwner = errors.New("requester does not own unit")
	// ErrAlreadyActed is returned when a unit attacks twice in one turn.
	ErrAlreadyActed = errors.New("unit already attacked this turn")
	// ErrUnknownMatch is returned for match ids the registry does not hold.
	ErrUnknownMatch = errors.New("unknown match")
	// ErrMatchLimit is returned when the registry is full.
	ErrMatchLimit = errors.New("match limit reached")
)
