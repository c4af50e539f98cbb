package component

import (
	"fmt"

	"github.com/gridwar/server/internal/core/ecs"
)

// PieceType is the unit class of a player-controlled piece.
type PieceType uint8

const (
	Infantry PieceType = iota
	MachineGun
	Artillery
	CommandBunker
)

var pieceNames = map[PieceType]string{
	Infantry:      "infantry",
	MachineGun:    "machine_gun",
	Artillery:     "artillery",
	CommandBunker: "command_bunker",
}

func (t PieceType) String() string {
	if s, ok := pieceNames[t]; ok {
		return s
	}
	return fmt.Sprintf("piece(%d)", uint8(t))
}

// ParsePieceType maps a snake_case piece name back to its type.
func ParsePieceType(s string) (PieceType, error) {
	for t, name := range pieceNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown piece type %q", s)
}

// Piece marks an entity as a unit on the board.
type Piece struct {
	Type PieceType
}

// Health stores hit points. Current <= Max; Current <= 0 means dead.
type Health struct {
	Current int
	Max     int
}

// Motion is the per-turn movement budget. Current resets to Base when the
// owner's turn starts. Cost is the energy charged per tile moved.
type Motion struct {
	Base    int
	Current int
	Cost    int
}

// MeleeAttack hits one orthogonally adjacent enemy.
type MeleeAttack struct {
	Power int
	Cost  int
}

// Offset is a (row, col) displacement on the board.
type Offset struct {
	DRow int
	DCol int
}

// RangeAttack hits any cell whose distance lies in [MinRange, MaxRange].
// Splash offsets are relative to the targeted cell.
type RangeAttack struct {
	Power    int
	MinRange int
	MaxRange int
	Splash   []Offset
	Cost     int
}

// RangeAttackImmunity marks units that ranged attacks cannot target or splash.
type RangeAttackImmunity struct{}

// Owned points a piece at its controlling player. Relation only.
type Owned struct {
	Owner ecs.EntityID
}
