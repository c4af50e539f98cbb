package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/factory"
	"github.com/gridwar/server/internal/world"
)

type CommandKind string

const (
	CmdMove    CommandKind = "move"
	CmdMelee   CommandKind = "melee"
	CmdRange   CommandKind = "range"
	CmdEndTurn CommandKind = "end_turn"
)

// Command is a serializable match command, used by scripted play and
// journal replay.
type Command struct {
	Kind      CommandKind  `json:"kind"`
	Requester string       `json:"requester"`
	Unit      ecs.EntityID `json:"unit,omitempty"`
	Target    world.Coord  `json:"target"`
}

// Action is an accepted command with its position in the match history.
type Action struct {
	Match   uuid.UUID
	Seq     int64
	Command Command
	At      time.Time
}

// Recorder receives match history. Record is called with the match lock
// held and must not block.
type Recorder interface {
	MatchCreated(ctx context.Context, id uuid.UUID, spec factory.MatchSpec) error
	Record(a Action)
}

// Apply dispatches cmd to the matching command method.
func (mt *Match) Apply(cmd Command) (any, error) {
	switch cmd.Kind {
	case CmdMove:
		return mt.MoveUnit(cmd.Requester, cmd.Unit, cmd.Target)
	case CmdMelee:
		return mt.MeleeAttack(cmd.Requester, cmd.Unit, cmd.Target)
	case CmdRange:
		return mt.RangedAttack(cmd.Requester, cmd.Unit, cmd.Target)
	case CmdEndTurn:
		return mt.EndTurn(cmd.Requester)
	}
	return nil, fmt.Errorf("unknown command kind %q", cmd.Kind)
}
