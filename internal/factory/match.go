package factory

import (
	"fmt"

	"github.com/gridwar/server/internal/core/ecs"
)

// PlayerKind selects who controls a player.
type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindAI    PlayerKind = "ai"
)

// PlayerSpec describes one seat of a match.
type PlayerSpec struct {
	Name   string     `json:"name"`
	UserID string     `json:"user_id,omitempty"`
	Kind   PlayerKind `json:"kind"`
	Corner Corner     `json:"corner"`
}

// MatchSpec is everything needed to lay out a fresh match. An empty Layout
// means an all-flatland board.
type MatchSpec struct {
	Rows    int          `json:"rows"`
	Cols    int          `json:"cols"`
	Layout  []string     `json:"layout,omitempty"`
	Players []PlayerSpec `json:"players"`
}

// Setup is what NewMatch built.
type Setup struct {
	Players []ecs.EntityID
	Turn    ecs.EntityID
	// Pieces holds each player's army in Players order.
	Pieces [][]ecs.EntityID
}

// Validate checks the spec before any entity is created.
func (s MatchSpec) Validate() error {
	if s.Rows < deployBlock || s.Cols < deployBlock {
		return fmt.Errorf("board %dx%d smaller than %dx%d", s.Rows, s.Cols, deployBlock, deployBlock)
	}
	if len(s.Players) < 2 || len(s.Players) > 4 {
		return fmt.Errorf("match needs 2 to 4 players, got %d", len(s.Players))
	}
	used := make(map[Corner]string, len(s.Players))
	users := make(map[string]string, len(s.Players))
	for _, p := range s.Players {
		if p.Name == "" {
			return fmt.Errorf("player without a name")
		}
		switch p.Kind {
		case KindHuman:
			if p.UserID == "" {
				return fmt.Errorf("human player %q needs a user id", p.Name)
			}
		case KindAI:
		default:
			return fmt.Errorf("player %q: unknown kind %q", p.Name, p.Kind)
		}
		if p.UserID != "" {
			if other, dup := users[p.UserID]; dup {
				return fmt.Errorf("players %q and %q share user id %q", other, p.Name, p.UserID)
			}
			users[p.UserID] = p.Name
		}
		if _, ok := cornerNames[p.Corner]; !ok {
			return fmt.Errorf("player %q: invalid corner %d", p.Name, p.Corner)
		}
		if other, dup := used[p.Corner]; dup {
			return fmt.Errorf("players %q and %q share corner %s", other, p.Name, p.Corner)
		}
		used[p.Corner] = p.Name
	}
	// Two 5-wide blocks on the same edge must not overlap.
	if s.Cols < 2*deployBlock && (hasBoth(used, TopLeft, TopRight) || hasBoth(used, BottomLeft, BottomRight)) {
		return fmt.Errorf("board %d columns wide cannot fit two armies on one edge", s.Cols)
	}
	if s.Rows < 2*deployBlock && (hasBoth(used, TopLeft, BottomLeft) || hasBoth(used, TopRight, BottomRight)) {
		return fmt.Errorf("board %d rows high cannot fit two armies on one edge", s.Rows)
	}
	return nil
}

func hasBoth(used map[Corner]string, a, b Corner) bool {
	_, okA := used[a]
	_, okB := used[b]
	return okA && okB
}

// NewMatch builds the board, the players and their armies, and the turn
// tracker. The factory's manager must have been created with spec's
// dimensions and be empty.
func (f *Factory) NewMatch(spec MatchSpec) (*Setup, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("new match: %w", err)
	}
	if f.m.Rows() != spec.Rows || f.m.Cols() != spec.Cols {
		return nil, fmt.Errorf("new match: manager is %dx%d, spec wants %dx%d", f.m.Rows(), f.m.Cols(), spec.Rows, spec.Cols)
	}

	var err error
	if len(spec.Layout) > 0 {
		err = f.CreateBoardFromLayout(spec.Layout)
	} else {
		err = f.CreateBoardBasic()
	}
	if err != nil {
		return nil, fmt.Errorf("new match: %w", err)
	}

	setup := &Setup{}
	for _, ps := range spec.Players {
		var p ecs.EntityID
		if ps.Kind == KindAI {
			p, err = f.AIPlayer(ps.Name)
		} else {
			p, err = f.HumanPlayer(ps.Name, ps.UserID)
		}
		if err != nil {
			return nil, fmt.Errorf("new match: %w", err)
		}
		army, err := f.CreateArmy(p)
		if err != nil {
			return nil, fmt.Errorf("new match: player %q: %w", ps.Name, err)
		}
		if err := f.PlaceArmy(army, ps.Corner); err != nil {
			return nil, fmt.Errorf("new match: player %q: %w", ps.Name, err)
		}
		setup.Players = append(setup.Players, p)
		setup.Pieces = append(setup.Pieces, army)
	}

	setup.Turn, err = f.TurnTracker(setup.Players)
	if err != nil {
		return nil, fmt.Errorf("new match: %w", err)
	}
	return setup, nil
}
