package game

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridwar/server/internal/data"
	"github.com/gridwar/server/internal/factory"
	"github.com/gridwar/server/internal/system"
)

// Deps holds shared dependencies injected into every match.
type Deps struct {
	Log      *zap.Logger
	Pieces   *data.PieceTable  // nil = built-in stat blocks
	Damage   system.DamageRule // nil = flat damage
	Recorder Recorder          // nil = no history
	// MaxMatches caps concurrent matches; 0 means unlimited.
	MaxMatches int
}

// Game is the registry of running matches. Its lock only guards the map;
// each match serializes its own commands.
type Game struct {
	deps Deps
	log  *zap.Logger

	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
	pending int // slots reserved by CreateMatch calls still in flight
}

func New(deps Deps) *Game {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Game{
		deps:    deps,
		log:     deps.Log,
		matches: make(map[uuid.UUID]*Match),
	}
}

// CreateMatch sets up and registers a new match under a fresh id. A slot
// is reserved before anything is built or recorded, so a match over the
// limit never reaches the recorder.
func (g *Game) CreateMatch(ctx context.Context, spec factory.MatchSpec) (*Match, error) {
	if err := g.reserve(); err != nil {
		return nil, err
	}
	registered := false
	defer func() {
		if !registered {
			g.release()
		}
	}()

	id := uuid.New()
	mt, err := NewMatch(id, spec, g.deps)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	if g.deps.Recorder != nil {
		if err := g.deps.Recorder.MatchCreated(ctx, id, spec); err != nil {
			return nil, fmt.Errorf("record match %s: %w", id, err)
		}
	}

	g.mu.Lock()
	g.pending--
	g.matches[id] = mt
	registered = true
	g.mu.Unlock()

	g.log.Info("match created",
		zap.String("match", id.String()),
		zap.Int("rows", spec.Rows), zap.Int("cols", spec.Cols),
		zap.Int("players", len(spec.Players)),
	)
	return mt, nil
}

func (g *Game) reserve() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deps.MaxMatches > 0 && len(g.matches)+g.pending >= g.deps.MaxMatches {
		return ErrMatchLimit
	}
	g.pending++
	return nil
}

func (g *Game) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending--
}

func (g *Game) Match(id uuid.UUID) (*Match, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mt, ok := g.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, ErrUnknownMatch)
	}
	return mt, nil
}

func (g *Game) RemoveMatch(id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.matches[id]; !ok {
		return fmt.Errorf("match %s: %w", id, ErrUnknownMatch)
	}
	delete(g.matches, id)
	g.log.Info("match removed", zap.String("match", id.String()))
	return nil
}

// Matches returns the ids of all running matches, sorted.
func (g *Game) Matches() []uuid.UUID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(g.matches))
	for id := range g.matches {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids
}
