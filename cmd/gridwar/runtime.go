package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/gridwar/server/internal/config"
	"github.com/gridwar/server/internal/data"
	"github.com/gridwar/server/internal/game"
	"github.com/gridwar/server/internal/persist"
	"github.com/gridwar/server/internal/scripting"
)

// runtime holds everything a subcommand needs. close releases it in reverse
// order of construction.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	deps    game.Deps
	game    *game.Game
	repo    *persist.JournalRepo
	closers []func()
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	_ = rt.log.Sync()
}

// boot wires config, logging, the piece table, scripting and (when enabled)
// the database journal.
func boot(ctx context.Context, cmd *cli.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log}
	rt.deps = game.Deps{Log: log, MaxMatches: cfg.Server.MaxMatches}

	if cfg.Data.PiecesPath != "" {
		pieces, err := data.LoadPieceTable(cfg.Data.PiecesPath)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("load piece table: %w", err)
		}
		rt.deps.Pieces = pieces
		log.Info("piece table loaded", zap.String("path", cfg.Data.PiecesPath), zap.Int("pieces", pieces.Count()))
	}

	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("scripting: %w", err)
		}
		rt.closers = append(rt.closers, engine.Close)
		rt.deps.Damage = engine
	}

	if cfg.Database.Enabled {
		if err := rt.openJournal(ctx); err != nil {
			rt.close()
			return nil, err
		}
	}

	rt.game = game.New(rt.deps)
	return rt, nil
}

func (rt *runtime) openJournal(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dctx, rt.cfg.Database, rt.log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)
	if err := persist.RunMigrations(dctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	rt.repo = persist.NewJournalRepo(db)
	journal := persist.NewJournal(rt.repo, rt.cfg.Journal, rt.log)
	jctx, stop := context.WithCancel(context.Background())
	go journal.Run(jctx)
	rt.closers = append(rt.closers, func() {
		stop()
		<-journal.Done()
		if n := journal.Dropped(); n > 0 {
			rt.log.Warn("journal dropped actions", zap.Int64("dropped", n))
		}
	})
	rt.deps.Recorder = persist.NewRecorder(rt.repo, journal, rt.log)
	return nil
}
