package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/gridwar/server/internal/factory"
	"github.com/gridwar/server/internal/game"
	"github.com/gridwar/server/internal/persist"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func snapshotAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := boot(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	spec, err := rt.cfg.Match.Spec()
	if err != nil {
		return err
	}
	mt, err := rt.game.CreateMatch(ctx, spec)
	if err != nil {
		return err
	}
	snap, err := mt.Snapshot()
	if err != nil {
		return err
	}
	return printJSON(struct {
		Match uuid.UUID     `json:"match"`
		State game.Snapshot `json:"state"`
	}{mt.ID(), snap})
}

// playResult is one line of play output.
type playResult struct {
	Line   int              `json:"line"`
	Kind   game.CommandKind `json:"kind"`
	Result any              `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	src := cmd.Args().First()
	if src == "" {
		return fmt.Errorf("play: missing script path (use - for stdin)")
	}
	var in io.Reader = os.Stdin
	if src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("play: %w", err)
		}
		defer f.Close()
		in = f
	}

	rt, err := boot(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	spec, err := rt.cfg.Match.Spec()
	if err != nil {
		return err
	}
	mt, err := rt.game.CreateMatch(ctx, spec)
	if err != nil {
		return err
	}
	rt.log.Info("match created", zap.String("match", mt.ID().String()))

	enc := json.NewEncoder(os.Stdout)
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		if ctx.Err() != nil {
			return ctx.Err()
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var c game.Command
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return fmt.Errorf("play: line %d: %w", line, err)
		}
		res := playResult{Line: line, Kind: c.Kind}
		out, err := mt.Apply(c)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Result = out
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("play: read script: %w", err)
	}

	if cmd.Bool("final") {
		snap, err := mt.Snapshot()
		if err != nil {
			return err
		}
		return printJSON(snap)
	}
	return nil
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	id, err := uuid.Parse(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("replay: match id: %w", err)
	}
	rt, err := boot(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.repo == nil {
		return errors.New("replay: database is disabled")
	}

	row, err := rt.repo.LoadMatch(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("replay: %s: %w", id, game.ErrUnknownMatch)
	}
	var spec factory.MatchSpec
	if err := json.Unmarshal(row.Spec, &spec); err != nil {
		return fmt.Errorf("replay: decode spec: %w", err)
	}
	actions, err := rt.repo.LoadActions(ctx, id)
	if err != nil {
		return err
	}
	cmds, err := persist.DecodeCommands(actions)
	if err != nil {
		return err
	}

	// Replaying must not journal the same actions again.
	deps := rt.deps
	deps.Recorder = nil
	mt, err := game.NewMatch(id, spec, deps)
	if err != nil {
		return err
	}
	start := time.Now()
	for i, c := range cmds {
		if _, err := mt.Apply(c); err != nil {
			return fmt.Errorf("replay: action %d diverged: %w", actions[i].Seq, err)
		}
	}
	if err := mt.CheckInvariants(); err != nil {
		return err
	}
	rt.log.Info("match replayed",
		zap.String("match", id.String()),
		zap.Int("actions", len(cmds)),
		zap.Duration("took", time.Since(start)),
	)
	snap, err := mt.Snapshot()
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func migrateAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := boot(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.repo == nil {
		return errors.New("migrate: database is disabled")
	}
	rt.log.Info("migrations up to date")
	return nil
}
