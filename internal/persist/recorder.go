package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridwar/server/internal/factory"
	"github.com/gridwar/server/internal/game"
)

type matchWriter interface {
	CreateMatch(ctx context.Context, id uuid.UUID, spec []byte) error
}

// Recorder journals match history: match headers are written straight
// through, accepted commands go to the batching journal.
type Recorder struct {
	matches matchWriter
	journal *Journal
	log     *zap.Logger
}

func NewRecorder(matches matchWriter, journal *Journal, log *zap.Logger) *Recorder {
	return &Recorder{matches: matches, journal: journal, log: log}
}

func (r *Recorder) MatchCreated(ctx context.Context, id uuid.UUID, spec factory.MatchSpec) error {
	raw, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encode match spec: %w", err)
	}
	return r.matches.CreateMatch(ctx, id, raw)
}

func (r *Recorder) Record(a game.Action) {
	payload, err := json.Marshal(a.Command)
	if err != nil {
		r.log.Error("encode action", zap.Int64("seq", a.Seq), zap.Error(err))
		return
	}
	r.journal.Record(ActionRow{
		MatchID:    a.Match,
		Seq:        a.Seq,
		Kind:       string(a.Command.Kind),
		Payload:    payload,
		RecordedAt: a.At,
	})
}

// DecodeCommands turns journaled rows back into commands, in seq order.
func DecodeCommands(rows []ActionRow) ([]game.Command, error) {
	out := make([]game.Command, 0, len(rows))
	for _, row := range rows {
		var cmd game.Command
		if err := json.Unmarshal(row.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("decode action %d: %w", row.Seq, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}
