package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MatchRow is a journaled match header.
type MatchRow struct {
	ID        uuid.UUID
	Spec      []byte // JSON match spec
	CreatedAt time.Time
}

// ActionRow is one accepted command of a match.
type ActionRow struct {
	MatchID    uuid.UUID
	Seq        int64
	Kind       string
	Payload    []byte // JSON command
	RecordedAt time.Time
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// CreateMatch stores the header of a new match.
func (r *JournalRepo) CreateMatch(ctx context.Context, id uuid.UUID, spec []byte) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO matches (id, spec) VALUES ($1, $2)`,
		id.String(), spec,
	)
	if err != nil {
		return fmt.Errorf("create match %s: %w", id, err)
	}
	return nil
}

// WriteActions inserts a batch of actions in a single transaction.
// Re-sent rows (same match and seq) are ignored.
func (r *JournalRepo) WriteActions(ctx context.Context, rows []ActionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, a := range rows {
		b.Queue(
			`INSERT INTO match_actions (match_id, seq, kind, payload, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (match_id, seq) DO NOTHING`,
			a.MatchID.String(), a.Seq, a.Kind, a.Payload, a.RecordedAt,
		)
	}
	br := tx.SendBatch(ctx, b)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("journal batch: %w", err)
	}
	return tx.Commit(ctx)
}

// LoadMatch returns the match header, or nil when no such match exists.
func (r *JournalRepo) LoadMatch(ctx context.Context, id uuid.UUID) (*MatchRow, error) {
	row := &MatchRow{ID: id}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT spec, created_at FROM matches WHERE id = $1`, id.String(),
	).Scan(&row.Spec, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", id, err)
	}
	return row, nil
}

// LoadActions returns every action of a match in sequence order.
func (r *JournalRepo) LoadActions(ctx context.Context, id uuid.UUID) ([]ActionRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT seq, kind, payload, recorded_at
		 FROM match_actions WHERE match_id = $1 ORDER BY seq`, id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load actions %s: %w", id, err)
	}
	defer rows.Close()

	var out []ActionRow
	for rows.Next() {
		a := ActionRow{MatchID: id}
		if err := rows.Scan(&a.Seq, &a.Kind, &a.Payload, &a.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
