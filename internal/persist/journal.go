package persist

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gridwar/server/internal/config"
)

// batchWriter is the storage side of the journal.
type batchWriter interface {
	WriteActions(ctx context.Context, rows []ActionRow) error
}

// Journal buffers accepted match actions and writes them in batches from
// its own goroutine, so match locks are never held across database I/O.
type Journal struct {
	w        batchWriter
	log      *zap.Logger
	queue    chan ActionRow
	batch    int
	interval time.Duration
	dropped  atomic.Int64
	done     chan struct{}
}

func NewJournal(w batchWriter, cfg config.JournalConfig, log *zap.Logger) *Journal {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Journal{
		w:        w,
		log:      log,
		queue:    make(chan ActionRow, cfg.QueueSize),
		batch:    cfg.BatchSize,
		interval: cfg.FlushInterval,
		done:     make(chan struct{}),
	}
}

// Record queues a row without blocking. A full queue drops the row.
func (j *Journal) Record(row ActionRow) bool {
	if row.RecordedAt.IsZero() {
		row.RecordedAt = time.Now()
	}
	select {
	case j.queue <- row:
		return true
	default:
		n := j.dropped.Add(1)
		j.log.Warn("journal queue full, action dropped",
			zap.String("match", row.MatchID.String()),
			zap.Int64("seq", row.Seq),
			zap.Int64("dropped_total", n),
		)
		return false
	}
}

// Dropped returns how many rows Record has discarded.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (j *Journal) Run(ctx context.Context) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	buf := make([]ActionRow, 0, j.batch)
	for {
		select {
		case row := <-j.queue:
			buf = append(buf, row)
			if len(buf) >= j.batch {
				buf = j.flush(ctx, buf)
			}
		case <-ticker.C:
			buf = j.flush(ctx, buf)
		case <-ctx.Done():
		drain:
			for {
				select {
				case row := <-j.queue:
					buf = append(buf, row)
				default:
					break drain
				}
			}
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			j.flush(final, buf)
			cancel()
			return
		}
	}
}

// Done is closed once Run has returned.
func (j *Journal) Done() <-chan struct{} { return j.done }

func (j *Journal) flush(ctx context.Context, buf []ActionRow) []ActionRow {
	if len(buf) == 0 {
		return buf
	}
	if err := j.w.WriteActions(ctx, buf); err != nil {
		j.log.Error("journal flush failed", zap.Int("rows", len(buf)), zap.Error(err))
	} else {
		j.log.Debug("journal flushed", zap.Int("rows", len(buf)))
	}
	return buf[:0]
}
