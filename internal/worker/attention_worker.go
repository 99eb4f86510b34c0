package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/config"
	"github.com/focusloop/focusloop-backend/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// AttentionWorker consumes finalized attention sessions from Redis and
// persists summaries plus their distraction events in batches.
type AttentionWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAttentionWorker creates a new AttentionWorker.
func NewAttentionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AttentionWorker {
	return &AttentionWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "attention_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *AttentionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttentionWorker started")

	buffer := make([]*model.AttentionJob, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// Flush on size or age.
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0] // Clear buffer, keep capacity
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistAttentionQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload model.AttentionJob
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then row-by-row recovery, then requeue.
func (w *AttentionWorker) flushSafe(ctx context.Context, batch []*model.AttentionJob) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *AttentionWorker) bulkInsert(ctx context.Context, batch []*model.AttentionJob) error {
	summaryRows := make([][]interface{}, 0, len(batch))
	eventRows := make([][]interface{}, 0)

	for _, p := range batch {
		sessionID, err := uuid.Parse(p.SessionID)
		if err != nil {
			// Trigger the fallback, which handles the bad UUID individually.
			return err
		}
		summaryRows = append(summaryRows, []interface{}{
			sessionID, p.StudentID, time.UnixMilli(p.StartedAt), time.UnixMilli(p.EndedAt),
			p.FocusMs, p.DistractionMs, p.AttentionScore, p.GazeStability,
			p.OverallScore, p.FocusPercentage, p.Pattern, p.ComparedToAverage,
		})
		for _, ev := range p.Events {
			eventRows = append(eventRows, []interface{}{
				sessionID, p.StudentID, time.UnixMilli(ev.StartedAt), ev.DurationMs, ev.Type, ev.Severity,
			})
		}
	}

	if _, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"attention_sessions"},
		[]string{"session_id", "student_id", "started_at", "ended_at", "focus_ms", "distraction_ms",
			"attention_score", "gaze_stability", "overall_score", "focus_percentage", "pattern", "compared_to_average"},
		pgx.CopyFromRows(summaryRows),
	); err != nil {
		return err
	}

	if len(eventRows) == 0 {
		return nil
	}
	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"distraction_events"},
		[]string{"session_id", "student_id", "started_at", "duration_ms", "type", "severity"},
		pgx.CopyFromRows(eventRows),
	)
	return err
}

func (w *AttentionWorker) fallbackInsert(ctx context.Context, batch []*model.AttentionJob) {
	requeueList := make([]*model.AttentionJob, 0)

	for _, p := range batch {
		if err := w.insertSingle(ctx, p); err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *AttentionWorker) insertSingle(ctx context.Context, p *model.AttentionJob) error {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		w.log.Error().Str("session_id", p.SessionID).Msg("Dropping attention payload with invalid UUID")
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO attention_sessions (session_id, student_id, started_at, ended_at, focus_ms, distraction_ms,
		        attention_score, gaze_stability, overall_score, focus_percentage, pattern, compared_to_average)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (session_id) DO NOTHING`,
		sessionID, p.StudentID, time.UnixMilli(p.StartedAt), time.UnixMilli(p.EndedAt),
		p.FocusMs, p.DistractionMs, p.AttentionScore, p.GazeStability,
		p.OverallScore, p.FocusPercentage, p.Pattern, p.ComparedToAverage,
	); err != nil {
		return err
	}

	for _, ev := range p.Events {
		if _, err := tx.Exec(ctx,
			`INSERT INTO distraction_events (session_id, student_id, started_at, duration_ms, type, severity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sessionID, p.StudentID, time.UnixMilli(ev.StartedAt), ev.DurationMs, ev.Type, ev.Severity,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (w *AttentionWorker) requeue(ctx context.Context, items []*model.AttentionJob) {
	// Use a pipeline to push everything back quickly.
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistAttentionQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Avoid thrashing if the DB is down hard.
		time.Sleep(2 * time.Second)
	}
}

func (w *AttentionWorker) shutdown(buffer []*model.AttentionJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
