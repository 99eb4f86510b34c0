package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/focusloop/focusloop-backend/internal/model"
)

// AttentionRepository reads persisted attention data for analytics. Writes go
// through the attention worker, not this repository.
type AttentionRepository struct {
	pool *pgxpool.Pool
}

// NewAttentionRepository creates a new AttentionRepository.
func NewAttentionRepository(pool *pgxpool.Pool) *AttentionRepository {
	return &AttentionRepository{pool: pool}
}

// GetBySessionID retrieves the attention summary for one exam session.
func (r *AttentionRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.AttentionSessionRecord, error) {
	a := &model.AttentionSessionRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, student_id, started_at, ended_at, focus_ms, distraction_ms,
		        attention_score, gaze_stability, overall_score, focus_percentage, pattern, compared_to_average
		 FROM attention_sessions WHERE session_id = $1`, sessionID,
	).Scan(&a.ID, &a.SessionID, &a.StudentID, &a.StartedAt, &a.EndedAt, &a.FocusMs, &a.DistractionMs,
		&a.AttentionScore, &a.GazeStability, &a.OverallScore, &a.FocusPercentage, &a.Pattern, &a.ComparedToAverage)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListEvents retrieves a session's distraction events in chronological order.
func (r *AttentionRepository) ListEvents(ctx context.Context, sessionID uuid.UUID) ([]model.DistractionEventRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, student_id, started_at, duration_ms, type, severity
		 FROM distraction_events WHERE session_id = $1
		 ORDER BY started_at ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.DistractionEventRecord
	for rows.Next() {
		var e model.DistractionEventRecord
		if err := rows.Scan(&e.ID, &e.SessionID, &e.StudentID, &e.StartedAt, &e.DurationMs, &e.Type, &e.Severity); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AverageOverallScore returns the mean overall attention score across all
// students, used as the cohort baseline on the analytics endpoint.
func (r *AttentionRepository) AverageOverallScore(ctx context.Context) (float64, error) {
	var avg *float64
	if err := r.pool.QueryRow(ctx,
		`SELECT AVG(overall_score) FROM attention_sessions`,
	).Scan(&avg); err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
