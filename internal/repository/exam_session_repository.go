package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/focusloop/focusloop-backend/internal/model"
)

// ExamSessionRepository handles exam session records.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// Create inserts a session record in its initial state.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSessionRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (id, exam_id, student_id, topic, difficulty, question_count, time_limit_seconds, status, generated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		s.ID, s.ExamID, s.StudentID, s.Topic, s.Difficulty, s.QuestionCount, s.TimeLimitSeconds, s.Status, s.Generated,
	).Scan(&s.CreatedAt)
}

// GetByID retrieves a session record.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSessionRecord, error) {
	s := &model.ExamSessionRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, topic, difficulty, question_count, time_limit_seconds, status, generated,
		        started_at, finished_at, academic_score, completion_percent, created_at
		 FROM exam_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Topic, &s.Difficulty, &s.QuestionCount, &s.TimeLimitSeconds,
		&s.Status, &s.Generated, &s.StartedAt, &s.FinishedAt, &s.AcademicScore, &s.CompletionPercent, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MarkStarted stamps the session's start time and status.
func (r *ExamSessionRepository) MarkStarted(ctx context.Context, id uuid.UUID, startedAt time.Time, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET status = $1, started_at = $2 WHERE id = $3`,
		status, startedAt, id,
	)
	return err
}

// UpdateStatus writes the session's lifecycle status.
func (r *ExamSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET status = $1 WHERE id = $2`,
		status, id,
	)
	return err
}

// ListByStudent retrieves a student's session history, newest first.
func (r *ExamSessionRepository) ListByStudent(ctx context.Context, studentID int, limit, offset int) ([]model.ExamSessionRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions WHERE student_id = $1`, studentID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_id, topic, difficulty, question_count, time_limit_seconds, status, generated,
		        started_at, finished_at, academic_score, completion_percent, created_at
		 FROM exam_sessions WHERE student_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		studentID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []model.ExamSessionRecord
	for rows.Next() {
		var s model.ExamSessionRecord
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Topic, &s.Difficulty, &s.QuestionCount, &s.TimeLimitSeconds,
			&s.Status, &s.Generated, &s.StartedAt, &s.FinishedAt, &s.AcademicScore, &s.CompletionPercent, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, s)
	}
	return sessions, total, rows.Err()
}
