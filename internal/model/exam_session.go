package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSessionRecord is the persisted form of an exam session. The live state
// machine is authoritative while a session runs; the record is written when
// the session finishes (or updated by the result worker).
type ExamSessionRecord struct {
	ID                uuid.UUID  `json:"id"`
	ExamID            uuid.UUID  `json:"exam_id"`
	StudentID         int        `json:"student_id"`
	Topic             string     `json:"topic"`
	Difficulty        string     `json:"difficulty"`
	QuestionCount     int        `json:"question_count"`
	TimeLimitSeconds  int        `json:"time_limit_seconds"`
	Status            string     `json:"status"`
	Generated         bool       `json:"generated"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	AcademicScore     *int       `json:"academic_score,omitempty"`
	CompletionPercent float64    `json:"completion_percent"`
	CreatedAt         time.Time  `json:"created_at"`
}

// CreateSessionRequest is the payload for creating a new exam session.
// Tracking opts the session into attention tracking; without it the client
// runs no camera and the result carries the neutral attention analysis.
type CreateSessionRequest struct {
	Topic            string `json:"topic" binding:"required,min=2,max=60"`
	Count            int    `json:"count" binding:"omitempty,min=1,max=30"`
	Difficulty       string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	TimeLimitSeconds int    `json:"time_limit_seconds" binding:"required,min=30,max=7200"`
	Tracking         bool   `json:"tracking"`
}

// ConfirmAnswerRequest is the payload for confirming an answer on the
// current question.
type ConfirmAnswerRequest struct {
	Selected string `json:"selected" binding:"required,oneof=A B C D"`
}

// SeekRequest is the payload for moving the current-question pointer.
type SeekRequest struct {
	Index int `json:"index" binding:"min=0"`
}
