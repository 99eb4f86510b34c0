package model

import (
	"time"

	"github.com/google/uuid"
)

// AttentionSessionRecord is the persisted summary of one tracked session.
type AttentionSessionRecord struct {
	ID                int       `json:"id"`
	SessionID         uuid.UUID `json:"session_id"`
	StudentID         int       `json:"student_id"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
	FocusMs           int64     `json:"focus_ms"`
	DistractionMs     int64     `json:"distraction_ms"`
	AttentionScore    float64   `json:"attention_score"`
	GazeStability     float64   `json:"gaze_stability"`
	OverallScore      float64   `json:"overall_score"`
	FocusPercentage   int       `json:"focus_percentage"`
	Pattern           string    `json:"pattern"`
	ComparedToAverage string    `json:"compared_to_average"`
}

// DistractionEventRecord is one persisted distraction event.
type DistractionEventRecord struct {
	ID         int       `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	StudentID  int       `json:"student_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
}
