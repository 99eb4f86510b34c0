package attention

import (
	"time"
)

// EventType enumerates distraction event kinds.
type EventType string

const (
	EventGazeAway EventType = "gaze_away"
)

// Severity grades a distraction event by its duration.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Score penalty per event, applied on top of the focus percentage.
var severityPenalty = map[Severity]float64{
	SeverityLow:    1,
	SeverityMedium: 3,
	SeverityHigh:   5,
}

// DistractionEvent is a contiguous face-absence span that exceeded the
// distraction threshold. Immutable once appended to a session.
type DistractionEvent struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ms"`
	Type      EventType     `json:"type"`
	Severity  Severity      `json:"severity"`
}

// Session is the attention timeline of one tracked exam sitting. While
// tracking is active it is owned and mutated exclusively by the Recorder;
// StopTracking finalizes it and hands an immutable snapshot to the caller.
type Session struct {
	SessionID        string             `json:"session_id"`
	UserID           string             `json:"user_id"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time,omitzero"`
	TotalFocus       time.Duration      `json:"total_focus_ms"`
	TotalDistraction time.Duration      `json:"total_distraction_ms"`
	Events           []DistractionEvent `json:"distraction_events"`
	AttentionScore   float64            `json:"attention_score"`
	GazeStability    float64            `json:"average_gaze_stability"`
}

// Duration returns the wall-clock length of the session. Zero until finalized.
func (s *Session) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Finalized reports whether the session has been closed by StopTracking.
func (s *Session) Finalized() bool {
	return !s.EndTime.IsZero()
}

// snapshot deep-copies the session so the recorder can clear its internal
// reference without aliasing the events slice it handed out.
func (s *Session) snapshot() *Session {
	cp := *s
	cp.Events = make([]DistractionEvent, len(s.Events))
	copy(cp.Events, s.Events)
	return &cp
}

// severityFor grades a distraction duration. Thresholds are fixed: the
// downstream cohort comparison assumes exactly these bands.
func severityFor(d time.Duration) Severity {
	switch {
	case d < 5*time.Second:
		return SeverityLow
	case d < 15*time.Second:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// computeScore derives the 0-100 attention score: the focus percentage minus
// a flat penalty per distraction event, clamped. Deliberately an additive
// model, cheap to compute and to reason about.
func computeScore(s *Session) float64 {
	total := s.Duration()
	if total <= 0 {
		return 0
	}

	score := float64(s.TotalFocus) / float64(total) * 100
	for _, ev := range s.Events {
		score -= severityPenalty[ev.Severity]
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
