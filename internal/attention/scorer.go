package attention

import (
	"errors"
	"math"
	"time"
)

// ErrSessionNotFinalized is returned when Analyze is called on a session
// that has not been closed by StopTracking.
var ErrSessionNotFinalized = errors.New("attention session not finalized")

// Pattern classifies a session's distraction shape.
type Pattern string

const (
	PatternConsistent Pattern = "consistent"
	PatternVariable   Pattern = "variable"
	PatternDeclining  Pattern = "declining"
	PatternImproving  Pattern = "improving"
)

// Cohort is the coarse comparison of a score against the platform average.
type Cohort string

const (
	CohortAbove   Cohort = "above"
	CohortAverage Cohort = "average"
	CohortBelow   Cohort = "below"
)

// Analysis is the read-only qualitative report derived from a finalized
// session. Computed on demand, never mutated.
type Analysis struct {
	OverallScore               float64       `json:"overall_score"`
	FocusPercentage            int           `json:"focus_percentage"`
	DistractionCount           int           `json:"distraction_count"`
	AverageDistractionDuration time.Duration `json:"average_distraction_duration_ms"`
	Pattern                    Pattern       `json:"attention_pattern"`
	Recommendations            []string      `json:"recommendations"`
	ComparedToAverage          Cohort        `json:"compared_to_average"`
}

// NeutralAnalysis is the fixed default substituted when an exam ran without
// tracking, so result consumers never need to null-check the attention field.
func NeutralAnalysis() Analysis {
	return Analysis{
		OverallScore:      85,
		FocusPercentage:   85,
		Pattern:           PatternConsistent,
		Recommendations:   []string{},
		ComparedToAverage: CohortAbove,
	}
}

// Analyze derives the qualitative report from a finalized session. Pure:
// the session is only read. Returns ErrSessionNotFinalized if EndTime is
// unset.
func Analyze(s *Session) (Analysis, error) {
	if s == nil || !s.Finalized() {
		return Analysis{}, ErrSessionNotFinalized
	}

	a := Analysis{
		OverallScore:     s.AttentionScore,
		DistractionCount: len(s.Events),
	}

	total := s.Duration()
	if total > 0 {
		a.FocusPercentage = int(math.Round(float64(s.TotalFocus) / float64(total) * 100))
	}

	if n := len(s.Events); n > 0 {
		var sum time.Duration
		for _, ev := range s.Events {
			sum += ev.Duration
		}
		a.AverageDistractionDuration = sum / time.Duration(n)
	}

	a.Pattern = classifyPattern(s)
	a.Recommendations = recommendations(a)

	switch {
	case a.OverallScore > 80:
		a.ComparedToAverage = CohortAbove
	case a.OverallScore < 60:
		a.ComparedToAverage = CohortBelow
	default:
		a.ComparedToAverage = CohortAverage
	}

	return a, nil
}

// classifyPattern maps event counts to a pattern, strictest threshold first
// so the >10 band always wins over the >5 band. Sessions in the middle band
// whose second half carried under half the first half's distraction time are
// classified as improving.
func classifyPattern(s *Session) Pattern {
	n := len(s.Events)
	switch {
	case n > 10:
		return PatternDeclining
	case n > 5:
		if distractionTrendImproving(s) {
			return PatternImproving
		}
		return PatternVariable
	default:
		return PatternConsistent
	}
}

// distractionTrendImproving splits the session at its midpoint and compares
// distraction time attributed to each half by event start.
func distractionTrendImproving(s *Session) bool {
	mid := s.StartTime.Add(s.Duration() / 2)

	var first, second time.Duration
	for _, ev := range s.Events {
		if ev.StartedAt.Before(mid) {
			first += ev.Duration
		} else {
			second += ev.Duration
		}
	}
	return first > 0 && second*2 < first
}

// recommendations composes the rule-based suggestion list. Rules are
// independent; zero to three entries may result.
func recommendations(a Analysis) []string {
	recs := []string{}

	if a.FocusPercentage < 70 {
		recs = append(recs,
			"Clear your study space of distractions before starting, and schedule short breaks between sessions.")
	}
	if a.DistractionCount > 8 {
		recs = append(recs,
			"Try a fixed-interval technique: 25 minutes of focused work followed by a 5 minute break.")
	}
	if a.AverageDistractionDuration > 10*time.Second {
		recs = append(recs,
			"When you notice your attention drifting, return your eyes to the screen right away instead of finishing the side activity.")
	}

	return recs
}
