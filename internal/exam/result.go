package exam

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/focusloop/focusloop-backend/internal/attention"
)

// SubjectStats is the per-subject slice of an exam result.
type SubjectStats struct {
	Correct         int           `json:"correct"`
	Total           int           `json:"total"`
	AvgTimePerQuest time.Duration `json:"avg_time_per_question_ms"`
}

// TimeManagement summarizes how the allowed time was spent.
type TimeManagement struct {
	TotalTimeUsed   time.Duration            `json:"total_time_used_ms"`
	TimeEfficiency  float64                  `json:"time_efficiency"`
	FastestQuestion time.Duration            `json:"fastest_question_ms"`
	SlowestQuestion time.Duration            `json:"slowest_question_ms"`
	PerSubjectTime  map[string]time.Duration `json:"per_subject_time_ms"`
}

// Result is the immutable outcome of a finished exam session. Built exactly
// once; the attention field always carries a usable analysis (a neutral
// default when the session ran untracked).
type Result struct {
	SessionID        uuid.UUID               `json:"session_id"`
	ExamID           uuid.UUID               `json:"exam_id"`
	UserID           string                  `json:"user_id"`
	AcademicScore    int                     `json:"academic_score"`
	CorrectCount     int                     `json:"correct_count"`
	AnsweredCount    int                     `json:"answered_count"`
	TotalQuestions   int                     `json:"total_questions"`
	Subjects         map[string]SubjectStats `json:"subjects"`
	TimeManagement   TimeManagement          `json:"time_management"`
	Attention        attention.Analysis      `json:"attention"`
	AttentionTracked bool                    `json:"attention_tracked"`

	// AttentionSession is the raw tracked session backing the analysis.
	// Persistence-only; nil when the session ran untracked.
	AttentionSession *attention.Session `json:"-"`
	Feedback         string                  `json:"feedback"`
	Suggestions      []string                `json:"suggestions"`
	FinishedAt       time.Time               `json:"finished_at"`
}

// ResultInput carries everything BuildResult needs. Answers is read only;
// the builder never touches a session before it is FINISHED.
type ResultInput struct {
	SessionID    uuid.UUID
	ExamID       uuid.UUID
	UserID       string
	Questions    []Question
	Answers      map[uuid.UUID]*Answer
	CorrectCount int
	TimeAllowed  time.Duration
	TimeUsed     time.Duration
	Attention    *attention.Session
	FinishedAt   time.Time
}

// BuildResult computes the final result from a finished session's raw data.
// Pure function of its input.
func BuildResult(in ResultInput) *Result {
	total := len(in.Questions)

	r := &Result{
		SessionID:      in.SessionID,
		ExamID:         in.ExamID,
		UserID:         in.UserID,
		CorrectCount:   in.CorrectCount,
		AnsweredCount:  len(in.Answers),
		TotalQuestions: total,
		Subjects:       make(map[string]SubjectStats),
		FinishedAt:     in.FinishedAt,
	}

	if total > 0 {
		r.AcademicScore = int(math.Round(float64(in.CorrectCount) / float64(total) * 100))
	}

	r.buildSubjectBreakdown(in)
	r.buildTimeManagement(in)
	r.buildAttention(in)
	r.buildFeedback(in)

	return r
}

func (r *Result) buildSubjectBreakdown(in ResultInput) {
	type acc struct {
		correct, total, answered int
		spent                    time.Duration
	}
	bySubject := make(map[string]*acc)

	for i := range in.Questions {
		q := &in.Questions[i]
		a, ok := bySubject[q.Subject]
		if !ok {
			a = &acc{}
			bySubject[q.Subject] = a
		}
		a.total++

		if ans, answered := in.Answers[q.ID]; answered {
			a.answered++
			a.spent += ans.TimeSpent
			if ans.IsCorrect != nil && *ans.IsCorrect {
				a.correct++
			}
		}
	}

	for subject, a := range bySubject {
		stats := SubjectStats{Correct: a.correct, Total: a.total}
		if a.answered > 0 {
			stats.AvgTimePerQuest = a.spent / time.Duration(a.answered)
		}
		r.Subjects[subject] = stats
	}
}

func (r *Result) buildTimeManagement(in ResultInput) {
	tm := TimeManagement{
		TotalTimeUsed:  in.TimeUsed,
		PerSubjectTime: make(map[string]time.Duration),
	}

	if in.TimeUsed > 0 {
		tm.TimeEfficiency = math.Min(100, float64(in.TimeAllowed)/float64(in.TimeUsed)*100)
	} else {
		tm.TimeEfficiency = 100
	}

	first := true
	for i := range in.Questions {
		q := &in.Questions[i]
		ans, ok := in.Answers[q.ID]
		if !ok {
			continue
		}
		tm.PerSubjectTime[q.Subject] += ans.TimeSpent
		if first || ans.TimeSpent < tm.FastestQuestion {
			tm.FastestQuestion = ans.TimeSpent
		}
		if first || ans.TimeSpent > tm.SlowestQuestion {
			tm.SlowestQuestion = ans.TimeSpent
		}
		first = false
	}

	r.TimeManagement = tm
}

func (r *Result) buildAttention(in ResultInput) {
	if in.Attention == nil {
		r.Attention = attention.NeutralAnalysis()
		return
	}

	analysis, err := attention.Analyze(in.Attention)
	if err != nil {
		// Tracking data that cannot be analyzed degrades to the same
		// neutral default as no tracking at all.
		r.Attention = attention.NeutralAnalysis()
		return
	}
	r.Attention = analysis
	r.AttentionTracked = true
	r.AttentionSession = in.Attention
}

// buildFeedback composes the textual summary and the ranked next-step list
// from the already-computed numbers. No collaborator calls.
func (r *Result) buildFeedback(in ResultInput) {
	var weak, strong []string
	for subject, stats := range r.Subjects {
		if stats.Total == 0 {
			continue
		}
		ratio := float64(stats.Correct) / float64(stats.Total)
		switch {
		case ratio >= 0.8:
			strong = append(strong, subject)
		case ratio < 0.5:
			weak = append(weak, subject)
		}
	}
	sort.Strings(weak)
	sort.Strings(strong)

	var b strings.Builder
	fmt.Fprintf(&b, "You answered %d of %d questions correctly (%d%%).", r.CorrectCount, r.TotalQuestions, r.AcademicScore)
	if len(strong) > 0 {
		fmt.Fprintf(&b, " Strong subjects: %s.", strings.Join(strong, ", "))
	}
	if len(weak) > 0 {
		fmt.Fprintf(&b, " Needs work: %s.", strings.Join(weak, ", "))
	}
	r.Feedback = b.String()

	suggestions := []string{}
	for _, subject := range weak {
		suggestions = append(suggestions, fmt.Sprintf("Review the fundamentals of %s before your next session.", subject))
	}
	if in.TimeUsed*10 >= in.TimeAllowed*9 {
		suggestions = append(suggestions, "You used nearly all of the allowed time; practice pacing with shorter timed drills.")
	}
	suggestions = append(suggestions, r.Attention.Recommendations...)
	r.Suggestions = suggestions
}
