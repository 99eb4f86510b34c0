package exam

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/focusloop/focusloop-backend/internal/attention"
)

func question(subject string, correct Option) Question {
	return Question{
		ID:      uuid.New(),
		Subject: subject,
		Text:    "placeholder",
		Options: map[Option]string{OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d"},
		Correct: correct,
	}
}

func answered(q Question, selected Option, spent time.Duration) *Answer {
	correct := selected == q.Correct
	return &Answer{
		QuestionID: q.ID,
		Selected:   selected,
		TimeSpent:  spent,
		Timestamp:  time.Now(),
		IsCorrect:  &correct,
	}
}

func TestBuildResultScoreRounding(t *testing.T) {
	questions := []Question{
		question("math", OptionA),
		question("math", OptionB),
		question("math", OptionC),
		question("math", OptionD),
		question("math", OptionA),
	}
	answers := map[uuid.UUID]*Answer{}
	for i, q := range questions[:4] {
		answers[q.ID] = answered(q, q.Correct, time.Duration(i+1)*time.Second)
	}

	r := BuildResult(ResultInput{
		Questions:    questions,
		Answers:      answers,
		CorrectCount: 4,
		TimeAllowed:  10 * time.Minute,
		TimeUsed:     5 * time.Minute,
		FinishedAt:   time.Now(),
	})

	if r.AcademicScore != 80 {
		t.Errorf("AcademicScore = %d, want 80", r.AcademicScore)
	}
	if r.AnsweredCount != 4 || r.TotalQuestions != 5 {
		t.Errorf("answered %d of %d, want 4 of 5", r.AnsweredCount, r.TotalQuestions)
	}
}

func TestBuildResultSubjectBreakdown(t *testing.T) {
	mathA := question("math", OptionA)
	mathB := question("math", OptionB)
	readA := question("reading", OptionA)
	readB := question("reading", OptionB)
	sci := question("science", OptionC)

	answers := map[uuid.UUID]*Answer{
		mathA.ID: answered(mathA, OptionA, 10*time.Second),
		mathB.ID: answered(mathB, OptionB, 30*time.Second),
		readA.ID: answered(readA, OptionA, 20*time.Second),
		readB.ID: answered(readB, OptionC, 40*time.Second),
	}

	r := BuildResult(ResultInput{
		Questions:    []Question{mathA, mathB, readA, readB, sci},
		Answers:      answers,
		CorrectCount: 3,
		TimeAllowed:  10 * time.Minute,
		TimeUsed:     100 * time.Second,
		FinishedAt:   time.Now(),
	})

	math := r.Subjects["math"]
	if math.Correct != 2 || math.Total != 2 {
		t.Errorf("math = %d/%d, want 2/2", math.Correct, math.Total)
	}
	if math.AvgTimePerQuest != 20*time.Second {
		t.Errorf("math avg time = %v, want 20s", math.AvgTimePerQuest)
	}

	reading := r.Subjects["reading"]
	if reading.Correct != 1 || reading.Total != 2 {
		t.Errorf("reading = %d/%d, want 1/2", reading.Correct, reading.Total)
	}

	science := r.Subjects["science"]
	if science.Correct != 0 || science.Total != 1 {
		t.Errorf("science = %d/%d, want 0/1", science.Correct, science.Total)
	}
	if science.AvgTimePerQuest != 0 {
		t.Errorf("science avg time = %v, want 0 for unanswered", science.AvgTimePerQuest)
	}

	tm := r.TimeManagement
	if tm.FastestQuestion != 10*time.Second || tm.SlowestQuestion != 40*time.Second {
		t.Errorf("fastest/slowest = %v/%v, want 10s/40s", tm.FastestQuestion, tm.SlowestQuestion)
	}
	if tm.PerSubjectTime["math"] != 40*time.Second {
		t.Errorf("math time = %v, want 40s", tm.PerSubjectTime["math"])
	}
	if tm.TimeEfficiency != 100 {
		t.Errorf("TimeEfficiency = %v, want capped at 100", tm.TimeEfficiency)
	}

	// math is strong (100%), science is weak (0%); reading at 50% is neither.
	if !strings.Contains(r.Feedback, "Strong subjects: math") {
		t.Errorf("feedback missing strong subjects: %q", r.Feedback)
	}
	if !strings.Contains(r.Feedback, "Needs work: science") {
		t.Errorf("feedback missing weak subjects: %q", r.Feedback)
	}
	if len(r.Suggestions) == 0 || !strings.Contains(r.Suggestions[0], "science") {
		t.Errorf("suggestions = %v, want science review first", r.Suggestions)
	}
}

func TestBuildResultTimeEfficiency(t *testing.T) {
	q := question("math", OptionA)
	answers := map[uuid.UUID]*Answer{q.ID: answered(q, OptionA, time.Minute)}

	r := BuildResult(ResultInput{
		Questions:    []Question{q},
		Answers:      answers,
		CorrectCount: 1,
		TimeAllowed:  10 * time.Minute,
		TimeUsed:     20 * time.Minute,
		FinishedAt:   time.Now(),
	})
	if r.TimeManagement.TimeEfficiency != 50 {
		t.Errorf("TimeEfficiency = %v, want 50", r.TimeManagement.TimeEfficiency)
	}

	// Zero time used degenerates to full efficiency, not a division by zero.
	r = BuildResult(ResultInput{
		Questions:  []Question{q},
		Answers:    map[uuid.UUID]*Answer{},
		FinishedAt: time.Now(),
	})
	if r.TimeManagement.TimeEfficiency != 100 {
		t.Errorf("TimeEfficiency with zero use = %v, want 100", r.TimeManagement.TimeEfficiency)
	}
}

func TestBuildResultPacingSuggestion(t *testing.T) {
	q := question("math", OptionA)
	answers := map[uuid.UUID]*Answer{q.ID: answered(q, OptionA, time.Minute)}

	r := BuildResult(ResultInput{
		Questions:    []Question{q},
		Answers:      answers,
		CorrectCount: 1,
		TimeAllowed:  10 * time.Minute,
		TimeUsed:     (9*time.Minute + 30*time.Second),
		FinishedAt:   time.Now(),
	})

	found := false
	for _, s := range r.Suggestions {
		if strings.Contains(s, "pacing") {
			found = true
		}
	}
	if !found {
		t.Errorf("no pacing suggestion in %v", r.Suggestions)
	}
}

func TestBuildResultAttentionDefaults(t *testing.T) {
	q := question("math", OptionA)
	in := ResultInput{
		Questions:  []Question{q},
		Answers:    map[uuid.UUID]*Answer{},
		FinishedAt: time.Now(),
	}

	r := BuildResult(in)
	if r.AttentionTracked {
		t.Error("untracked session must not report AttentionTracked")
	}
	neutral := attention.NeutralAnalysis()
	if r.Attention.OverallScore != neutral.OverallScore || r.Attention.Pattern != neutral.Pattern {
		t.Errorf("attention = %+v, want the neutral default", r.Attention)
	}
	if r.AttentionSession != nil {
		t.Error("AttentionSession must be nil when untracked")
	}

	// A session that was never finalized degrades to the same default.
	in.Attention = &attention.Session{StartTime: time.Now()}
	r = BuildResult(in)
	if r.AttentionTracked {
		t.Error("unfinalized session must not report AttentionTracked")
	}

	// A finalized session carries its real analysis.
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	in.Attention = &attention.Session{
		SessionID:      "session-1",
		StartTime:      start,
		EndTime:        start.Add(10 * time.Minute),
		TotalFocus:     6 * time.Minute,
		AttentionScore: 60,
	}
	r = BuildResult(in)
	if !r.AttentionTracked {
		t.Error("finalized session must report AttentionTracked")
	}
	if r.Attention.FocusPercentage != 60 {
		t.Errorf("FocusPercentage = %d, want 60", r.Attention.FocusPercentage)
	}
	if r.AttentionSession == nil {
		t.Error("AttentionSession must back a tracked analysis")
	}
}
