package exam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/attention"
)

// testClock is a manually advanced clock for deterministic timelines.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestMachine(t *testing.T, cfg MachineConfig) *Machine {
	t.Helper()
	if cfg.SessionID == uuid.Nil {
		cfg.SessionID = uuid.New()
	}
	if cfg.ExamID == uuid.Nil {
		cfg.ExamID = uuid.New()
	}
	if cfg.UserID == "" {
		cfg.UserID = "student-1"
	}
	if cfg.Questions == nil {
		cfg.Questions = FallbackQuestions("math", 4)
	}
	if cfg.TimeLimit == 0 {
		cfg.TimeLimit = 10 * time.Minute
	}
	cfg.Log = zerolog.Nop()

	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func TestNewMachineValidation(t *testing.T) {
	_, err := NewMachine(MachineConfig{TimeLimit: time.Minute})
	if !errors.Is(err, ErrNoQuestions) {
		t.Errorf("empty questions: err = %v, want ErrNoQuestions", err)
	}

	_, err = NewMachine(MachineConfig{Questions: FallbackQuestions("math", 2)})
	if err == nil {
		t.Error("zero time limit must be rejected")
	}
}

func TestMachineLifecycle(t *testing.T) {
	m := newTestMachine(t, MachineConfig{})

	if m.State() != StateAwaitingStart {
		t.Fatalf("initial state = %q", m.State())
	}
	if err := m.ConfirmAnswer(OptionA); !errors.Is(err, ErrInvalidState) {
		t.Errorf("answer before start: err = %v, want ErrInvalidState", err)
	}
	if err := m.Seek(1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("seek before start: err = %v, want ErrInvalidState", err)
	}
	if _, err := m.Finish(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("finish before start: err = %v, want ErrInvalidState", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.State() != StateInProgress {
		t.Fatalf("state after start = %q", m.State())
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double start: err = %v, want ErrInvalidState", err)
	}

	result, err := m.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if m.State() != StateFinished {
		t.Fatalf("state after finish = %q", m.State())
	}

	// FINISHED is terminal and Finish is idempotent.
	again, err := m.Finish()
	if err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	if again != result {
		t.Error("second Finish must return the existing result without re-scoring")
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("start after finish: err = %v, want ErrInvalidState", err)
	}
	if err := m.ConfirmAnswer(OptionA); !errors.Is(err, ErrInvalidState) {
		t.Errorf("answer after finish: err = %v, want ErrInvalidState", err)
	}
}

func TestMachineConfirmAnswer(t *testing.T) {
	var saved []Answer
	m := newTestMachine(t, MachineConfig{
		OnAnswerSaved: func(a Answer) { saved = append(saved, a) },
	})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.ConfirmAnswer(Option("E")); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("invalid option: err = %v, want ErrInvalidOption", err)
	}

	if err := m.ConfirmAnswer(OptionA); err != nil {
		t.Fatalf("ConfirmAnswer: %v", err)
	}
	v := m.View()
	if v.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %d, want 1 after confirming", v.CurrentQuestion)
	}
	if v.AnsweredCount != 1 {
		t.Errorf("AnsweredCount = %d, want 1", v.AnsweredCount)
	}
	if v.CompletionPercentage != 25 {
		t.Errorf("CompletionPercentage = %v, want 25", v.CompletionPercentage)
	}

	// Revisiting and re-answering replaces the saved answer, not adds one.
	if err := m.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := m.ConfirmAnswer(OptionB); err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	v = m.View()
	if v.AnsweredCount != 1 {
		t.Errorf("AnsweredCount after re-answer = %d, want 1", v.AnsweredCount)
	}
	if v.CompletionPercentage != 25 {
		t.Errorf("CompletionPercentage after re-answer = %v, want 25", v.CompletionPercentage)
	}

	if len(saved) != 2 {
		t.Fatalf("OnAnswerSaved fired %d times, want 2", len(saved))
	}
	if saved[0].Selected != OptionA || saved[1].Selected != OptionB {
		t.Errorf("saved answers = %q, %q", saved[0].Selected, saved[1].Selected)
	}
	if saved[0].QuestionID != saved[1].QuestionID {
		t.Error("both saves must target the same question")
	}

	result, err := m.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Last write wins: question one's correct answer is B.
	if result.CorrectCount != 1 {
		t.Errorf("CorrectCount = %d, want 1", result.CorrectCount)
	}
	if result.AcademicScore != 25 {
		t.Errorf("AcademicScore = %d, want 25", result.AcademicScore)
	}
	if result.AnsweredCount != 1 {
		t.Errorf("AnsweredCount = %d, want 1", result.AnsweredCount)
	}
}

func TestMachineAdvanceStopsAtLastQuestion(t *testing.T) {
	m := newTestMachine(t, MachineConfig{Questions: FallbackQuestions("math", 2)})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.ConfirmAnswer(OptionA); err != nil {
		t.Fatalf("ConfirmAnswer: %v", err)
	}
	if err := m.ConfirmAnswer(OptionA); err != nil {
		t.Fatalf("ConfirmAnswer: %v", err)
	}

	v := m.View()
	if v.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %d, want to stay on the last question", v.CurrentQuestion)
	}
	if v.CompletionPercentage != 100 {
		t.Errorf("CompletionPercentage = %v, want 100", v.CompletionPercentage)
	}
}

func TestMachineSeekBounds(t *testing.T) {
	m := newTestMachine(t, MachineConfig{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.Seek(-1); !errors.Is(err, ErrQuestionIndex) {
		t.Errorf("Seek(-1): err = %v, want ErrQuestionIndex", err)
	}
	if err := m.Seek(4); !errors.Is(err, ErrQuestionIndex) {
		t.Errorf("Seek(4): err = %v, want ErrQuestionIndex", err)
	}
	if err := m.Seek(3); err != nil {
		t.Errorf("Seek(3): %v", err)
	}
	if v := m.View(); v.CurrentQuestion != 3 {
		t.Errorf("CurrentQuestion = %d, want 3", v.CurrentQuestion)
	}
}

func TestMachinePauseFreezesCountdownAndNavigation(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	m := newTestMachine(t, MachineConfig{
		TimeLimit: 10 * time.Minute,
		Clock:     clock.Now,
	})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume while running: err = %v, want ErrNotPaused", err)
	}

	clock.Advance(2 * time.Minute)
	m.pause("face not detected for 3.0s")

	v := m.View()
	if v.State != StatePaused {
		t.Fatalf("state = %q, want PAUSED", v.State)
	}
	if v.PauseReason != "face not detected for 3.0s" {
		t.Errorf("PauseReason = %q", v.PauseReason)
	}
	if v.RemainingTime != 8*time.Minute {
		t.Errorf("RemainingTime = %v, want 8m", v.RemainingTime)
	}

	// Wall-clock time passing while paused must not consume exam time.
	clock.Advance(5 * time.Minute)
	if v := m.View(); v.RemainingTime != 8*time.Minute {
		t.Errorf("RemainingTime while paused = %v, want 8m", v.RemainingTime)
	}

	if err := m.Seek(1); !errors.Is(err, ErrPausedNavigate) {
		t.Errorf("Seek while paused: err = %v, want ErrPausedNavigate", err)
	}
	if err := m.ConfirmAnswer(OptionA); !errors.Is(err, ErrInvalidState) {
		t.Errorf("answer while paused: err = %v, want ErrInvalidState", err)
	}

	// A second pause while already paused is ignored.
	m.pause("again")
	if v := m.View(); v.PauseReason != "face not detected for 3.0s" {
		t.Errorf("pause reason overwritten: %q", v.PauseReason)
	}

	if err := m.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	v = m.View()
	if v.State != StateInProgress {
		t.Fatalf("state after resume = %q", v.State)
	}
	if v.PauseReason != "" {
		t.Errorf("PauseReason after resume = %q, want empty", v.PauseReason)
	}

	clock.Advance(3 * time.Minute)
	if v := m.View(); v.RemainingTime != 5*time.Minute {
		t.Errorf("RemainingTime after resume = %v, want 5m", v.RemainingTime)
	}
}

func TestMachineTimeoutForceFinishes(t *testing.T) {
	finished := make(chan *Result, 1)
	m := newTestMachine(t, MachineConfig{
		TimeLimit:  30 * time.Millisecond,
		OnFinished: func(r *Result) { finished <- r },
	})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.ConfirmAnswer(OptionB); err != nil {
		t.Fatalf("ConfirmAnswer: %v", err)
	}

	var result *Result
	select {
	case result = <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown expiry did not finish the session")
	}

	if m.State() != StateFinished {
		t.Fatalf("state after timeout = %q", m.State())
	}
	// Unanswered questions score as incorrect.
	if result.AnsweredCount != 1 || result.TotalQuestions != 4 {
		t.Errorf("answered %d of %d", result.AnsweredCount, result.TotalQuestions)
	}
	if result.CorrectCount != 1 {
		t.Errorf("CorrectCount = %d, want 1", result.CorrectCount)
	}
	if got := m.Result(); got != result {
		t.Error("Result() must return the timeout-built result")
	}
}

func TestMachineUntrackedWithoutSamples(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	rec := attention.NewRecorder(attention.RecorderConfig{Log: zerolog.Nop(), Clock: clock.Now})
	m := newTestMachine(t, MachineConfig{Recorder: rec, Clock: clock.Now})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !m.Tracking() {
		t.Fatal("push-mode tracking must be active after start")
	}

	// The client opted in but never streamed a detection sample. The result
	// must fall back to the neutral analysis, not score the empty timeline.
	clock.Advance(time.Minute)
	result, err := m.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if result.AttentionTracked {
		t.Error("AttentionTracked = true with no samples streamed")
	}
	if result.AttentionSession != nil {
		t.Errorf("AttentionSession = %+v, want nil", result.AttentionSession)
	}
	neutral := attention.NeutralAnalysis()
	if result.Attention.OverallScore != neutral.OverallScore {
		t.Errorf("OverallScore = %v, want the neutral %v", result.Attention.OverallScore, neutral.OverallScore)
	}
	if result.Attention.Pattern != neutral.Pattern {
		t.Errorf("Pattern = %q, want %q", result.Attention.Pattern, neutral.Pattern)
	}
	if result.Attention.ComparedToAverage != neutral.ComparedToAverage {
		t.Errorf("ComparedToAverage = %q, want %q", result.Attention.ComparedToAverage, neutral.ComparedToAverage)
	}
}

func TestMachineTrackedWithSamples(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	rec := attention.NewRecorder(attention.RecorderConfig{Log: zerolog.Nop(), Clock: clock.Now})
	m := newTestMachine(t, MachineConfig{Recorder: rec, Clock: clock.Now})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(time.Second)
	m.IngestSample(attention.Sample{Timestamp: clock.Now(), FaceDetected: true, EyesDetected: 2})

	result, err := m.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !result.AttentionTracked {
		t.Error("AttentionTracked = false for a sampled session")
	}
	if result.AttentionSession == nil {
		t.Fatal("AttentionSession must carry the tracked timeline")
	}
	if result.AttentionSession.TotalFocus != time.Second {
		t.Errorf("TotalFocus = %v, want 1s", result.AttentionSession.TotalFocus)
	}
}

func TestMachineViewRemainingTimeBeforeStart(t *testing.T) {
	m := newTestMachine(t, MachineConfig{TimeLimit: 10 * time.Minute})
	v := m.View()
	if v.State != StateAwaitingStart {
		t.Fatalf("state = %q", v.State)
	}
	if v.RemainingTime != 10*time.Minute {
		t.Errorf("RemainingTime = %v, want the full limit", v.RemainingTime)
	}
	if m.Result() != nil {
		t.Error("Result() must be nil while the session is live")
	}
}
