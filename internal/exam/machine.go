package exam

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/attention"
)

// State enumerates the exam session lifecycle. FINISHED is terminal.
type State string

const (
	StateAwaitingStart State = "AWAITING_START"
	StateInProgress    State = "IN_PROGRESS"
	StatePaused        State = "PAUSED"
	StateFinished      State = "FINISHED"
)

// Machine errors.
var (
	// ErrInvalidState marks an operation attempted in the wrong lifecycle
	// state. Programmer error; fatal to the call only.
	ErrInvalidState = errors.New("invalid session state for this operation")

	ErrNoQuestions    = errors.New("session has no questions")
	ErrInvalidOption  = errors.New("selected answer must be A, B, C or D")
	ErrQuestionIndex  = errors.New("question index out of range")
	ErrNotPaused      = errors.New("session is not paused")
	ErrPausedNavigate = errors.New("navigation is frozen while paused")
)

// MachineConfig configures a session Machine.
type MachineConfig struct {
	SessionID uuid.UUID
	ExamID    uuid.UUID
	UserID    string
	Questions []Question
	TimeLimit time.Duration

	// Recorder enables attention tracking when non-nil. The machine owns
	// acquiring and releasing it for this session's lifetime; if tracking
	// turns out to be unavailable the exam proceeds without it.
	Recorder *attention.Recorder

	Log zerolog.Logger

	// OnAnswerSaved is an optional fire-and-forget hook invoked after every
	// answer write (the autosave path). Must not block.
	OnAnswerSaved func(Answer)

	// OnFinished is an optional fire-and-forget hook invoked once, when the
	// session reaches FINISHED.
	OnFinished func(*Result)

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Machine is the exam session state machine. It exclusively owns its session
// data for the session's lifetime; every public method serializes on the
// internal mutex because the countdown timer and the recorder's pause signal
// arrive on other goroutines.
type Machine struct {
	mu sync.Mutex

	sessionID uuid.UUID
	examID    uuid.UUID
	userID    string
	questions []Question
	timeLimit time.Duration
	recorder  *attention.Recorder
	tracking  bool
	log       zerolog.Logger
	now       func() time.Time

	onAnswerSaved func(Answer)
	onFinished    func(*Result)

	state      State
	answers    map[uuid.UUID]*Answer
	completion float64
	current    int

	createdAt       time.Time
	startedAt       time.Time
	deadline        time.Time
	countdown       *time.Timer
	pauseReason     string
	remainingPaused time.Duration

	questionStartedAt time.Time
	questionElapsed   time.Duration

	attention *attention.Session
	result    *Result
}

// NewMachine builds a session in AWAITING_START. The question set must be
// non-empty; callers mask generation failures with the fallback bank before
// getting here.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	if len(cfg.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if cfg.TimeLimit <= 0 {
		return nil, errors.New("time limit must be positive")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Machine{
		sessionID:     cfg.SessionID,
		examID:        cfg.ExamID,
		userID:        cfg.UserID,
		questions:     cfg.Questions,
		timeLimit:     cfg.TimeLimit,
		recorder:      cfg.Recorder,
		log:           cfg.Log.With().Str("component", "exam_machine").Str("session_id", cfg.SessionID.String()).Logger(),
		now:           cfg.Clock,
		onAnswerSaved: cfg.OnAnswerSaved,
		onFinished:    cfg.OnFinished,
		state:         StateAwaitingStart,
		answers:       make(map[uuid.UUID]*Answer, len(cfg.Questions)),
		createdAt:     cfg.Clock(),
	}, nil
}

// Start moves AWAITING_START → IN_PROGRESS, opens the countdown, and — when a
// recorder was injected — starts attention tracking. Tracking failure never
// blocks the exam: the session simply runs untracked.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAwaitingStart {
		m.mu.Unlock()
		return ErrInvalidState
	}

	now := m.now()
	m.state = StateInProgress
	m.startedAt = now
	m.deadline = now.Add(m.timeLimit)
	m.questionStartedAt = now
	m.countdown = time.AfterFunc(m.timeLimit, m.timeout)
	m.mu.Unlock()

	if m.recorder != nil {
		err := m.recorder.StartTracking(ctx, m.userID, m.sessionID.String())
		switch {
		case err == nil:
			m.mu.Lock()
			m.tracking = true
			m.mu.Unlock()
			go m.watchSignals(m.recorder.Signals())
		case errors.Is(err, attention.ErrTrackingUnavailable):
			m.log.Warn().Err(err).Msg("Tracking unavailable, exam proceeds without it")
			m.mu.Lock()
			m.recorder = nil
			m.mu.Unlock()
		default:
			m.log.Warn().Err(err).Msg("Tracking not started")
			m.mu.Lock()
			m.recorder = nil
			m.mu.Unlock()
		}
	}

	m.log.Info().Bool("tracking", m.Tracking()).Msg("Exam started")
	return nil
}

// watchSignals reacts to the recorder's pause signals. Terminates when the
// recorder closes the channel at StopTracking.
func (m *Machine) watchSignals(signals <-chan attention.PauseSignal) {
	for sig := range signals {
		m.pause(sig.Reason)
	}
}

// pause freezes the countdown and navigation. Triggered only by the
// recorder, never by user action; tracking continues through the pause so
// the timeline stays truthful.
func (m *Machine) pause(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateInProgress {
		return
	}

	now := m.now()
	m.state = StatePaused
	m.pauseReason = reason
	m.remainingPaused = m.deadline.Sub(now)
	if m.remainingPaused < 0 {
		m.remainingPaused = 0
	}
	m.questionElapsed += now.Sub(m.questionStartedAt)
	if m.countdown != nil {
		m.countdown.Stop()
	}

	m.log.Info().Str("reason", reason).Msg("Exam paused")
}

// Resume clears the pause and unfreezes the countdown and navigation. The
// only action available while paused.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePaused {
		return ErrNotPaused
	}

	now := m.now()
	m.state = StateInProgress
	m.pauseReason = ""
	m.deadline = now.Add(m.remainingPaused)
	m.questionStartedAt = now
	m.countdown = time.AfterFunc(m.remainingPaused, m.timeout)

	m.log.Info().Msg("Exam resumed")
	return nil
}

// Seek moves the current-question pointer. Revisiting a question does not
// alter its saved answer; the per-question timer restarts.
func (m *Machine) Seek(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateInProgress:
	case StatePaused:
		return ErrPausedNavigate
	default:
		return ErrInvalidState
	}

	if index < 0 || index >= len(m.questions) {
		return ErrQuestionIndex
	}

	m.current = index
	m.questionStartedAt = m.now()
	m.questionElapsed = 0
	return nil
}

// ConfirmAnswer persists the answer for the current question (last write
// wins per question id), advances the pointer, and resets the per-question
// timer. Selection is purely client-side until this call.
func (m *Machine) ConfirmAnswer(selected Option) error {
	m.mu.Lock()

	if m.state != StateInProgress {
		m.mu.Unlock()
		return ErrInvalidState
	}
	if !ValidOption(selected) {
		m.mu.Unlock()
		return ErrInvalidOption
	}

	now := m.now()
	q := m.questions[m.current]

	ans := &Answer{
		QuestionID: q.ID,
		Selected:   selected,
		TimeSpent:  m.questionElapsed + now.Sub(m.questionStartedAt),
		Timestamp:  now,
	}
	m.answers[q.ID] = ans
	m.completion = float64(len(m.answers)) / float64(len(m.questions)) * 100

	if m.current < len(m.questions)-1 {
		m.current++
	}
	m.questionStartedAt = now
	m.questionElapsed = 0

	hook := m.onAnswerSaved
	saved := *ans
	m.mu.Unlock()

	if hook != nil {
		hook(saved)
	}
	return nil
}

// timeout force-finishes the session when the countdown reaches zero, exactly
// as if the final question had been confirmed. Unanswered questions stay
// unanswered and score as incorrect.
func (m *Machine) timeout() {
	m.mu.Lock()
	if m.state != StateInProgress {
		m.mu.Unlock()
		return
	}
	m.log.Info().Msg("Countdown expired, force-finishing")
	result, hook := m.finishLocked()
	m.mu.Unlock()

	if hook != nil {
		hook(result)
	}
}

// Finish completes the session from IN_PROGRESS. Idempotent: a FINISHED
// session returns its existing result without re-scoring.
func (m *Machine) Finish() (*Result, error) {
	m.mu.Lock()

	switch m.state {
	case StateFinished:
		result := m.result
		m.mu.Unlock()
		return result, nil
	case StateInProgress:
	default:
		m.mu.Unlock()
		return nil, ErrInvalidState
	}

	result, hook := m.finishLocked()
	m.mu.Unlock()

	if hook != nil {
		hook(result)
	}
	return result, nil
}

// finishLocked performs the one-time FINISHED transition: cancel the
// countdown, stop tracking (the detection loop must never outlive the exam),
// score the answer set, and build the result. Caller holds the mutex.
func (m *Machine) finishLocked() (*Result, func(*Result)) {
	now := m.now()

	if m.countdown != nil {
		m.countdown.Stop()
		m.countdown = nil
	}

	if m.recorder != nil && m.tracking {
		m.attention = m.recorder.StopTracking()
		m.tracking = false
	}

	// Score answers against the question set. IsCorrect is set exactly once.
	correct := 0
	for i := range m.questions {
		q := &m.questions[i]
		if ans, ok := m.answers[q.ID]; ok && ans.IsCorrect == nil {
			ok := ans.Selected == q.Correct
			ans.IsCorrect = &ok
			if ok {
				correct++
			}
		}
	}

	used := now.Sub(m.startedAt)
	m.result = BuildResult(ResultInput{
		SessionID:    m.sessionID,
		ExamID:       m.examID,
		UserID:       m.userID,
		Questions:    m.questions,
		Answers:      m.answers,
		CorrectCount: correct,
		TimeAllowed:  m.timeLimit,
		TimeUsed:     used,
		Attention:    m.attention,
		FinishedAt:   now,
	})

	m.state = StateFinished
	m.completion = float64(len(m.answers)) / float64(len(m.questions)) * 100

	m.log.Info().
		Int("correct", correct).
		Int("total", len(m.questions)).
		Float64("score", float64(m.result.AcademicScore)).
		Msg("Exam finished")

	return m.result, m.onFinished
}

// ─── Read-side accessors ────────────────────────────────────────────

// SessionView is a read-only snapshot of the machine for API consumers.
type SessionView struct {
	SessionID            uuid.UUID     `json:"session_id"`
	ExamID               uuid.UUID     `json:"exam_id"`
	UserID               string        `json:"user_id"`
	State                State         `json:"state"`
	CurrentQuestion      int           `json:"current_question"`
	TotalQuestions       int           `json:"total_questions"`
	AnsweredCount        int           `json:"answered_count"`
	CompletionPercentage float64       `json:"completion_percentage"`
	PauseReason          string        `json:"pause_reason,omitempty"`
	RemainingTime        time.Duration `json:"remaining_time_ms"`
	TrackingActive       bool          `json:"tracking_active"`
}

// View returns the current session snapshot.
func (m *Machine) View() SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := SessionView{
		SessionID:            m.sessionID,
		ExamID:               m.examID,
		UserID:               m.userID,
		State:                m.state,
		CurrentQuestion:      m.current,
		TotalQuestions:       len(m.questions),
		AnsweredCount:        len(m.answers),
		CompletionPercentage: m.completion,
		PauseReason:          m.pauseReason,
		TrackingActive:       m.tracking,
	}

	switch m.state {
	case StateAwaitingStart:
		v.RemainingTime = m.timeLimit
	case StateInProgress:
		if rem := m.deadline.Sub(m.now()); rem > 0 {
			v.RemainingTime = rem
		}
	case StatePaused:
		v.RemainingTime = m.remainingPaused
	}

	return v
}

// Tracking reports whether attention tracking is active for this session.
func (m *Machine) Tracking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracking
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// UserID returns the owning student.
func (m *Machine) UserID() string {
	return m.userID
}

// CreatedAt returns when the machine was built (AWAITING_START entry).
func (m *Machine) CreatedAt() time.Time {
	return m.createdAt
}

// TimeLimit returns the configured exam duration.
func (m *Machine) TimeLimit() time.Duration {
	return m.timeLimit
}

// Questions returns the session's question set (shared slice; callers must
// not mutate).
func (m *Machine) Questions() []Question {
	return m.questions
}

// IngestSample forwards a client-side detection sample to the recorder.
// No-op when tracking is off.
func (m *Machine) IngestSample(sample attention.Sample) {
	m.mu.Lock()
	rec, active := m.recorder, m.tracking
	m.mu.Unlock()

	if rec != nil && active {
		rec.Ingest(sample)
	}
}

// Result returns the finished result, or nil while the session is live.
func (m *Machine) Result() *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}
