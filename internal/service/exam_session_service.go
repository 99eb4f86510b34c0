package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/attention"
	"github.com/focusloop/focusloop-backend/internal/config"
	"github.com/focusloop/focusloop-backend/internal/exam"
	"github.com/focusloop/focusloop-backend/internal/generation"
	"github.com/focusloop/focusloop-backend/internal/model"
	"github.com/focusloop/focusloop-backend/internal/repository"
)

// Session service errors.
var (
	ErrSessionNotFound    = errors.New("exam session not found")
	ErrNotSessionOwner    = errors.New("session belongs to another student")
	ErrActiveSessionOpen  = errors.New("student already has an active exam session")
	ErrResultNotAvailable = errors.New("result not available until the session finishes")
)

// ExamSessionService owns the live exam machines. A session's state machine
// is authoritative while the session runs; PostgreSQL only sees the record
// at creation and again through the workers once the session finishes.
type ExamSessionService struct {
	cfg         *config.Config
	sessionRepo *repository.ExamSessionRepository
	generator   *generation.Service
	rdb         *redis.Client
	log         zerolog.Logger

	mu       sync.Mutex
	machines map[uuid.UUID]*exam.Machine
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	cfg *config.Config,
	sessionRepo *repository.ExamSessionRepository,
	generator *generation.Service,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		cfg:         cfg,
		sessionRepo: sessionRepo,
		generator:   generator,
		rdb:         rdb,
		log:         log.With().Str("component", "exam_session_service").Logger(),
		machines:    make(map[uuid.UUID]*exam.Machine),
	}
}

// CreateSession builds a new session in AWAITING_START. The question set
// comes from the pre-generation cache when warm, otherwise from the
// generator (masked by the fallback bank on failure).
func (s *ExamSessionService) CreateSession(ctx context.Context, student *model.Student, req *model.CreateSessionRequest) (*exam.Machine, error) {
	if err := s.ensureNoActiveSession(ctx, student.ID); err != nil {
		return nil, err
	}

	count := req.Count
	if count <= 0 {
		count = 5
	}
	difficulty := exam.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = exam.DifficultyMedium
	}

	questions, generated := s.questionsFor(ctx, student, req.Topic, count, difficulty)

	// A recorder exists only for opted-in sessions; everyone else finishes
	// with the neutral attention analysis.
	var recorder *attention.Recorder
	if req.Tracking {
		recorder = attention.NewRecorder(attention.RecorderConfig{
			PollInterval:         s.cfg.AttentionPollInterval,
			DistractionThreshold: s.cfg.DistractionThreshold,
			Log:                  s.log,
		})
	}

	sessionID := uuid.New()
	examID := uuid.New()
	machine, err := exam.NewMachine(exam.MachineConfig{
		SessionID:     sessionID,
		ExamID:        examID,
		UserID:        strconv.Itoa(student.ID),
		Questions:     questions,
		TimeLimit:     time.Duration(req.TimeLimitSeconds) * time.Second,
		Recorder:      recorder,
		Log:           s.log,
		OnAnswerSaved: s.answerSavedHook(student.ID, sessionID),
		OnFinished:    s.finishedHook(student.ID, sessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("build session machine: %w", err)
	}

	record := &model.ExamSessionRecord{
		ID:               sessionID,
		ExamID:           examID,
		StudentID:        student.ID,
		Topic:            req.Topic,
		Difficulty:       string(difficulty),
		QuestionCount:    len(questions),
		TimeLimitSeconds: req.TimeLimitSeconds,
		Status:           string(exam.StateAwaitingStart),
		Generated:        generated,
	}
	if err := s.sessionRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create session record: %w", err)
	}

	s.mu.Lock()
	s.machines[sessionID] = machine
	s.mu.Unlock()

	activeKey := config.CacheKey.StudentActiveSessionKey(student.ID)
	if err := s.rdb.Set(ctx, activeKey, sessionID.String(), time.Duration(req.TimeLimitSeconds)*time.Second*2).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache active session key")
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("student_id", student.ID).
		Str("topic", req.Topic).
		Bool("generated", generated).
		Msg("Session created")
	return machine, nil
}

// questionsFor checks the pre-generation cache before calling the generator.
// Cache entries are consumed on use so a set never seeds two sessions.
func (s *ExamSessionService) questionsFor(ctx context.Context, student *model.Student, topic string, count int, difficulty exam.Difficulty) ([]exam.Question, bool) {
	cacheKey := config.CacheKey.GeneratedSetKey(topic, count, string(difficulty))
	cached, err := s.rdb.GetDel(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		questions, decErr := generation.DecodeQuestions([]byte(cached))
		if decErr == nil {
			s.log.Info().Str("topic", topic).Msg("Using pre-generated question set")
			return questions, true
		}
		s.log.Warn().Err(decErr).Str("topic", topic).Msg("Discarding corrupt cached question set")
	} else if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Question set cache read failed")
	}

	return s.generator.QuestionsFor(ctx, generation.Request{
		Topic:      topic,
		Count:      count,
		Difficulty: difficulty,
		Profile: generation.StudentProfile{
			GradeLevel:     student.GradeLevel,
			AttentionSpan:  string(student.AttentionSpan),
			WeakSubjects:   student.WeakSubjects,
			StrongSubjects: student.StrongSubjects,
		},
	})
}

// PrewarmQuestionSet queues a background generation request so the next
// session on this topic starts without waiting on the provider.
func (s *ExamSessionService) PrewarmQuestionSet(ctx context.Context, student *model.Student, topic string, count int, difficulty string) error {
	if count <= 0 {
		count = 5
	}
	if difficulty == "" {
		difficulty = string(exam.DifficultyMedium)
	}

	job := model.GenerationJob{
		StudentID:      student.ID,
		Topic:          topic,
		Count:          count,
		Difficulty:     difficulty,
		GradeLevel:     student.GradeLevel,
		AttentionSpan:  string(student.AttentionSpan),
		WeakSubjects:   student.WeakSubjects,
		StrongSubjects: student.StrongSubjects,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, config.WorkerKey.GenerationQueue, raw).Err()
}

// StartSession moves a session into IN_PROGRESS and stamps the record.
func (s *ExamSessionService) StartSession(ctx context.Context, sessionID uuid.UUID, studentID int) (*exam.Machine, error) {
	machine, err := s.machineFor(sessionID, studentID)
	if err != nil {
		return nil, err
	}

	if err := machine.Start(ctx); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.MarkStarted(ctx, sessionID, time.Now(), string(exam.StateInProgress)); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to stamp session start")
	}
	return machine, nil
}

// ConfirmAnswer saves the answer for the session's current question.
func (s *ExamSessionService) ConfirmAnswer(sessionID uuid.UUID, studentID int, selected exam.Option) (*exam.Machine, error) {
	machine, err := s.machineFor(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.ConfirmAnswer(selected); err != nil {
		return nil, err
	}
	return machine, nil
}

// Seek moves the session's current-question pointer.
func (s *ExamSessionService) Seek(sessionID uuid.UUID, studentID int, index int) (*exam.Machine, error) {
	machine, err := s.machineFor(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.Seek(index); err != nil {
		return nil, err
	}
	return machine, nil
}

// Resume clears a pause.
func (s *ExamSessionService) Resume(sessionID uuid.UUID, studentID int) (*exam.Machine, error) {
	machine, err := s.machineFor(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.Resume(); err != nil {
		return nil, err
	}
	return machine, nil
}

// Finish completes a session and returns its result. Idempotent for
// FINISHED sessions.
func (s *ExamSessionService) Finish(ctx context.Context, sessionID uuid.UUID, studentID int) (*exam.Result, error) {
	machine, err := s.machineFor(sessionID, studentID)
	if err != nil {
		return nil, err
	}

	result, err := machine.Finish()
	if err != nil {
		return nil, err
	}

	activeKey := config.CacheKey.StudentActiveSessionKey(studentID)
	if err := s.rdb.Del(ctx, activeKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear active session key")
	}
	return result, nil
}

// Machine returns the live machine for read access after an ownership check.
func (s *ExamSessionService) Machine(sessionID uuid.UUID, studentID int) (*exam.Machine, error) {
	return s.machineFor(sessionID, studentID)
}

// Result returns a finished session's result.
func (s *ExamSessionService) Result(sessionID uuid.UUID, studentID int) (*exam.Result, error) {
	machine, err := s.machineFor(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	result := machine.Result()
	if result == nil {
		return nil, ErrResultNotAvailable
	}
	return result, nil
}

// History lists a student's persisted session records, newest first.
func (s *ExamSessionService) History(ctx context.Context, studentID, limit, offset int) ([]model.ExamSessionRecord, int, error) {
	return s.sessionRepo.ListByStudent(ctx, studentID, limit, offset)
}

// Evict drops dead machines from the registry. Called periodically; a
// finished machine stays resident until its result has had a grace window to
// be read, and a session created but never started is dropped once its whole
// time limit plus the same grace window has passed.
func (s *ExamSessionService) Evict(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	cutoff := time.Now().Add(-olderThan)
	for id, m := range s.machines {
		if result := m.Result(); result != nil {
			if result.FinishedAt.Before(cutoff) {
				delete(s.machines, id)
				evicted++
			}
			continue
		}
		if m.State() == exam.StateAwaitingStart && m.CreatedAt().Add(m.TimeLimit()).Before(cutoff) {
			delete(s.machines, id)
			evicted++
		}
	}
	return evicted
}

func (s *ExamSessionService) machineFor(sessionID uuid.UUID, studentID int) (*exam.Machine, error) {
	s.mu.Lock()
	machine, ok := s.machines[sessionID]
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if machine.UserID() != strconv.Itoa(studentID) {
		return nil, ErrNotSessionOwner
	}
	return machine, nil
}

func (s *ExamSessionService) ensureNoActiveSession(ctx context.Context, studentID int) error {
	activeKey := config.CacheKey.StudentActiveSessionKey(studentID)
	val, err := s.rdb.Get(ctx, activeKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("check active session: %w", err)
	}
	if val == "" {
		return nil
	}

	// The key can outlive the machine (process restart). Only block when a
	// live unfinished machine backs it.
	sessionID, parseErr := uuid.Parse(val)
	if parseErr != nil {
		return nil
	}
	s.mu.Lock()
	machine, ok := s.machines[sessionID]
	s.mu.Unlock()
	if ok && machine.State() != exam.StateFinished {
		return ErrActiveSessionOpen
	}
	return nil
}

// ─── Machine hooks ──────────────────────────────────────────────────

// answerSavedHook autosaves the answer to a Redis hash and queues it for the
// answer worker. Both writes are fire-and-forget; a confirmed answer never
// fails the student's request over persistence.
func (s *ExamSessionService) answerSavedHook(studentID int, sessionID uuid.UUID) func(exam.Answer) {
	return func(ans exam.Answer) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		answersKey := config.CacheKey.StudentAnswersKey(sessionID.String(), studentID)
		if err := s.rdb.HSet(ctx, answersKey, ans.QuestionID.String(), string(ans.Selected)).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Answer autosave to Redis failed")
		}

		job := model.AnswerJob{
			StudentID:   studentID,
			SessionID:   sessionID.String(),
			QuestionID:  ans.QuestionID.String(),
			Selected:    string(ans.Selected),
			TimeSpentMs: ans.TimeSpent.Milliseconds(),
			Timestamp:   ans.Timestamp.UnixMilli(),
		}
		raw, _ := json.Marshal(job)
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw).Err(); err != nil {
			s.log.Error().Err(err).Msg("Answer job enqueue failed")
		}
	}
}

// finishedHook queues the academic result and, when the session was tracked,
// the attention payload for the background workers.
func (s *ExamSessionService) finishedHook(studentID int, sessionID uuid.UUID) func(*exam.Result) {
	return func(result *exam.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		completion := float64(0)
		if result.TotalQuestions > 0 {
			completion = float64(result.AnsweredCount) / float64(result.TotalQuestions) * 100
		}

		resultJob := model.ResultJob{
			StudentID:         studentID,
			SessionID:         sessionID.String(),
			AcademicScore:     result.AcademicScore,
			CorrectCount:      result.CorrectCount,
			TotalQuestions:    result.TotalQuestions,
			CompletionPercent: completion,
			TimeUsedMs:        result.TimeManagement.TotalTimeUsed.Milliseconds(),
			FinishedAt:        result.FinishedAt.UnixMilli(),
		}
		raw, _ := json.Marshal(resultJob)
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Result job enqueue failed")
		}

		if result.AttentionTracked && result.AttentionSession != nil {
			s.enqueueAttention(ctx, studentID, sessionID, result)
		}
	}
}

func (s *ExamSessionService) enqueueAttention(ctx context.Context, studentID int, sessionID uuid.UUID, result *exam.Result) {
	sess := result.AttentionSession
	analysis := result.Attention

	job := model.AttentionJob{
		StudentID:         studentID,
		SessionID:         sessionID.String(),
		StartedAt:         sess.StartTime.UnixMilli(),
		EndedAt:           sess.EndTime.UnixMilli(),
		FocusMs:           sess.TotalFocus.Milliseconds(),
		DistractionMs:     sess.TotalDistraction.Milliseconds(),
		AttentionScore:    sess.AttentionScore,
		GazeStability:     sess.GazeStability,
		OverallScore:      analysis.OverallScore,
		FocusPercentage:   analysis.FocusPercentage,
		Pattern:           string(analysis.Pattern),
		ComparedToAverage: string(analysis.ComparedToAverage),
		Events:            make([]model.AttentionEventJob, 0, len(sess.Events)),
	}
	for _, ev := range sess.Events {
		job.Events = append(job.Events, model.AttentionEventJob{
			StartedAt:  ev.StartedAt.UnixMilli(),
			DurationMs: ev.Duration.Milliseconds(),
			Type:       string(ev.Type),
			Severity:   string(ev.Severity),
		})
	}

	raw, _ := json.Marshal(job)
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttentionQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Attention job enqueue failed")
	}
}
