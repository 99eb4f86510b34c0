package generation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/exam"
)

// Service wraps a Generator with the fallback contract: callers always get a
// usable question set, never an error. Generation failure and malformed
// payloads are logged and masked by the deterministic bank.
type Service struct {
	generator Generator
	timeout   time.Duration
	log       zerolog.Logger
}

// NewService creates a generation Service. generator may be nil, in which
// case every request is served from the fallback bank.
func NewService(generator Generator, timeout time.Duration, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		generator: generator,
		timeout:   timeout,
		log:       log.With().Str("component", "generation_service").Logger(),
	}
}

// QuestionsFor returns a question set for the request, falling back to the
// static bank on any provider failure. The second return reports whether the
// set was generated (false means the fallback bank was used).
func (s *Service) QuestionsFor(ctx context.Context, req Request) ([]exam.Question, bool) {
	if req.Count <= 0 {
		req.Count = 5
	}
	if req.Difficulty == "" {
		req.Difficulty = exam.DifficultyMedium
	}
	req.Topic = strings.ToLower(strings.TrimSpace(req.Topic))

	if s.generator == nil {
		return exam.FallbackQuestions(req.Topic, req.Count), false
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set, err := s.generator.Generate(genCtx, req)
	if err != nil {
		// Failure and malformed data are handled identically: the student
		// gets the bank, never an error.
		s.log.Warn().
			Err(err).
			Str("topic", req.Topic).
			Int("count", req.Count).
			Msg("Generation failed, using fallback bank")
		return exam.FallbackQuestions(req.Topic, req.Count), false
	}

	questions := set.Questions
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}

	s.log.Info().
		Str("topic", req.Topic).
		Int("count", len(questions)).
		Msg("Question set generated")
	return questions, true
}
