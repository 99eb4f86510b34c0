package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/focusloop/focusloop-backend/internal/exam"
)

// Generator errors. Both map to the same recovery: the fallback bank.
var (
	// ErrProviderUnavailable means the upstream model could not be reached
	// or refused the request.
	ErrProviderUnavailable = errors.New("generation provider unavailable")

	// ErrMalformedPayload means the provider answered but the payload does
	// not satisfy the question-set contract.
	ErrMalformedPayload = errors.New("generated payload is malformed")
)

// StudentProfile is the personalization context sent with a generation
// request. All fields optional.
type StudentProfile struct {
	GradeLevel     string   `json:"grade_level,omitempty"`
	AttentionSpan  string   `json:"attention_span,omitempty"`
	WeakSubjects   []string `json:"weak_subjects,omitempty"`
	StrongSubjects []string `json:"strong_subjects,omitempty"`
}

// Request describes one question-set generation call.
type Request struct {
	Topic      string
	Count      int
	Difficulty exam.Difficulty
	Profile    StudentProfile
}

// QuestionSet is a validated generated set ready to seed an exam session.
type QuestionSet struct {
	SubjectTitle string          `json:"subject_title"`
	Topic        string          `json:"topic"`
	Difficulty   exam.Difficulty `json:"difficulty"`
	Questions    []exam.Question `json:"questions"`
}

// Generator produces question sets. Implementations: the OpenAI provider and
// test doubles.
type Generator interface {
	Generate(ctx context.Context, req Request) (*QuestionSet, error)
}

// validateSet enforces the structural contract: a non-empty question list
// where every question has all four options and a correct key among them.
// A set failing validation is treated exactly like a provider failure.
func validateSet(set *QuestionSet) error {
	if set == nil || len(set.Questions) == 0 {
		return fmt.Errorf("%w: empty question list", ErrMalformedPayload)
	}
	for i := range set.Questions {
		q := &set.Questions[i]
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrMalformedPayload, i)
		}
		for _, opt := range []exam.Option{exam.OptionA, exam.OptionB, exam.OptionC, exam.OptionD} {
			if q.Options[opt] == "" {
				return fmt.Errorf("%w: question %d missing option %s", ErrMalformedPayload, i, opt)
			}
		}
		if !exam.ValidOption(q.Correct) {
			return fmt.Errorf("%w: question %d has invalid correct answer %q", ErrMalformedPayload, i, q.Correct)
		}
	}
	return nil
}
