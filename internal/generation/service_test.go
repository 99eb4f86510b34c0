package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/exam"
)

type stubGenerator struct {
	set *QuestionSet
	err error

	lastReq Request
}

func (g *stubGenerator) Generate(_ context.Context, req Request) (*QuestionSet, error) {
	g.lastReq = req
	return g.set, g.err
}

func generatedSet(n int) *QuestionSet {
	questions := make([]exam.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, exam.Question{
			ID:      uuid.New(),
			Subject: "math",
			Text:    "generated question",
			Options: map[exam.Option]string{
				exam.OptionA: "a", exam.OptionB: "b", exam.OptionC: "c", exam.OptionD: "d",
			},
			Correct: exam.OptionA,
		})
	}
	return &QuestionSet{Topic: "math", Difficulty: exam.DifficultyMedium, Questions: questions}
}

func TestServiceNilGeneratorUsesBank(t *testing.T) {
	svc := NewService(nil, time.Second, zerolog.Nop())

	questions, generated := svc.QuestionsFor(context.Background(), Request{Topic: "math", Count: 3})
	if generated {
		t.Error("bank sets must report generated=false")
	}
	if len(questions) != 3 {
		t.Errorf("got %d questions, want 3", len(questions))
	}
}

func TestServiceProviderFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: ErrProviderUnavailable}
	svc := NewService(gen, time.Second, zerolog.Nop())

	questions, generated := svc.QuestionsFor(context.Background(), Request{Topic: "science", Count: 4})
	if generated {
		t.Error("provider failure must report generated=false")
	}
	if len(questions) != 4 {
		t.Errorf("got %d questions, want 4 from the bank", len(questions))
	}
	for _, q := range questions[:3] {
		if q.Subject != "science" {
			t.Errorf("fallback must prefer the requested topic, got %q", q.Subject)
		}
	}
}

func TestServiceMalformedPayloadFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("malformed: no questions")}
	svc := NewService(gen, time.Second, zerolog.Nop())

	questions, generated := svc.QuestionsFor(context.Background(), Request{Topic: "math", Count: 2})
	if generated {
		t.Error("malformed payload must report generated=false")
	}
	if len(questions) != 2 {
		t.Errorf("got %d questions, want 2", len(questions))
	}
}

func TestServiceTruncatesOversizedSets(t *testing.T) {
	gen := &stubGenerator{set: generatedSet(10)}
	svc := NewService(gen, time.Second, zerolog.Nop())

	questions, generated := svc.QuestionsFor(context.Background(), Request{Topic: "math", Count: 5})
	if !generated {
		t.Error("successful generation must report generated=true")
	}
	if len(questions) != 5 {
		t.Errorf("got %d questions, want truncation to 5", len(questions))
	}
}

func TestServiceRequestDefaults(t *testing.T) {
	gen := &stubGenerator{set: generatedSet(5)}
	svc := NewService(gen, time.Second, zerolog.Nop())

	svc.QuestionsFor(context.Background(), Request{Topic: "  Math "})
	if gen.lastReq.Count != 5 {
		t.Errorf("Count defaulted to %d, want 5", gen.lastReq.Count)
	}
	if gen.lastReq.Difficulty != exam.DifficultyMedium {
		t.Errorf("Difficulty defaulted to %q, want medium", gen.lastReq.Difficulty)
	}
	if gen.lastReq.Topic != "math" {
		t.Errorf("Topic normalized to %q, want math", gen.lastReq.Topic)
	}
}

func TestValidateSet(t *testing.T) {
	if err := validateSet(nil); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("nil set: err = %v, want ErrMalformedPayload", err)
	}
	if err := validateSet(&QuestionSet{}); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("empty set: err = %v, want ErrMalformedPayload", err)
	}

	set := generatedSet(2)
	if err := validateSet(set); err != nil {
		t.Errorf("valid set rejected: %v", err)
	}

	broken := generatedSet(2)
	delete(broken.Questions[1].Options, exam.OptionC)
	if err := validateSet(broken); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("missing option: err = %v, want ErrMalformedPayload", err)
	}

	broken = generatedSet(1)
	broken.Questions[0].Correct = exam.Option("Z")
	if err := validateSet(broken); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("invalid correct key: err = %v, want ErrMalformedPayload", err)
	}

	broken = generatedSet(1)
	broken.Questions[0].Text = ""
	if err := validateSet(broken); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("empty text: err = %v, want ErrMalformedPayload", err)
	}
}

func TestQuestionCacheRoundTrip(t *testing.T) {
	original := generatedSet(3).Questions

	raw, err := EncodeQuestions(original)
	if err != nil {
		t.Fatalf("EncodeQuestions: %v", err)
	}
	restored, err := DecodeQuestions(raw)
	if err != nil {
		t.Fatalf("DecodeQuestions: %v", err)
	}

	if len(restored) != len(original) {
		t.Fatalf("got %d questions, want %d", len(restored), len(original))
	}
	for i := range original {
		if restored[i].ID != original[i].ID {
			t.Errorf("question %d id changed", i)
		}
		// The correct answer is stripped from API JSON but must survive the
		// cache, or cached sessions could never be scored.
		if restored[i].Correct != original[i].Correct {
			t.Errorf("question %d correct = %q, want %q", i, restored[i].Correct, original[i].Correct)
		}
	}
}

func TestQuestionCacheRejectsCorruptEntries(t *testing.T) {
	if _, err := DecodeQuestions([]byte("not json")); err == nil {
		t.Error("garbage bytes must be rejected")
	}
	if _, err := DecodeQuestions([]byte("[]")); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("empty list: err = %v, want ErrMalformedPayload", err)
	}

	// A cached set whose correct keys were stripped must not seed an exam.
	broken := generatedSet(1).Questions
	broken[0].Correct = ""
	raw, err := EncodeQuestions(broken)
	if err != nil {
		t.Fatalf("EncodeQuestions: %v", err)
	}
	if _, err := DecodeQuestions(raw); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("stripped correct key: err = %v, want ErrMalformedPayload", err)
	}
}
