package generation

import (
	"strings"
	"testing"

	"github.com/focusloop/focusloop-backend/internal/exam"
)

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator(OpenAIConfig{}); err == nil {
		t.Error("missing API key must be rejected")
	}
	if _, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-test"}); err != nil {
		t.Errorf("NewOpenAIGenerator: %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt(Request{
		Topic:      "fractions",
		Count:      5,
		Difficulty: exam.DifficultyEasy,
		Profile: StudentProfile{
			GradeLevel:    "7",
			AttentionSpan: "short",
			WeakSubjects:  []string{"math", "science"},
		},
	})

	for _, want := range []string{
		"Write 5 easy multiple-choice questions about fractions.",
		"grade level 7",
		"struggle with: math, science",
		"attention span is short",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}

	minimal := buildPrompt(Request{Topic: "algebra", Count: 3, Difficulty: exam.DifficultyHard})
	if strings.Contains(minimal, "grade level") || strings.Contains(minimal, "struggle") {
		t.Errorf("minimal prompt leaked profile text:\n%s", minimal)
	}
}
