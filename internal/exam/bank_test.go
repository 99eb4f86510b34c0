package exam

import (
	"reflect"
	"testing"
)

func TestFallbackQuestionsPrefersTopic(t *testing.T) {
	got := FallbackQuestions("reading", 3)
	if len(got) != 3 {
		t.Fatalf("got %d questions, want 3", len(got))
	}
	for i, q := range got {
		if q.Subject != "reading" {
			t.Errorf("question %d subject = %q, want reading", i, q.Subject)
		}
	}
}

func TestFallbackQuestionsFillsFromOtherSubjects(t *testing.T) {
	got := FallbackQuestions("reading", 6)
	if len(got) != 6 {
		t.Fatalf("got %d questions, want 6", len(got))
	}
	// The three reading questions come first, then bank order.
	for i := 0; i < 3; i++ {
		if got[i].Subject != "reading" {
			t.Errorf("question %d subject = %q, want reading", i, got[i].Subject)
		}
	}
	for i := 3; i < 6; i++ {
		if got[i].Subject == "reading" {
			t.Errorf("question %d unexpectedly reading", i)
		}
	}
}

func TestFallbackQuestionsDeterministic(t *testing.T) {
	a := FallbackQuestions("math", 5)
	b := FallbackQuestions("math", 5)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical requests must yield identical sets")
	}
}

func TestFallbackQuestionsEdgeCounts(t *testing.T) {
	if got := FallbackQuestions("unknown-topic", 2); len(got) != 2 {
		t.Errorf("unknown topic: got %d questions, want 2", len(got))
	}
	if got := FallbackQuestions("math", 0); len(got) != len(fallbackBank) {
		t.Errorf("zero count: got %d questions, want the whole bank", len(got))
	}
	if got := FallbackQuestions("math", 500); len(got) != len(fallbackBank) {
		t.Errorf("oversized count: got %d questions, want the whole bank", len(got))
	}
	if got := FallbackQuestions("  Math ", 2); got[0].Subject != "math" {
		t.Errorf("topic must be trimmed and lowercased, got subject %q", got[0].Subject)
	}
}

func TestFallbackBankIsWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for i, q := range fallbackBank {
		if seen[q.ID.String()] {
			t.Errorf("question %d reuses id %s", i, q.ID)
		}
		seen[q.ID.String()] = true

		if q.Text == "" {
			t.Errorf("question %d has no text", i)
		}
		if len(q.Options) != 4 {
			t.Errorf("question %d has %d options, want 4", i, len(q.Options))
		}
		if !ValidOption(q.Correct) {
			t.Errorf("question %d correct answer %q invalid", i, q.Correct)
		}
		if q.Options[q.Correct] == "" {
			t.Errorf("question %d correct answer %q has no option text", i, q.Correct)
		}
	}
}
