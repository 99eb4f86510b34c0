package exam

import (
	"time"

	"github.com/google/uuid"
)

// Option is a multiple-choice answer key.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// ValidOption reports whether o is one of the four answer keys.
func ValidOption(o Option) bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Difficulty grades a question set.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single four-option question in a session's question set.
type Question struct {
	ID          uuid.UUID         `json:"id"`
	Subject     string            `json:"subject"`
	Text        string            `json:"text"`
	Options     map[Option]string `json:"options"`
	Correct     Option            `json:"-"`
	Explanation string            `json:"explanation,omitempty"`
	Hint        string            `json:"hint,omitempty"`
}

// Answer is a student's saved answer for one question. IsCorrect stays nil
// until scoring time and is set exactly once.
type Answer struct {
	QuestionID uuid.UUID     `json:"question_id"`
	Selected   Option        `json:"selected_answer"`
	TimeSpent  time.Duration `json:"time_spent_ms"`
	Timestamp  time.Time     `json:"timestamp"`
	IsCorrect  *bool         `json:"is_correct,omitempty"`
}
