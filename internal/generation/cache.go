package generation

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/focusloop/focusloop-backend/internal/exam"
)

// storedQuestion is the cache wire shape. exam.Question hides the correct
// answer from API JSON, so cached sets carry it explicitly.
type storedQuestion struct {
	ID          uuid.UUID              `json:"id"`
	Subject     string                 `json:"subject"`
	Text        string                 `json:"text"`
	Options     map[exam.Option]string `json:"options"`
	Correct     exam.Option            `json:"correct"`
	Explanation string                 `json:"explanation,omitempty"`
	Hint        string                 `json:"hint,omitempty"`
}

// EncodeQuestions serializes a question set for the Redis cache.
func EncodeQuestions(questions []exam.Question) ([]byte, error) {
	stored := make([]storedQuestion, 0, len(questions))
	for _, q := range questions {
		stored = append(stored, storedQuestion{
			ID:          q.ID,
			Subject:     q.Subject,
			Text:        q.Text,
			Options:     q.Options,
			Correct:     q.Correct,
			Explanation: q.Explanation,
			Hint:        q.Hint,
		})
	}
	return json.Marshal(stored)
}

// DecodeQuestions restores a cached question set. Sets failing the
// structural contract are rejected so a corrupt cache entry cannot seed an
// exam.
func DecodeQuestions(data []byte) ([]exam.Question, error) {
	var stored []storedQuestion
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	questions := make([]exam.Question, 0, len(stored))
	for _, sq := range stored {
		questions = append(questions, exam.Question{
			ID:          sq.ID,
			Subject:     sq.Subject,
			Text:        sq.Text,
			Options:     sq.Options,
			Correct:     sq.Correct,
			Explanation: sq.Explanation,
			Hint:        sq.Hint,
		})
	}

	set := &QuestionSet{Questions: questions}
	if err := validateSet(set); err != nil {
		return nil, err
	}
	return questions, nil
}
