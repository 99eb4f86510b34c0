package exam

import (
	"strings"

	"github.com/google/uuid"
)

// The fallback question bank. Substituted whenever question generation fails
// or returns malformed data; deterministic so a broken generator never
// surfaces as a user-visible error. IDs are fixed so answer rows stay stable
// across restarts.
var fallbackBank = []Question{
	{
		ID:      uuid.MustParse("9f1c2a40-0001-4a9b-8f21-0d3c8b6a1001"),
		Subject: "math",
		Text:    "What is 12 × 8?",
		Options: map[Option]string{OptionA: "88", OptionB: "96", OptionC: "104", OptionD: "112"},
		Correct: OptionB,
		Hint:    "Think of 12 × 8 as 10 × 8 plus 2 × 8.",
	},
	{
		ID:          uuid.MustParse("9f1c2a40-0002-4a9b-8f21-0d3c8b6a1002"),
		Subject:     "math",
		Text:        "A train travels 180 km in 3 hours. What is its average speed?",
		Options:     map[Option]string{OptionA: "45 km/h", OptionB: "50 km/h", OptionC: "60 km/h", OptionD: "90 km/h"},
		Correct:     OptionC,
		Explanation: "Average speed is distance divided by time: 180 / 3 = 60.",
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0003-4a9b-8f21-0d3c8b6a1003"),
		Subject: "math",
		Text:    "Which fraction is equal to 0.75?",
		Options: map[Option]string{OptionA: "2/3", OptionB: "3/5", OptionC: "3/4", OptionD: "4/5"},
		Correct: OptionC,
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0004-4a9b-8f21-0d3c8b6a1004"),
		Subject: "math",
		Text:    "Solve for x: 2x + 6 = 18",
		Options: map[Option]string{OptionA: "4", OptionB: "6", OptionC: "8", OptionD: "12"},
		Correct: OptionB,
		Hint:    "Move 6 to the other side first.",
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0005-4a9b-8f21-0d3c8b6a1005"),
		Subject: "reading",
		Text:    "A word that means the opposite of another word is called a(n):",
		Options: map[Option]string{OptionA: "synonym", OptionB: "antonym", OptionC: "homonym", OptionD: "acronym"},
		Correct: OptionB,
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0006-4a9b-8f21-0d3c8b6a1006"),
		Subject: "reading",
		Text:    "Which sentence is written in the passive voice?",
		Options: map[Option]string{OptionA: "The dog chased the ball.", OptionB: "She wrote a letter.", OptionC: "The cake was eaten by the children.", OptionD: "They are playing outside."},
		Correct: OptionC,
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0007-4a9b-8f21-0d3c8b6a1007"),
		Subject: "reading",
		Text:    "The main idea of a paragraph is usually found in the:",
		Options: map[Option]string{OptionA: "topic sentence", OptionB: "last word", OptionC: "title page", OptionD: "footnotes"},
		Correct: OptionA,
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0008-4a9b-8f21-0d3c8b6a1008"),
		Subject: "science",
		Text:    "What gas do plants absorb from the air for photosynthesis?",
		Options: map[Option]string{OptionA: "Oxygen", OptionB: "Nitrogen", OptionC: "Carbon dioxide", OptionD: "Hydrogen"},
		Correct: OptionC,
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0009-4a9b-8f21-0d3c8b6a1009"),
		Subject: "science",
		Text:    "Which planet is closest to the sun?",
		Options: map[Option]string{OptionA: "Venus", OptionB: "Mercury", OptionC: "Mars", OptionD: "Earth"},
		Correct: OptionB,
	},
	{
		ID:          uuid.MustParse("9f1c2a40-0010-4a9b-8f21-0d3c8b6a1010"),
		Subject:     "science",
		Text:        "Water boils at what temperature at sea level?",
		Options:     map[Option]string{OptionA: "90°C", OptionB: "100°C", OptionC: "110°C", OptionD: "120°C"},
		Correct:     OptionB,
		Explanation: "At standard atmospheric pressure water boils at 100°C.",
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0011-4a9b-8f21-0d3c8b6a1011"),
		Subject: "science",
		Text:    "Which of these is NOT a state of matter?",
		Options: map[Option]string{OptionA: "Solid", OptionB: "Liquid", OptionC: "Energy", OptionD: "Gas"},
		Correct: OptionC,
	},
	{
		ID:      uuid.MustParse("9f1c2a40-0012-4a9b-8f21-0d3c8b6a1012"),
		Subject: "math",
		Text:    "What is the area of a rectangle 7 cm long and 4 cm wide?",
		Options: map[Option]string{OptionA: "11 cm²", OptionB: "22 cm²", OptionC: "28 cm²", OptionD: "49 cm²"},
		Correct: OptionC,
	},
}

// FallbackQuestions returns up to count bank questions, preferring the
// requested topic. When the topic has too few questions the rest of the bank
// fills the remainder, in bank order, so the same request always yields the
// same set.
func FallbackQuestions(topic string, count int) []Question {
	if count <= 0 {
		count = len(fallbackBank)
	}

	topic = strings.ToLower(strings.TrimSpace(topic))

	picked := make([]Question, 0, count)
	for _, q := range fallbackBank {
		if q.Subject == topic {
			picked = append(picked, q)
			if len(picked) == count {
				return picked
			}
		}
	}
	for _, q := range fallbackBank {
		if q.Subject != topic {
			picked = append(picked, q)
			if len(picked) == count {
				return picked
			}
		}
	}
	return picked
}
