package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/focusloop/focusloop-backend/internal/exam"
)

const systemPrompt = `You are a question author for an ADHD-friendly learning platform.
Write short, concrete multiple-choice questions. One sentence per question
where possible. Always produce exactly the requested number of questions.
Respond with JSON only, matching this shape:
{"subject_title": string, "questions": [{"text": string,
"options": {"A": string, "B": string, "C": string, "D": string},
"correct_answer": "A"|"B"|"C"|"D", "explanation": string, "hint": string}]}`

// OpenAIConfig configures the OpenAI-backed generator. BaseURL supports
// OpenAI-compatible gateways.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIGenerator implements Generator using the OpenAI chat completion API
// in JSON mode.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAI-backed generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// generatedQuestion is the wire shape of one question in the model's reply.
type generatedQuestion struct {
	Text          string            `json:"text"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Hint          string            `json:"hint"`
}

type generatedPayload struct {
	SubjectTitle string              `json:"subject_title"`
	Questions    []generatedQuestion `json:"questions"`
}

// Generate requests a question set and validates it structurally. Any
// transport failure, refusal, or malformed payload comes back as a typed
// error; this provider never panics on bad model output.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*QuestionSet, error) {
	userPrompt := buildPrompt(req)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrMalformedPayload)
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	set := &QuestionSet{
		SubjectTitle: payload.SubjectTitle,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		Questions:    make([]exam.Question, 0, len(payload.Questions)),
	}
	for _, gq := range payload.Questions {
		options := make(map[exam.Option]string, 4)
		for k, v := range gq.Options {
			options[exam.Option(strings.ToUpper(k))] = v
		}
		set.Questions = append(set.Questions, exam.Question{
			ID:          uuid.New(),
			Subject:     strings.ToLower(req.Topic),
			Text:        gq.Text,
			Options:     options,
			Correct:     exam.Option(strings.ToUpper(gq.CorrectAnswer)),
			Explanation: gq.Explanation,
			Hint:        gq.Hint,
		})
	}

	if err := validateSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d %s multiple-choice questions about %s.", req.Count, req.Difficulty, req.Topic)
	if req.Profile.GradeLevel != "" {
		fmt.Fprintf(&b, " The student is at grade level %s.", req.Profile.GradeLevel)
	}
	if len(req.Profile.WeakSubjects) > 0 {
		fmt.Fprintf(&b, " They struggle with: %s.", strings.Join(req.Profile.WeakSubjects, ", "))
	}
	if req.Profile.AttentionSpan != "" {
		fmt.Fprintf(&b, " Their attention span is %s, so keep wording tight.", req.Profile.AttentionSpan)
	}
	return b.String()
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: rate limited", ErrProviderUnavailable)
	}
	return fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
}
