package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

const suggestSystemPrompt = "You extract actionable tasks from emails. " +
	"Respond with valid JSON only: " +
	`{"actionable": bool, "title": string, "category": string, "due_in_hours": number}. ` +
	"Set actionable to false when the email needs no follow-up. " +
	"Categories are short labels like Travel, Work or Finance. " +
	"due_in_hours is relative to when the email was received; use 0 when unknown."

// OpenAISuggester asks an LLM whether an email warrants a task. It degrades
// into the same contract as the keyword suggester: nil means not actionable.
type OpenAISuggester struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAISuggester creates an OpenAI-backed suggester
func NewOpenAISuggester(apiKey, baseURL, model string, logger *zap.Logger) *OpenAISuggester {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAISuggester{
		client: client,
		model:  model,
		logger: logger,
	}
}

// SuggestTask sends the email to the model and maps its verdict to a
// suggestion
func (s *OpenAISuggester) SuggestTask(ctx context.Context, email models.Email) (*models.SuggestedTask, error) {
	prompt := fmt.Sprintf("Subject: %s\nReceived: %s\n\n%s",
		email.Subject, email.ReceivedAt.Format(time.RFC3339), email.Body)

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(suggestSystemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := s.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	var verdict struct {
		Actionable bool    `json:"actionable"`
		Title      string  `json:"title"`
		Category   string  `json:"category"`
		DueInHours float64 `json:"due_in_hours"`
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
	}

	if !verdict.Actionable || verdict.Title == "" {
		s.logger.Debug("email not actionable", zap.String("email_id", email.ID))
		return nil, nil
	}

	suggestion := &models.SuggestedTask{
		ID:            "sg-" + email.ID,
		Title:         verdict.Title,
		Category:      verdict.Category,
		LinkedEmailID: email.ID,
		EmailSubject:  email.Subject,
	}
	if verdict.DueInHours > 0 {
		due := email.ReceivedAt.Add(time.Duration(verdict.DueInHours * float64(time.Hour)))
		suggestion.DueAt = &due
	}
	return suggestion, nil
}

var _ Suggester = (*OpenAISuggester)(nil)
