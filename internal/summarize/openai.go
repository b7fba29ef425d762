package summarize

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAISummarizer calls the Chat Completions API.
type OpenAISummarizer struct {
	model  string
	client openai.Client
}

func NewOpenAISummarizer(model, apiKey string, opts ...option.RequestOption) *OpenAISummarizer {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAISummarizer{
		model:  model,
		client: openai.NewClient(opts...),
	}
}

// ModelID returns the model identifier.
func (s *OpenAISummarizer) ModelID() string {
	return s.model
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, content string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range BuildPrompt(content) {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Text))
		case RoleHuman:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.model),
		Messages:    messages,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) > 0 && resp.Choices[0].FinishReason == "length" {
		return "", fmt.Errorf("OpenAI: %w", ErrTruncated)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("output text is missing (choices = %d)", len(resp.Choices))
	}
	return resp.Choices[0].Message.Content, nil
}
