package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

type ClaudeSummarizer struct {
	model  string
	client anthropic.Client
}

func NewClaudeSummarizer(model, apiKey string, opts ...option.RequestOption) *ClaudeSummarizer {
	// One call per Summarize: SDK retries are disabled.
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &ClaudeSummarizer{
		model:  resolveModel(claudeModels, model, claudeModels["haiku"]),
		client: anthropic.NewClient(opts...),
	}
}

// ModelID returns the resolved model identifier.
func (g *ClaudeSummarizer) ModelID() string {
	return g.model
}

func (g *ClaudeSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxOutputTokens,
		Temperature: anthropic.Float(temperature),
	}
	for _, m := range BuildPrompt(content) {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Text})
		case RoleHuman:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}
	if message.StopReason == anthropic.StopReasonMaxTokens {
		return "", fmt.Errorf("Claude: %w", ErrTruncated)
	}

	text := extractText(message)
	if text == "" {
		return "", fmt.Errorf("empty response from Claude")
	}
	return text, nil
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}
