package summarize

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
}

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type NovaSummarizer struct {
	model  string
	client ConverseAPI
}

// NovaOptions configures the AWS SDK for the Bedrock provider.
type NovaOptions struct {
	Model   string
	Region  string
	Profile string

	// Static keys take precedence over the default credential chain when
	// both AccessKeyID and SecretAccessKey are set.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint overrides the Bedrock runtime endpoint.
	Endpoint string
}

// NewNovaSummarizer loads the AWS default config and calls Bedrock Converse.
func NewNovaSummarizer(ctx context.Context, opts NovaOptions) (*NovaSummarizer, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}
	// One call per Summarize: SDK retries are disabled.
	loadOpts = append(loadOpts, config.WithRetryMaxAttempts(1))

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	client := bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewNovaSummarizerWithClient(opts.Model, client), nil
}

func NewNovaSummarizerWithClient(model string, client ConverseAPI) *NovaSummarizer {
	return &NovaSummarizer{
		model:  resolveModel(novaModels, model, novaModels["nova-lite"]),
		client: client,
	}
}

// ModelID returns the resolved model identifier.
func (g *NovaSummarizer) ModelID() string {
	return g.model
}

func (g *NovaSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.model),
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(temperature),
		},
	}
	for _, m := range BuildPrompt(content) {
		switch m.Role {
		case RoleSystem:
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: m.Text})
		case RoleHuman:
			input.Messages = append(input.Messages, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: m.Text},
				},
			})
		}
	}

	resp, err := g.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("Bedrock Converse error: %w", err)
	}
	if resp.StopReason == types.StopReasonMaxTokens {
		return "", fmt.Errorf("Bedrock: %w", ErrTruncated)
	}

	text := extractNovaText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Bedrock")
	}
	return text, nil
}

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var text string
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			text += tb.Value
		}
	}
	return text
}
