package summarize

import (
	"context"
	"errors"
	"fmt"
)

// SystemInstruction is sent unchanged as the system turn of every request.
const SystemInstruction = "You are an expert assistant. Extract the key information and generate a concise summary of the following content in a detailed way and improve the view of the summary"

// Sampling is pinned for reproducible summaries.
const temperature = 0

// maxOutputTokens is sent only where the API requires a limit (Claude Messages).
const maxOutputTokens = 8192

var (
	// ErrMissingCredential is returned by New when no credential was supplied.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrTruncated is returned when the model stopped at its output token
	// limit; a partial summary is never returned as complete.
	ErrTruncated = errors.New("summary truncated at the output token limit")
)

type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
)

type Message struct {
	Role Role
	Text string
}

// BuildPrompt returns the two-turn prompt: the fixed system instruction,
// then the content verbatim as the human turn.
func BuildPrompt(content string) []Message {
	return []Message{
		{Role: RoleSystem, Text: SystemInstruction},
		{Role: RoleHuman, Text: content},
	}
}

// Summarizer turns extracted text into a summary with one model call.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider   string
	Model      string
	Credential string

	// AWS configures the SDK for the nova provider. Its Model is ignored.
	AWS NovaOptions
}

// New builds the summarizer for opts.Provider. The credential is injected
// here; providers never read it from the environment.
func New(ctx context.Context, opts Options) (Summarizer, error) {
	if opts.Credential == "" {
		return nil, ErrMissingCredential
	}
	switch opts.Provider {
	case "gemini", "":
		return NewGeminiSummarizer(opts.Model, opts.Credential), nil
	case "claude":
		return NewClaudeSummarizer(opts.Model, opts.Credential), nil
	case "openai":
		return NewOpenAISummarizer(opts.Model, opts.Credential), nil
	case "nova":
		novaOpts := opts.AWS
		novaOpts.Model = opts.Model
		s, err := NewNovaSummarizer(ctx, novaOpts)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}

// resolveModel maps an alias to a model ID. Unknown names are passed through
// as raw IDs; an empty name selects the default.
func resolveModel(aliases map[string]string, name, fallback string) string {
	if name == "" {
		return fallback
	}
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
