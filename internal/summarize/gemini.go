package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

const (
	defaultGeminiModel     = "gemini-2.5-flash"
	geminiGenerateEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
)

type GeminiSummarizer struct {
	model      string
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// GeminiOption customizes a GeminiSummarizer.
type GeminiOption func(*GeminiSummarizer)

// WithGeminiEndpoint replaces the generateContent URL. It must contain one
// %s verb for the model ID.
func WithGeminiEndpoint(endpoint string) GeminiOption {
	return func(g *GeminiSummarizer) { g.endpoint = endpoint }
}

func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiSummarizer) { g.httpClient = c }
}

// NewGeminiSummarizer calls the Gemini generateContent REST API. The model
// call has no client-side timeout; cancellation comes from ctx.
func NewGeminiSummarizer(model, apiKey string, opts ...GeminiOption) *GeminiSummarizer {
	g := &GeminiSummarizer{
		model:      resolveModel(geminiModels, model, defaultGeminiModel),
		apiKey:     apiKey,
		endpoint:   geminiGenerateEndpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModelID returns the resolved model identifier.
func (g *GeminiSummarizer) ModelID() string {
	return g.model
}

// geminiRequest is the request body for Gemini text generation.
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	reqBody := geminiRequest{
		GenerationConfig: geminiGenConfig{Temperature: temperature},
	}
	for _, m := range BuildPrompt(content) {
		switch m.Role {
		case RoleSystem:
			reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Text}}}
		case RoleHuman:
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Text}},
			})
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	// The key travels in a header so transport errors, which quote the URL,
	// never carry it.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf(g.endpoint, g.model), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error (status %d): %s", res.StatusCode, string(respBody))
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	c := resp.Candidates[0]
	if c.FinishReason == "MAX_TOKENS" {
		return "", fmt.Errorf("Gemini: %w", ErrTruncated)
	}
	if len(c.Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini (finish reason %q)", c.FinishReason)
	}

	var text string
	for _, p := range c.Content.Parts {
		text += p.Text
	}
	return text, nil
}
