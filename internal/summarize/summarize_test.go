package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	openaioption "github.com/openai/openai-go/v3/option"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func TestBuildPrompt(t *testing.T) {
	content := "  Line one.\n\nLine two with trailing space.  "
	msgs := BuildPrompt(content)

	assert.Equal(t, len(msgs), 2)
	assert.Equal(t, msgs[0].Role, RoleSystem)
	assert.Equal(t, msgs[0].Text, SystemInstruction)
	assert.Equal(t, msgs[1].Role, RoleHuman)
	assert.Equal(t, msgs[1].Text, content)
}

func TestBuildPromptSystemTurnIsStable(t *testing.T) {
	a := BuildPrompt("first document")
	b := BuildPrompt(strings.Repeat("x", 100000))
	assert.Equal(t, a[0].Text, b[0].Text)
	assert.Equal(t, len(b[1].Text), 100000)
}

func TestNewMissingCredential(t *testing.T) {
	for _, provider := range []string{"gemini", "claude", "openai", "nova", ""} {
		s, err := New(context.Background(), Options{Provider: provider})
		assert.Assert(t, errors.Is(err, ErrMissingCredential), "provider %q", provider)
		assert.Assert(t, s == nil)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "llama", Credential: "k"})
	assert.ErrorContains(t, err, `unknown provider "llama"`)
}

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Options{Credential: "k"})
	assert.NilError(t, err)
	g, ok := s.(*GeminiSummarizer)
	assert.Assert(t, ok)
	assert.Equal(t, g.ModelID(), "gemini-2.5-flash")

	s, err = New(ctx, Options{Provider: "claude", Model: "sonnet", Credential: "k"})
	assert.NilError(t, err)
	c, ok := s.(*ClaudeSummarizer)
	assert.Assert(t, ok)
	assert.Equal(t, c.ModelID(), claudeModels["sonnet"])

	s, err = New(ctx, Options{Provider: "openai", Model: "gpt-4.1-mini", Credential: "k"})
	assert.NilError(t, err)
	o, ok := s.(*OpenAISummarizer)
	assert.Assert(t, ok)
	assert.Equal(t, o.ModelID(), "gpt-4.1-mini")
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, resolveModel(geminiModels, "", "fallback"), "fallback")
	assert.Equal(t, resolveModel(geminiModels, "gemini-pro", "fallback"), "gemini-2.5-pro")
	assert.Equal(t, resolveModel(geminiModels, "gemini-exp-1206", "fallback"), "gemini-exp-1206")
}

// recordingServer answers every request with status and body, and records
// the request bodies it saw.
type recordingServer struct {
	*httptest.Server
	calls atomic.Int32

	mu      sync.Mutex
	bodies  []map[string]any
	raw     []string
	headers []http.Header
	queries []string
}

func newRecordingServer(t *testing.T, status int, body string) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		rs.mu.Lock()
		rs.raw = append(rs.raw, string(b))
		rs.bodies = append(rs.bodies, m)
		rs.headers = append(rs.headers, r.Header.Clone())
		rs.queries = append(rs.queries, r.URL.RawQuery)
		rs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) firstBody() (map[string]any, string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.bodies[0], rs.raw[0]
}

func (rs *recordingServer) firstRequest() (http.Header, string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.headers[0], rs.queries[0]
}

func (rs *recordingServer) assertSingleCall(t *testing.T, content string) {
	t.Helper()
	assert.Equal(t, rs.calls.Load(), int32(1))
	_, raw := rs.firstBody()
	assert.Assert(t, is.Contains(raw, SystemInstruction))
	assert.Assert(t, is.Contains(raw, content))
}

func TestGeminiSummarize(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"Key "},{"text":"points."}]},"finishReason":"STOP"}]}`)

	g := NewGeminiSummarizer("", "secret",
		WithGeminiEndpoint(rs.URL+"/v1beta/models/%s:generateContent"),
		WithGeminiHTTPClient(rs.Client()))

	out, err := g.Summarize(context.Background(), "Some article text.")
	assert.NilError(t, err)
	assert.Equal(t, out, "Key points.")
	rs.assertSingleCall(t, "Some article text.")

	body, _ := rs.firstBody()
	gen := body["generationConfig"].(map[string]any)
	temp, ok := gen["temperature"]
	assert.Assert(t, ok)
	assert.Equal(t, temp, float64(0))

	sys := body["systemInstruction"].(map[string]any)
	parts := sys["parts"].([]any)
	assert.Equal(t, parts[0].(map[string]any)["text"], SystemInstruction)

	contents := body["contents"].([]any)
	assert.Equal(t, len(contents), 1)
	assert.Equal(t, contents[0].(map[string]any)["role"], "user")

	_, capped := gen["maxOutputTokens"]
	assert.Assert(t, !capped)

	header, query := rs.firstRequest()
	assert.Equal(t, header.Get("x-goog-api-key"), "secret")
	assert.Equal(t, query, "")
}

func TestGeminiTransportErrorOmitsKey(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	endpoint := closed.URL + "/v1beta/models/%s:generateContent"
	closed.Close()

	g := NewGeminiSummarizer("", "SECRET-KEY-123", WithGeminiEndpoint(endpoint))
	_, err := g.Summarize(context.Background(), "text")
	assert.ErrorContains(t, err, "Gemini API error")
	assert.Assert(t, !strings.Contains(err.Error(), "SECRET-KEY-123"), err.Error())
}

func TestGeminiSummarizeMaxTokensIsTruncation(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"Partial"}]},"finishReason":"MAX_TOKENS"}]}`)

	g := NewGeminiSummarizer("", "k", WithGeminiEndpoint(rs.URL+"/%s"))
	out, err := g.Summarize(context.Background(), "Long document.")
	assert.Assert(t, errors.Is(err, ErrTruncated))
	assert.Equal(t, out, "")
	assert.Equal(t, rs.calls.Load(), int32(1))
}

func TestGeminiSummarizeAPIError(t *testing.T) {
	rs := newRecordingServer(t, http.StatusForbidden, `{"error":{"message":"API key not valid"}}`)

	g := NewGeminiSummarizer("gemini-flash", "bad",
		WithGeminiEndpoint(rs.URL+"/v1beta/models/%s:generateContent"),
		WithGeminiHTTPClient(rs.Client()))

	_, err := g.Summarize(context.Background(), "text")
	assert.ErrorContains(t, err, "status 403")
	assert.ErrorContains(t, err, "API key not valid")
	assert.Equal(t, rs.calls.Load(), int32(1))
}

func TestGeminiSummarizeEmptyCandidates(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{"candidates":[]}`)

	g := NewGeminiSummarizer("", "k", WithGeminiEndpoint(rs.URL+"/%s"))

	_, err := g.Summarize(context.Background(), "text")
	assert.ErrorContains(t, err, "empty response from Gemini")
}

const claudeReply = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-haiku-4-5-20251001",
  "content": [{"type": "text", "text": "A short summary."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 12, "output_tokens": 4}
}`

func TestClaudeSummarize(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, claudeReply)

	c := NewClaudeSummarizer("", "secret", anthropicoption.WithBaseURL(rs.URL))
	out, err := c.Summarize(context.Background(), "Document body.")
	assert.NilError(t, err)
	assert.Equal(t, out, "A short summary.")
	rs.assertSingleCall(t, "Document body.")

	body, _ := rs.firstBody()
	temp, ok := body["temperature"]
	assert.Assert(t, ok)
	assert.Equal(t, temp, float64(0))
	assert.Equal(t, body["model"], claudeModels["haiku"])
	assert.Equal(t, len(body["messages"].([]any)), 1)
}

func TestClaudeSummarizeMaxTokensIsTruncation(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK,
		strings.Replace(claudeReply, `"end_turn"`, `"max_tokens"`, 1))

	c := NewClaudeSummarizer("", "secret", anthropicoption.WithBaseURL(rs.URL))
	_, err := c.Summarize(context.Background(), "Document body.")
	assert.Assert(t, errors.Is(err, ErrTruncated))
}

func TestClaudeSummarizeNoRetry(t *testing.T) {
	rs := newRecordingServer(t, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"boom"}}`)

	c := NewClaudeSummarizer("haiku", "secret", anthropicoption.WithBaseURL(rs.URL))
	_, err := c.Summarize(context.Background(), "Document body.")
	assert.ErrorContains(t, err, "Claude API error")
	assert.Equal(t, rs.calls.Load(), int32(1))
}

const openAIReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "OpenAI summary."}}]
}`

func TestOpenAISummarize(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, openAIReply)

	o := NewOpenAISummarizer("", "secret", openaioption.WithBaseURL(rs.URL))
	out, err := o.Summarize(context.Background(), "Page paragraphs.")
	assert.NilError(t, err)
	assert.Equal(t, out, "OpenAI summary.")
	rs.assertSingleCall(t, "Page paragraphs.")

	body, _ := rs.firstBody()
	temp, ok := body["temperature"]
	assert.Assert(t, ok)
	assert.Equal(t, temp, float64(0))
	msgs := body["messages"].([]any)
	assert.Equal(t, len(msgs), 2)
	assert.Equal(t, msgs[0].(map[string]any)["role"], "system")
	assert.Equal(t, msgs[1].(map[string]any)["role"], "user")
}

func TestOpenAISummarizeNoChoices(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK,
		`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)

	o := NewOpenAISummarizer("", "secret", openaioption.WithBaseURL(rs.URL))
	_, err := o.Summarize(context.Background(), "text")
	assert.ErrorContains(t, err, "output text is missing (choices = 0)")
}

func TestOpenAISummarizeLengthIsTruncation(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK,
		strings.Replace(openAIReply, `"finish_reason": "stop"`, `"finish_reason": "length"`, 1))

	o := NewOpenAISummarizer("", "secret", openaioption.WithBaseURL(rs.URL))
	_, err := o.Summarize(context.Background(), "text")
	assert.Assert(t, errors.Is(err, ErrTruncated))
}

func TestOpenAISummarizeNoRetry(t *testing.T) {
	rs := newRecordingServer(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`)

	o := NewOpenAISummarizer("", "secret", openaioption.WithBaseURL(rs.URL))
	_, err := o.Summarize(context.Background(), "text")
	assert.ErrorContains(t, err, "do request")
	assert.Equal(t, rs.calls.Load(), int32(1))
}

type fakeConverse struct {
	calls int
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.calls++
	f.input = in
	return f.out, f.err
}

func TestNovaSummarize(t *testing.T) {
	fake := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "Nova summary."}},
		}},
	}}

	n := NewNovaSummarizerWithClient("nova-lite", fake)
	out, err := n.Summarize(context.Background(), "Body text.")
	assert.NilError(t, err)
	assert.Equal(t, out, "Nova summary.")
	assert.Equal(t, fake.calls, 1)

	in := fake.input
	assert.Equal(t, *in.ModelId, "us.amazon.nova-2-lite-v1:0")
	assert.Equal(t, *in.InferenceConfig.Temperature, float32(0))
	assert.Assert(t, in.InferenceConfig.MaxTokens == nil)
	assert.Equal(t, len(in.System), 1)
	assert.Equal(t, in.System[0].(*types.SystemContentBlockMemberText).Value, SystemInstruction)
	assert.Equal(t, len(in.Messages), 1)
	assert.Equal(t, in.Messages[0].Role, types.ConversationRoleUser)
	assert.Equal(t, in.Messages[0].Content[0].(*types.ContentBlockMemberText).Value, "Body text.")
}

func TestNovaSummarizeMaxTokensIsTruncation(t *testing.T) {
	fake := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "Partial"}},
		}},
		StopReason: types.StopReasonMaxTokens,
	}}

	_, err := NewNovaSummarizerWithClient("", fake).Summarize(context.Background(), "Body text.")
	assert.Assert(t, errors.Is(err, ErrTruncated))
}

func TestNovaSummarizeError(t *testing.T) {
	fake := &fakeConverse{err: errors.New("AccessDeniedException")}

	n := NewNovaSummarizerWithClient("", fake)
	_, err := n.Summarize(context.Background(), "Body text.")
	assert.ErrorContains(t, err, "AccessDeniedException")
	assert.Equal(t, fake.calls, 1)
}

func TestNovaSummarizeEmptyOutput(t *testing.T) {
	n := NewNovaSummarizerWithClient("", &fakeConverse{out: &bedrockruntime.ConverseOutput{}})
	_, err := n.Summarize(context.Background(), "Body text.")
	assert.ErrorContains(t, err, "empty response from Bedrock")
}

func TestNovaSummarizeOverHTTP(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))

	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"output":{"message":{"role":"assistant","content":[{"text":"Signed summary."}]}},"stopReason":"end_turn","usage":{"inputTokens":5,"outputTokens":2,"totalTokens":7},"metrics":{"latencyMs":10}}`)
	}))
	t.Cleanup(srv.Close)

	n, err := NewNovaSummarizer(context.Background(), NovaOptions{
		Region:          "us-west-2",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Endpoint:        srv.URL,
	})
	assert.NilError(t, err)
	assert.Equal(t, n.ModelID(), "us.amazon.nova-2-lite-v1:0")

	out, err := n.Summarize(context.Background(), "Body text.")
	assert.NilError(t, err)
	assert.Equal(t, out, "Signed summary.")
	assert.Assert(t, is.Contains(path, "/converse"))
	assert.Assert(t, is.Contains(auth, "Credential=AKIDEXAMPLE/"))
}
