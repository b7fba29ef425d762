package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t, "SUMMARIZER_PROVIDER", "SUMMARIZER_MODEL", "GOOGLE_API_KEY", "OTEL_EXPORTER_OTLP_ENDPOINT")
	t.Chdir(t.TempDir())

	flagPDF, flagURL, flagJSON = "", "", false
	flagProvider, flagModel, flagAPIKey, flagEnvFile, flagLogFile = "", "", "", "", ""
	flagVerbose = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Release Notes For Version Two</title></head>
<body><h1>Release</h1><p>The release adds streaming.</p><p>It fixes two bugs.</p></body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	assert.NilError(t, err)
	assert.Equal(t, out, "summarizer dev\n")
}

func TestExtractURLAsJSON(t *testing.T) {
	srv := articleServer(t)

	out, err := execute(t, "extract", "--url", srv.URL, "--json")
	assert.NilError(t, err)

	var got result
	assert.NilError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, got.Text, "The release adds streaming. It fixes two bugs.")
	assert.Equal(t, got.Source, srv.URL)
	assert.Equal(t, got.Words, 8)
	assert.Equal(t, got.Summary, "")
}

func TestSummarizeWithoutCredentialFails(t *testing.T) {
	srv := articleServer(t)

	out, err := execute(t, "summarize", "--url", srv.URL)
	assert.ErrorContains(t, err, "GOOGLE_API_KEY not found. Please set it in your .env file.")
	assert.Equal(t, out, "")
}

func TestUnknownProviderIsRejected(t *testing.T) {
	_, err := execute(t, "extract", "--url", "https://example.com", "--provider", "llama")
	assert.Assert(t, is.ErrorContains(err, `invalid provider "llama"`))
}

func TestExtractDetectsPositionalInput(t *testing.T) {
	srv := articleServer(t)

	out, err := execute(t, "extract", srv.URL, "--json")
	assert.NilError(t, err)
	var got result
	assert.NilError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, got.Source, srv.URL)
	assert.Equal(t, got.Words, 8)

	_, err = execute(t, "extract", "missing.pdf")
	assert.ErrorContains(t, err, "Could not extract text from the PDF")
}

func TestExtractInputErrors(t *testing.T) {
	_, err := execute(t, "extract")
	assert.ErrorContains(t, err, "no input given")

	_, err = execute(t, "extract", "a.pdf", "--url", "https://example.com")
	assert.ErrorContains(t, err, "not both")

	_, err = execute(t, "extract", "a.pdf", "b.pdf")
	assert.ErrorContains(t, err, "accepts at most 1 arg")
}
