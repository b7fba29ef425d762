package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type SourceType string

const (
	SourceURL SourceType = "url"
	SourcePDF SourceType = "pdf"

	// maxInputSize caps how much of a web response body is read (25 MB).
	maxInputSize = 25 * 1024 * 1024
)

func (s SourceType) String() string {
	return string(s)
}

// Status classifies the outcome of one extraction.
type Status int

const (
	// StatusOK means text was extracted.
	StatusOK Status = iota
	// StatusEmpty means the source was read but contained no text.
	StatusEmpty
	// StatusFailed means the source could not be opened, fetched or parsed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "failed"
	}
}

type Content struct {
	Text      string
	Title     string
	Source    string
	WordCount int
	Pages     int
}

// Result is what every extractor returns instead of an error. Callers check
// OK before using Content; Status and Err tell an empty source apart from a
// broken one.
type Result struct {
	Content *Content
	Status  Status
	Err     error
}

// OK reports whether the result carries non-empty text.
func (r Result) OK() bool {
	return r.Status == StatusOK && r.Content != nil && r.Content.Text != ""
}

func succeeded(c *Content) Result {
	return Result{Content: c, Status: StatusOK}
}

func empty(source string) Result {
	return Result{
		Status: StatusEmpty,
		Err:    fmt.Errorf("no text found in %s", source),
	}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// Ingester extracts text from a source identified by a string (a path or a URL).
type Ingester interface {
	Ingest(ctx context.Context, source string) Result
}

// DocumentIngester additionally accepts an already-open binary handle.
type DocumentIngester interface {
	Ingester
	IngestDocument(ctx context.Context, name string, r io.ReaderAt, size int64) Result
}

// DetectSource classifies a free-form input: anything with an http or https
// scheme is a URL, everything else a PDF path.
func DetectSource(input string) SourceType {
	in := strings.ToLower(strings.TrimSpace(input))
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		return SourceURL
	}
	return SourcePDF
}

func wordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}

func titleFromText(text string, maxLen int) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx > 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if len(line) > maxLen {
		line = line[:maxLen] + "..."
	}
	if line == "" {
		return "Untitled"
	}
	return line
}

func validatePDFPath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%s is not a .pdf file", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}
