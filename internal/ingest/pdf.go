package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFIngester struct {
	log *slog.Logger
}

func NewPDFIngester(logger *slog.Logger) *PDFIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFIngester{log: logger}
}

// Ingest opens the PDF at path and extracts its text.
func (p *PDFIngester) Ingest(ctx context.Context, path string) Result {
	if err := validatePDFPath(path); err != nil {
		return failed(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return failed(fmt.Errorf("could not open PDF %s: %w", path, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return failed(fmt.Errorf("could not stat PDF %s: %w", path, err))
	}

	return p.IngestDocument(ctx, filepath.Base(path), f, info.Size())
}

// IngestDocument extracts per-page text from an open PDF handle. Pages with no
// text are dropped; the rest are joined with newlines in page order.
func (p *PDFIngester) IngestDocument(ctx context.Context, name string, r io.ReaderAt, size int64) (res Result) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			res = failed(fmt.Errorf("could not read PDF %s: %v", name, rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return failed(fmt.Errorf("could not read PDF %s: %w", name, err))
	}

	numPages := reader.NumPage()
	var pages []string
	for i := 1; i <= numPages; i++ {
		if ctx.Err() != nil {
			return failed(ctx.Err())
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.log.DebugContext(ctx, "Skipping unreadable PDF page",
				"source", name,
				"page", i,
				"error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		p.log.InfoContext(ctx, "PDF has no extractable text",
			"source", name,
			"pages", numPages)
		return empty(name)
	}

	text := strings.Join(pages, "\n")
	return succeeded(&Content{
		Text:      text,
		Title:     titleFromText(text, 80),
		Source:    name,
		WordCount: wordCount(text),
		Pages:     len(pages),
	})
}
