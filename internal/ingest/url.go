package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// FetchTimeout bounds the single GET issued per web extraction.
const FetchTimeout = 10 * time.Second

type URLIngester struct {
	client *http.Client
	log    *slog.Logger
}

func NewURLIngester(logger *slog.Logger) *URLIngester {
	return NewURLIngesterWithClient(&http.Client{Timeout: FetchTimeout}, logger)
}

// NewURLIngesterWithClient uses client for the fetch instead of the default
// 10-second client.
func NewURLIngesterWithClient(client *http.Client, logger *slog.Logger) *URLIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &URLIngester{client: client, log: logger}
}

// Ingest fetches source and returns the text of every <p> element in document
// order, joined by single spaces. Only transport errors count as failure; an
// error status still has its body parsed.
func (u *URLIngester) Ingest(ctx context.Context, source string) Result {
	parsed, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return failed(fmt.Errorf("invalid URL %s: %w", source, err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return failed(fmt.Errorf("invalid URL %s: scheme must be http or https", source))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return failed(fmt.Errorf("create request: %w", err))
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return failed(fmt.Errorf("could not fetch URL %s: %w", source, err))
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			u.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"source", source)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		u.log.WarnContext(ctx, "Page returned non-2xx status, parsing body anyway",
			"source", source,
			"status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxInputSize))
	if err != nil {
		return failed(fmt.Errorf("could not read response from %s: %w", source, err))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Errorf("could not parse HTML from %s: %w", source, err))
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		paragraphs = append(paragraphs, s.Text())
	})

	text := strings.TrimSpace(strings.Join(paragraphs, " "))
	if text == "" {
		u.log.InfoContext(ctx, "Page has no paragraph text",
			"source", source,
			"paragraphs", len(paragraphs))
		return empty(source)
	}

	return succeeded(&Content{
		Text:      text,
		Title:     pageTitle(body, parsed, doc, text),
		Source:    source,
		WordCount: wordCount(text),
	})
}

// pageTitle prefers the readability article title, then <title>, then the
// first line of the extracted text.
func pageTitle(body []byte, pageURL *url.URL, doc *goquery.Document, text string) string {
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		if title := strings.TrimSpace(article.Title); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return titleFromText(text, 80)
}
