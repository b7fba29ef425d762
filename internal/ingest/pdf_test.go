package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"

	"github.com/apresai/summarizer/internal/ingest/ingesttest"
)

func ingestBytes(t *testing.T, data []byte) Result {
	t.Helper()
	return NewPDFIngester(nil).IngestDocument(context.Background(), "test.pdf", bytes.NewReader(data), int64(len(data)))
}

func TestPDFJoinsPagesInOrder(t *testing.T) {
	res := ingestBytes(t, ingesttest.BuildPDF("Hello world.", "Second page."))

	assert.Assert(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, res.Content.Text, "Hello world.\nSecond page.")
	assert.Equal(t, res.Content.Pages, 2)
	assert.Equal(t, res.Content.WordCount, 4)
	assert.Equal(t, res.Content.Title, "Hello world.")
	assert.Equal(t, res.Content.Source, "test.pdf")
}

func TestPDFSkipsPagesWithoutText(t *testing.T) {
	res := ingestBytes(t, ingesttest.BuildPDF("", "Only text here.", "", "Last."))

	assert.Assert(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, res.Content.Text, "Only text here.\nLast.")
	assert.Equal(t, res.Content.Pages, 2)
}

func TestPDFWithNoTextIsEmpty(t *testing.T) {
	res := ingestBytes(t, ingesttest.BuildPDF("", ""))

	assert.Assert(t, !res.OK())
	assert.Equal(t, res.Status, StatusEmpty)
	assert.Assert(t, res.Content == nil)
	assert.ErrorContains(t, res.Err, "no text found")
}

func TestPDFGarbageFails(t *testing.T) {
	res := ingestBytes(t, []byte("this is not a pdf at all"))

	assert.Assert(t, !res.OK())
	assert.Equal(t, res.Status, StatusFailed)
	assert.ErrorContains(t, res.Err, "could not read PDF test.pdf")
}

func TestPDFTruncatedFails(t *testing.T) {
	data := ingesttest.BuildPDF("Hello world.")
	res := ingestBytes(t, data[:len(data)/2])

	assert.Equal(t, res.Status, StatusFailed)
	assert.Assert(t, res.Err != nil)
}

func TestPDFIngestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Report.PDF")
	assert.NilError(t, os.WriteFile(path, ingesttest.BuildPDF("From disk."), 0o644))

	res := NewPDFIngester(nil).Ingest(context.Background(), path)
	assert.Assert(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, res.Content.Text, "From disk.")
	assert.Equal(t, res.Content.Source, "Report.PDF")
}

func TestPDFIngestRejectsBadPaths(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	assert.NilError(t, os.WriteFile(txt, []byte("hi"), 0o644))
	assert.NilError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	cases := map[string]string{
		txt:                               "not a .pdf file",
		filepath.Join(dir, "missing.pdf"): "cannot access",
		filepath.Join(dir, "folder.pdf"):  "is a directory",
	}
	for path, want := range cases {
		res := NewPDFIngester(nil).Ingest(context.Background(), path)
		assert.Equal(t, res.Status, StatusFailed, path)
		assert.ErrorContains(t, res.Err, want)
	}
}

func TestDetectSource(t *testing.T) {
	assert.Equal(t, DetectSource("https://example.com/a"), SourceURL)
	assert.Equal(t, DetectSource("http://example.com"), SourceURL)
	assert.Equal(t, DetectSource("  HTTPS://Example.com "), SourceURL)
	assert.Equal(t, DetectSource("docs/report.pdf"), SourcePDF)
	assert.Equal(t, DetectSource("http-notes.pdf"), SourcePDF)
}
