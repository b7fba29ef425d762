package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apresai/summarizer/internal/ingest"
	"github.com/apresai/summarizer/internal/pipeline"
	"github.com/apresai/summarizer/internal/progress"
)

// result is the --json output shape.
type result struct {
	Title   string `json:"title,omitempty"`
	Source  string `json:"source"`
	Words   int    `json:"words"`
	Pages   int    `json:"pages,omitempty"`
	Text    string `json:"text,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	var r *progress.StepRenderer
	var cb progress.Callback
	if !flagVerbose && !flagJSON {
		r = progress.NewStepRenderer(os.Stderr)
		cb = r.Handle
	}
	engine := newEngine(cb)

	s, err := extractFromFlags(cmd.Context(), engine, cmd.InOrStdin(), args)
	if err == nil {
		s = engine.Render(cmd.Context(), s, pipeline.Summarize{})
		if s.Err != nil {
			err = s.Err
		}
	}
	if r != nil {
		r.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(out, result{
			Title:   s.Content.Title,
			Source:  s.Source,
			Words:   s.Content.WordCount,
			Pages:   s.Content.Pages,
			Summary: s.Summary,
		})
	}
	fmt.Fprintf(out, "\nSummary\n%s\n\n%s\n", strings.Repeat("─", 7), s.Summary)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	s, err := extractFromFlags(cmd.Context(), newEngine(nil), cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(out, result{
			Title:  s.Content.Title,
			Source: s.Source,
			Words:  s.Content.WordCount,
			Pages:  s.Content.Pages,
			Text:   s.Content.Text,
		})
	}
	fmt.Fprintln(out, s.Content.Text)
	return nil
}

// extractFromFlags drives the engine through mode selection and extraction
// for --pdf, --url or a single positional input whose kind is detected from
// its scheme. "--pdf -" reads the whole document from stdin.
func extractFromFlags(ctx context.Context, engine *pipeline.Engine, stdin io.Reader, args []string) (pipeline.State, error) {
	var s pipeline.State
	pdfPath, pageURL := flagPDF, flagURL
	if len(args) == 1 {
		if pdfPath != "" || pageURL != "" {
			return s, fmt.Errorf("pass the input as an argument or with --pdf/--url, not both")
		}
		switch ingest.DetectSource(args[0]) {
		case ingest.SourceURL:
			pageURL = args[0]
		default:
			pdfPath = args[0]
		}
	}

	switch {
	case pdfPath == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return s, fmt.Errorf("read stdin: %w", err)
		}
		s = engine.Render(ctx, s, pipeline.SelectMode{Mode: pipeline.ModePDF})
		s = engine.Render(ctx, s, pipeline.UploadPDF{Name: "stdin", File: bytes.NewReader(data), Size: int64(len(data))})
	case pdfPath != "":
		s = engine.Render(ctx, s, pipeline.SelectMode{Mode: pipeline.ModePDF})
		s = engine.Render(ctx, s, pipeline.SubmitPath{Path: pdfPath})
	default:
		s = engine.Render(ctx, s, pipeline.SelectMode{Mode: pipeline.ModeURL})
		s = engine.Render(ctx, s, pipeline.SubmitURL{URL: pageURL})
	}
	if s.Err != nil {
		return s, s.Err
	}
	if !s.HasContent() {
		return s, fmt.Errorf("no input given: pass a PDF path or URL, or use --pdf or --url")
	}
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
