package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/summarizer/internal/ingest"
	"github.com/apresai/summarizer/internal/observability"
	"github.com/apresai/summarizer/internal/progress"
	"github.com/apresai/summarizer/internal/summarize"
)

var tracer = otel.Tracer("summarizer-pipeline")

// Phase is where a session stands between input and summary.
type Phase int

const (
	NoInput Phase = iota
	InputSelected
	ContentExtracted
	ExtractionFailed
	Summarizing
	SummaryDisplayed
	SummarizationFailed
)

func (p Phase) String() string {
	switch p {
	case NoInput:
		return "no_input"
	case InputSelected:
		return "input_selected"
	case ContentExtracted:
		return "content_extracted"
	case ExtractionFailed:
		return "extraction_failed"
	case Summarizing:
		return "summarizing"
	case SummaryDisplayed:
		return "summary_displayed"
	case SummarizationFailed:
		return "summarization_failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Mode is the input kind the user chose. PDF and URL are mutually exclusive.
type Mode int

const (
	ModeNone Mode = iota
	ModePDF
	ModeURL
)

func (m Mode) String() string {
	switch m {
	case ModePDF:
		return "PDF File"
	case ModeURL:
		return "Web URL"
	default:
		return "none"
	}
}

// State is everything a session knows. The host keeps it and feeds it back
// into Render with the next event.
type State struct {
	Phase   Phase
	Mode    Mode
	Source  string
	Content *ingest.Content
	Summary string
	Err     *PipelineError
}

// HasContent reports whether extracted text is available to summarize.
func (s State) HasContent() bool {
	return s.Content != nil && s.Content.Text != ""
}

// Event is a user action.
type Event interface {
	event()
}

type SelectMode struct{ Mode Mode }

// SubmitPath submits a PDF by filesystem path.
type SubmitPath struct{ Path string }

// UploadPDF submits an already-open PDF handle.
type UploadPDF struct {
	Name string
	File io.ReaderAt
	Size int64
}

type SubmitURL struct{ URL string }

type Summarize struct{}

type Reset struct{}

func (SelectMode) event() {}
func (SubmitPath) event() {}
func (UploadPDF) event()  {}
func (SubmitURL) event()  {}
func (Summarize) event()  {}
func (Reset) event()      {}

// SummarizerFactory builds a summarizer for one summarization. It is called
// only when a credential is present.
type SummarizerFactory func(ctx context.Context, credential string) (summarize.Summarizer, error)

// Options wires an Engine.
type Options struct {
	PDF ingest.DocumentIngester
	Web ingest.Ingester

	NewSummarizer SummarizerFactory
	// Credential is sourced once at startup and never changes.
	Credential string
	// CredentialEnv names the variable the credential comes from, for messages.
	CredentialEnv string

	Progress progress.Callback
	Logger   *slog.Logger
}

// Engine runs extraction and summarization for a host. It holds no session
// data; everything lives in State.
type Engine struct {
	pdf           ingest.DocumentIngester
	web           ingest.Ingester
	newSummarizer SummarizerFactory
	credential    string
	credentialEnv string
	progress      progress.Callback
	log           *slog.Logger
}

func New(opts Options) *Engine {
	e := &Engine{
		pdf:           opts.PDF,
		web:           opts.Web,
		newSummarizer: opts.NewSummarizer,
		credential:    opts.Credential,
		credentialEnv: opts.CredentialEnv,
		progress:      opts.Progress,
		log:           opts.Logger,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.progress == nil {
		e.progress = progress.NopCallback
	}
	if e.pdf == nil {
		e.pdf = ingest.NewPDFIngester(e.log)
	}
	if e.web == nil {
		e.web = ingest.NewURLIngester(e.log)
	}
	return e
}

// Render applies ev to s and returns the next state. Extraction and
// summarization run synchronously inside Render; re-rendering an unchanged
// selection is a no-op.
func (e *Engine) Render(ctx context.Context, s State, ev Event) State {
	switch ev := ev.(type) {
	case SelectMode:
		return selectMode(s, ev.Mode)
	case SubmitPath:
		path := strings.TrimSpace(ev.Path)
		if path == "" {
			return blankInput(s)
		}
		if s.Mode != ModePDF {
			return wrongMode(s, ModePDF)
		}
		return e.extract(ctx, s.Mode, path, func(ctx context.Context) ingest.Result {
			return e.pdf.Ingest(ctx, path)
		})
	case UploadPDF:
		if ev.File == nil {
			return blankInput(s)
		}
		if s.Mode != ModePDF {
			return wrongMode(s, ModePDF)
		}
		return e.extract(ctx, s.Mode, ev.Name, func(ctx context.Context) ingest.Result {
			return e.pdf.IngestDocument(ctx, ev.Name, ev.File, ev.Size)
		})
	case SubmitURL:
		url := strings.TrimSpace(ev.URL)
		if url == "" {
			return blankInput(s)
		}
		if s.Mode != ModeURL {
			return wrongMode(s, ModeURL)
		}
		return e.extract(ctx, s.Mode, url, func(ctx context.Context) ingest.Result {
			return e.web.Ingest(ctx, url)
		})
	case Summarize:
		return e.summarize(ctx, s)
	case Reset:
		return State{}
	default:
		return s
	}
}

// MarkSummarizing moves a state holding content into Summarizing so a host
// can show its indicator before calling Render with Summarize.
func MarkSummarizing(s State) State {
	if !s.HasContent() {
		return s
	}
	s.Phase = Summarizing
	s.Summary = ""
	s.Err = nil
	return s
}

func selectMode(s State, m Mode) State {
	if m == ModeNone {
		return State{}
	}
	if s.Mode == m && s.Phase != NoInput {
		return s
	}
	return State{Phase: InputSelected, Mode: m}
}

// blankInput clears any previous content. Without a selected mode the state
// stays at NoInput.
func blankInput(s State) State {
	if s.Mode == ModeNone {
		return State{}
	}
	return State{Phase: InputSelected, Mode: s.Mode}
}

func wrongMode(s State, want Mode) State {
	s.Err = &PipelineError{
		Stage:   "input",
		Kind:    ErrInvalidInput,
		Message: fmt.Sprintf(msgWrongMode, want),
	}
	return s
}

func (e *Engine) extract(ctx context.Context, mode Mode, source string, run func(context.Context) ingest.Result) State {
	ctx = observability.WithRunID(ctx)
	ctx, span := tracer.Start(ctx, "pipeline.extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("mode", mode.String()),
		attribute.String("source", source),
	)

	start := time.Now()
	msg := "Extracting text from PDF..."
	if mode == ModeURL {
		msg = "Fetching content from URL..."
	}
	ev := progress.NewEvent(progress.StageExtract, msg, 0, start)
	ev.Source = source
	e.progress(ev)

	res := run(ctx)
	next := State{Mode: mode, Source: source}

	switch {
	case res.OK():
		next.Phase = ContentExtracted
		next.Content = res.Content
		span.SetAttributes(attribute.Int("words", res.Content.WordCount))
		span.SetStatus(codes.Ok, "extracted")
		e.log.InfoContext(ctx, "content extracted",
			"source", source,
			"words", res.Content.WordCount,
			"pages", res.Content.Pages,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		done := progress.NewEvent(progress.StageExtract, "Content extracted", 1, start)
		done.Source = source
		done.Words = res.Content.WordCount
		e.progress(done)
	case res.Status == ingest.StatusEmpty:
		next.Phase = ExtractionFailed
		next.Err = &PipelineError{Stage: "extract", Kind: ErrEmptyContent, Message: msgPDFEmpty, Err: res.Err}
		if mode == ModeURL {
			next.Err.Message = msgURLEmpty
		}
		span.SetStatus(codes.Error, "empty content")
		e.log.WarnContext(ctx, "no text extracted", "source", source)
		e.fail(progress.StageExtract, next.Err, start)
	default:
		next.Phase = ExtractionFailed
		next.Err = &PipelineError{Stage: "extract", Kind: ErrExtraction, Message: msgPDFFailed, Err: res.Err}
		if mode == ModeURL {
			next.Err.Message = msgURLFailed
		}
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "extraction failed")
		e.log.ErrorContext(ctx, "extraction failed", "source", source, "error", res.Err)
		e.fail(progress.StageExtract, next.Err, start)
	}
	return next
}

func (e *Engine) summarize(ctx context.Context, s State) State {
	if !s.HasContent() {
		s.Err = &PipelineError{Stage: "summarize", Kind: ErrNoContent, Message: msgNoContent}
		return s
	}

	ctx = observability.WithRunID(ctx)
	ctx, span := tracer.Start(ctx, "pipeline.summarize")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", s.Source),
		attribute.Int("words", s.Content.WordCount),
	)

	s.Summary = ""
	s.Err = nil
	start := time.Now()

	if e.credential == "" {
		s.Phase = SummarizationFailed
		s.Err = missingCredential(e.credentialEnv)
		span.SetStatus(codes.Error, "missing credential")
		e.log.WarnContext(ctx, "summarization skipped", "reason", "missing credential", "env", e.credentialEnv)
		e.fail(progress.StageSummarize, s.Err, start)
		return s
	}

	e.progress(progress.NewEvent(progress.StageSummarize, "Summarizing...", 0, start))

	summary, err := e.runSummarizer(ctx, s.Content.Text)
	if err != nil {
		s.Phase = SummarizationFailed
		s.Err = summarizationFailed(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "summarization failed")
		e.log.ErrorContext(ctx, "summarization failed", "source", s.Source, "error", err)
		e.fail(progress.StageSummarize, s.Err, start)
		return s
	}

	s.Phase = SummaryDisplayed
	s.Summary = summary
	span.SetStatus(codes.Ok, "summarized")
	e.log.InfoContext(ctx, "summary generated",
		"source", s.Source,
		"summary_chars", len(summary),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	done := progress.NewEvent(progress.StageComplete, "Summary ready", 1, start)
	done.Source = s.Source
	done.Words = s.Content.WordCount
	e.progress(done)
	return s
}

func (e *Engine) runSummarizer(ctx context.Context, text string) (string, error) {
	if e.newSummarizer == nil {
		return "", fmt.Errorf("no summarizer configured")
	}
	sum, err := e.newSummarizer(ctx, e.credential)
	if err != nil {
		return "", err
	}
	return sum.Summarize(ctx, text)
}

func (e *Engine) fail(stage progress.Stage, perr *PipelineError, start time.Time) {
	ev := progress.NewEvent(stage, perr.Message, 0, start)
	ev.Error = perr
	e.progress(ev)
}
