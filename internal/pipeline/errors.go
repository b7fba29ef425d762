package pipeline

import (
	"errors"
	"fmt"

	"github.com/apresai/summarizer/internal/summarize"
)

// Error kinds. A PipelineError matches its kind with errors.Is.
var (
	ErrExtraction        = errors.New("extraction failed")
	ErrEmptyContent      = errors.New("no extractable text")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoContent         = errors.New("no content to summarize")
	ErrMissingCredential = summarize.ErrMissingCredential
	ErrSummarization     = errors.New("summarization failed")
)

// PipelineError is a failure the host shows to the user. Message is the
// user-facing text; Err is the underlying cause, if any.
type PipelineError struct {
	Stage   string
	Kind    error
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

const (
	msgPDFFailed      = "Could not extract text from the PDF. Please check the file."
	msgURLFailed      = "Could not fetch or extract content from the URL."
	msgPDFEmpty       = "The PDF has no extractable text (it may be scanned or image-based)."
	msgURLEmpty       = "The page has no paragraph text to summarize."
	msgNoContent      = "Nothing to summarize yet. Provide a PDF file or a web URL first."
	msgWrongMode      = "Choose %s before submitting this input."
	msgMissingCredFmt = "%s not found. Please set it in your .env file."
)

func missingCredential(env string) *PipelineError {
	if env == "" {
		env = "API key"
	}
	return &PipelineError{
		Stage:   "summarize",
		Kind:    ErrMissingCredential,
		Message: fmt.Sprintf(msgMissingCredFmt, env),
	}
}

func summarizationFailed(err error) *PipelineError {
	return &PipelineError{
		Stage:   "summarize",
		Kind:    ErrSummarization,
		Message: fmt.Sprintf("Summarization failed: %v", err),
		Err:     err,
	}
}
