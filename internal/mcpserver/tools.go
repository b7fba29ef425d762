package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/apresai/summarizer/internal/pipeline"
)

var tracer = otel.Tracer("summarizer-mcp")

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "summarize_pdf",
			Description: "Extract the text of a PDF and return a concise summary of it. Pass either a local file path or the base64-encoded PDF bytes.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Path to a .pdf file readable by the server",
					},
					"data": map[string]any{
						"type":        "string",
						"description": "Base64-encoded PDF content (alternative to path)",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "Display name for data uploads",
						"default":     "upload.pdf",
					},
				},
			},
		},
		{
			Name:        "summarize_url",
			Description: "Fetch a web page, extract the text of its paragraphs and return a concise summary of it.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "http or https URL of the page",
					},
				},
				Required: []string{"url"},
			},
		},
		{
			Name:        "extract_content",
			Description: "Extract plain text from a PDF path or a web page URL without summarizing it.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Path to a .pdf file readable by the server",
					},
					"url": map[string]any{
						"type":        "string",
						"description": "http or https URL of the page (alternative to path)",
					},
				},
			},
		},
	}
}

// Renderer is the pipeline engine surface the tools drive.
type Renderer interface {
	Render(ctx context.Context, s pipeline.State, ev pipeline.Event) pipeline.State
}

// Handlers contains tool handler implementations. Each call starts from an
// empty session state.
type Handlers struct {
	engine Renderer
	log    *slog.Logger
}

// NewHandlers creates tool handlers.
func NewHandlers(engine Renderer, logger *slog.Logger) *Handlers {
	return &Handlers{engine: engine, log: logger}
}

// HandleSummarizePDF extracts and summarizes a PDF.
func (h *Handlers) HandleSummarizePDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.summarize_pdf")
	defer span.End()

	ev, errMsg := pdfEvent(req)
	if errMsg != "" {
		span.SetStatus(codes.Error, "bad input")
		return mcp.NewToolResultError(errMsg), nil
	}

	s := h.engine.Render(ctx, pipeline.State{}, pipeline.SelectMode{Mode: pipeline.ModePDF})
	return h.extractAndSummarize(ctx, span, s, ev)
}

// HandleSummarizeURL fetches and summarizes a web page.
func (h *Handlers) HandleSummarizeURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.summarize_url")
	defer span.End()

	url := mcp.ParseString(req, "url", "")
	if url == "" {
		span.SetStatus(codes.Error, "missing url")
		return mcp.NewToolResultError("url is required"), nil
	}

	s := h.engine.Render(ctx, pipeline.State{}, pipeline.SelectMode{Mode: pipeline.ModeURL})
	return h.extractAndSummarize(ctx, span, s, pipeline.SubmitURL{URL: url})
}

// HandleExtractContent returns extracted text only.
func (h *Handlers) HandleExtractContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.extract_content")
	defer span.End()

	path := mcp.ParseString(req, "path", "")
	url := mcp.ParseString(req, "url", "")

	var s pipeline.State
	switch {
	case path != "" && url != "":
		span.SetStatus(codes.Error, "ambiguous input")
		return mcp.NewToolResultError("pass either path or url, not both"), nil
	case path != "":
		s = h.engine.Render(ctx, s, pipeline.SelectMode{Mode: pipeline.ModePDF})
		s = h.engine.Render(ctx, s, pipeline.SubmitPath{Path: path})
	case url != "":
		s = h.engine.Render(ctx, s, pipeline.SelectMode{Mode: pipeline.ModeURL})
		s = h.engine.Render(ctx, s, pipeline.SubmitURL{URL: url})
	default:
		span.SetStatus(codes.Error, "missing input")
		return mcp.NewToolResultError("either path or url is required"), nil
	}

	if res := h.failure(ctx, span, s); res != nil {
		return res, nil
	}

	c := s.Content
	span.SetAttributes(attribute.String("source", s.Source), attribute.Int("words", c.WordCount))
	span.SetStatus(codes.Ok, "extracted")
	h.log.InfoContext(ctx, "Content extracted via MCP", "source", s.Source, "words", c.WordCount)

	return jsonResult(map[string]any{
		"title":  c.Title,
		"source": s.Source,
		"words":  c.WordCount,
		"pages":  c.Pages,
		"text":   c.Text,
	})
}

func (h *Handlers) extractAndSummarize(ctx context.Context, span trace.Span, s pipeline.State, submit pipeline.Event) (*mcp.CallToolResult, error) {
	s = h.engine.Render(ctx, s, submit)
	if res := h.failure(ctx, span, s); res != nil {
		return res, nil
	}
	span.SetAttributes(attribute.String("source", s.Source), attribute.Int("words", s.Content.WordCount))

	s = h.engine.Render(ctx, s, pipeline.Summarize{})
	if res := h.failure(ctx, span, s); res != nil {
		return res, nil
	}

	span.SetStatus(codes.Ok, "summarized")
	h.log.InfoContext(ctx, "Summary generated via MCP", "source", s.Source, "words", s.Content.WordCount)

	result := map[string]any{
		"source":  s.Source,
		"words":   s.Content.WordCount,
		"summary": s.Summary,
	}
	if s.Content.Title != "" {
		result["title"] = s.Content.Title
	}
	if s.Content.Pages > 0 {
		result["pages"] = s.Content.Pages
	}
	return jsonResult(result)
}

// failure converts a failed pipeline state into a tool error result.
func (h *Handlers) failure(ctx context.Context, span trace.Span, s pipeline.State) *mcp.CallToolResult {
	if s.Err == nil {
		if s.Phase == pipeline.ContentExtracted || s.Phase == pipeline.SummaryDisplayed {
			return nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("unexpected state %s", s.Phase))
	}
	span.RecordError(s.Err)
	span.SetStatus(codes.Error, s.Err.Stage+" failed")
	h.log.WarnContext(ctx, "MCP tool failed", "stage", s.Err.Stage, "error", s.Err)
	return mcp.NewToolResultError(s.Err.Message)
}

// pdfEvent builds the submit event for summarize_pdf. A non-empty second
// return value is the error text for the caller.
func pdfEvent(req mcp.CallToolRequest) (pipeline.Event, string) {
	path := mcp.ParseString(req, "path", "")
	data := mcp.ParseString(req, "data", "")
	switch {
	case path != "" && data != "":
		return nil, "pass either path or data, not both"
	case path != "":
		return pipeline.SubmitPath{Path: path}, ""
	case data != "":
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Sprintf("data is not valid base64: %v", err)
		}
		if len(raw) == 0 {
			return nil, "data is empty"
		}
		return pipeline.UploadPDF{
			Name: mcp.ParseString(req, "name", "upload.pdf"),
			File: bytes.NewReader(raw),
			Size: int64(len(raw)),
		}, ""
	default:
		return nil, "either path or data is required"
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
