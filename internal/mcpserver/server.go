package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

const instructions = "Use summarize_pdf or summarize_url to get a concise summary of a document. " +
	"Use extract_content when only the plain text is needed."

// Config holds server configuration.
type Config struct {
	Version string
	// HTTPAddr selects the streamable HTTP transport when set; otherwise the
	// server speaks MCP over stdio.
	HTTPAddr string
}

// Server exposes the summarization pipeline as MCP tools.
type Server struct {
	cfg Config
	mcp *server.MCPServer
	log *slog.Logger
}

func New(cfg Config, engine Renderer, logger *slog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	h := NewHandlers(engine, logger)

	s := server.NewMCPServer("summarizer", cfg.Version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	byName := map[string]server.ToolHandlerFunc{
		"summarize_pdf":   h.HandleSummarizePDF,
		"summarize_url":   h.HandleSummarizeURL,
		"extract_content": h.HandleExtractContent,
	}
	var tools []server.ServerTool
	for _, def := range ToolDefs() {
		tools = append(tools, server.ServerTool{Tool: def, Handler: byName[def.Name]})
	}
	s.AddTools(tools...)

	return &Server{cfg: cfg, mcp: s, log: logger.With("component", "mcp")}
}

// Serve runs the configured transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.cfg.HTTPAddr == "" {
		s.log.Info("serving", "transport", "stdio")
		return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	}

	httpServer := server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown", "error", err)
		}
	}()

	s.log.Info("serving", "transport", "http", "addr", s.cfg.HTTPAddr)
	err := httpServer.Start(s.cfg.HTTPAddr)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	close(done)
	<-stopped
	return err
}
