package cli

import (
	"github.com/spf13/cobra"

	"github.com/apresai/summarizer/internal/mcpserver"
)

var flagHTTP string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve summarize_pdf, summarize_url and extract_content as MCP tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcpserver.New(mcpserver.Config{
			Version:  Version,
			HTTPAddr: flagHTTP,
		}, newEngine(nil), logger)
		return srv.Serve(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().StringVar(&flagHTTP, "http", "", "Serve streamable HTTP on this address (e.g. :8000) instead of stdio")
}
