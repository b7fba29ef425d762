package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apresai/summarizer/internal/config"
	"github.com/apresai/summarizer/internal/observability"
	"github.com/apresai/summarizer/internal/pipeline"
	"github.com/apresai/summarizer/internal/progress"
	"github.com/apresai/summarizer/internal/summarize"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:               "summarizer",
	Short:             "Summarize a PDF file or a web page",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "summarizer %s\n", Version)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [pdf-path|url]",
	Short: "Extract text from a PDF or web page and print its summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummarize,
}

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-path|url]",
	Short: "Extract text from a PDF or web page without summarizing it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExtract,
}

var (
	flagPDF      string
	flagURL      string
	flagJSON     bool
	flagProvider string
	flagModel    string
	flagAPIKey   string
	flagEnvFile  string
	flagVerbose  bool
	flagLogFile  string
)

// Process-wide state built once in setup.
var (
	cfg      config.Config
	logger   *slog.Logger
	logSink  io.Closer
	shutdown func(context.Context) error
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(mcpCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagProvider, "provider", "P", "", "Summarization provider: gemini, claude, openai, nova (default from SUMMARIZER_PROVIDER or gemini)")
	pf.StringVarP(&flagModel, "model", "m", "", "Model ID or alias (e.g. gemini-flash, haiku, sonnet, nova-lite)")
	pf.StringVar(&flagAPIKey, "api-key", "", "API key for the provider (overrides GOOGLE_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	pf.StringVar(&flagEnvFile, "env-file", "", "Environment file to load (default .env, optional)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flagLogFile, "log-file", "", "Write JSON logs to this file")

	for _, c := range []*cobra.Command{summarizeCmd, extractCmd} {
		c.Flags().StringVarP(&flagPDF, "pdf", "p", "", "Path to a PDF file (- reads the PDF from stdin)")
		c.Flags().StringVarP(&flagURL, "url", "u", "", "URL of a web page")
		c.Flags().BoolVar(&flagJSON, "json", false, "Print the result as JSON")
		c.MarkFlagsMutuallyExclusive("pdf", "url")
	}
}

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	teardown()
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(flagEnvFile)
	if err != nil {
		return err
	}
	if flagProvider != "" {
		c.Provider = strings.ToLower(strings.TrimSpace(flagProvider))
	}
	if flagModel != "" {
		c.Model = flagModel
	}
	c = c.WithCredential(flagAPIKey)
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	level := observability.ParseLevel(cfg.LogLevel)
	if flagVerbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if cmd == rootCmd {
		// The interactive screen owns the terminal.
		w = io.Discard
	}
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w, logSink = f, f
	}
	logger = observability.InitLogger(w, level)
	slog.SetDefault(logger)

	shutdown, err = observability.InitTracer(cmd.Context(), observability.TracerConfig{
		Endpoint: cfg.OTLPEndpoint,
		Version:  Version,
	})
	if err != nil {
		logger.Warn("tracing disabled", "endpoint", cfg.OTLPEndpoint, "error", err)
	}

	logger.Debug("configured",
		"command", cmd.Name(),
		"provider", cfg.Provider,
		"model", cfg.Model,
		"credential_set", cfg.Credential() != "",
	)
	return nil
}

func teardown() {
	if shutdown != nil {
		_ = shutdown(context.Background())
	}
	if logSink != nil {
		_ = logSink.Close()
	}
}

// newEngine wires the pipeline for the current configuration.
func newEngine(cb progress.Callback) *pipeline.Engine {
	c := cfg
	return pipeline.New(pipeline.Options{
		NewSummarizer: func(ctx context.Context, credential string) (summarize.Summarizer, error) {
			return summarize.New(ctx, summarize.Options{
				Provider:   c.Provider,
				Model:      c.Model,
				Credential: credential,
				AWS: summarize.NovaOptions{
					Region:          c.AWSRegion,
					Profile:         c.AWSProfile,
					AccessKeyID:     c.AWSAccessKeyID,
					SecretAccessKey: c.AWSSecretAccessKey,
					SessionToken:    c.AWSSessionToken,
					Endpoint:        c.BedrockEndpoint,
				},
			})
		},
		Credential:    c.Credential(),
		CredentialEnv: c.CredentialEnv(),
		Progress:      cb,
		Logger:        logger,
	})
}

func runInteractive(cmd *cobra.Command, args []string) error {
	return runTUI(cmd.Context(), newEngine(nil))
}
