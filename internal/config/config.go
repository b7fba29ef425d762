package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Provider names accepted by SUMMARIZER_PROVIDER / --provider.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderNova   = "nova"
)

// DefaultEnvFile is loaded when no --env-file is given. Its absence is not an error.
const DefaultEnvFile = ".env"

type Config struct {
	Provider string `env:"SUMMARIZER_PROVIDER" envDefault:"gemini"`
	Model    string `env:"SUMMARIZER_MODEL"`

	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`

	AWSRegion          string `env:"AWS_REGION"                       envDefault:"us-east-1"`
	AWSProfile         string `env:"AWS_PROFILE"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionToken    string `env:"AWS_SESSION_TOKEN"`
	BedrockEndpoint    string `env:"AWS_ENDPOINT_URL_BEDROCK_RUNTIME"`

	LogLevel     string `env:"LOG_LEVEL"                   envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads envFile (if present) into the process environment without
// overriding variables that are already set, then parses Config from the
// environment. An empty envFile means DefaultEnvFile.
func Load(envFile string) (Config, error) {
	path := envFile
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		// Only an explicitly requested file has to exist.
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return cfg, nil
}

// Validate rejects configurations that cannot produce a summarizer.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderClaude, ProviderOpenAI, ProviderNova:
		return nil
	default:
		return fmt.Errorf("invalid provider %q: must be gemini, claude, openai, or nova", c.Provider)
	}
}

// Credential returns the API credential for the configured provider, or ""
// when it is not set. For nova the value only signals that AWS credentials
// are configured; signing is done by the AWS SDK.
func (c Config) Credential() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GoogleAPIKey
	case ProviderClaude:
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderNova:
		if c.AWSAccessKeyID != "" {
			return c.AWSAccessKeyID
		}
		return c.AWSProfile
	default:
		return ""
	}
}

// CredentialEnv names the environment variable that holds the credential
// for the configured provider, for user-facing messages.
func (c Config) CredentialEnv() string {
	switch c.Provider {
	case ProviderClaude:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderNova:
		return "AWS_ACCESS_KEY_ID or AWS_PROFILE"
	default:
		return "GOOGLE_API_KEY"
	}
}

// WithCredential returns a copy of c with the provider's API key replaced,
// used for the --api-key flag. Nova has no API key; AWS credentials come
// from the SDK default chain only.
func (c Config) WithCredential(key string) Config {
	if key == "" {
		return c
	}
	switch c.Provider {
	case ProviderGemini:
		c.GoogleAPIKey = key
	case ProviderClaude:
		c.AnthropicAPIKey = key
	case ProviderOpenAI:
		c.OpenAIAPIKey = key
	}
	return c
}
