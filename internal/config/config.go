// Package config loads kbsync configuration from defaults, an optional YAML
// file and environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete kbsync configuration.
type Config struct {
	GitHub        GitHubConfig        `koanf:"github"`
	Summarizer    SummarizerConfig    `koanf:"summarizer"`
	Slack         SlackConfig         `koanf:"slack"`
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
	Scrub         ScrubConfig         `koanf:"scrub"`
}

// GitHubConfig holds the knowledge-base repository settings.
type GitHubConfig struct {
	Token        Secret        `koanf:"token"`
	RepoOwner    string        `koanf:"repo_owner"`
	RepoName     string        `koanf:"repo_name"`
	BranchPrefix string        `koanf:"branch_prefix"`
	Directory    string        `koanf:"directory"`
	BaseURL      string        `koanf:"base_url"` // GitHub Enterprise API URL, empty for github.com
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	Timeout      time.Duration `koanf:"timeout"`
}

// SummarizerConfig holds the thread summarizer settings.
type SummarizerConfig struct {
	Provider string        `koanf:"provider"`
	APIKey   Secret        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

// SlackConfig identifies the workspace threads come from.
type SlackConfig struct {
	WorkspaceName string        `koanf:"workspace_name"` // Subdomain used for message permalinks
	WorkspaceID   string        `koanf:"workspace_id"`   // Team ID used for app_redirect source links
	ReplyTimeout  time.Duration `koanf:"reply_timeout"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"` // Requests per second per client IP
	RateBurst       int           `koanf:"rate_burst"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"` // grpc or http
	Insecure        bool    `koanf:"insecure"`
	SampleRate      float64 `koanf:"sample_rate"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ScrubConfig controls secret scrubbing of generated summaries.
type ScrubConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BranchPrefix: "kb/add-",
			Directory:    "knowledge-base",
			MaxRetries:   3,
			RetryBackoff: time.Second,
			Timeout:      30 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash-exp",
			Timeout:  60 * time.Second,
		},
		Slack: SlackConfig{
			ReplyTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       1,
			RateBurst:       10,
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: false,
			ServiceName:     "kbsync",
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			SampleRate:      1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scrub: ScrubConfig{
			Enabled: true,
		},
	}
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("rate limit must be positive with burst >= 1, got %v/%d", c.Server.RateLimit, c.Server.RateBurst)
	}
	if c.GitHub.Directory == "" {
		return errors.New("github directory cannot be empty")
	}
	if c.GitHub.MaxRetries < 0 {
		return fmt.Errorf("github max_retries must be >= 0, got %d", c.GitHub.MaxRetries)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Observability.EnableTelemetry {
		if c.Observability.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
		if c.Observability.Protocol != "grpc" && c.Observability.Protocol != "http" {
			return fmt.Errorf("observability protocol must be 'grpc' or 'http', got %q", c.Observability.Protocol)
		}
		if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
			return fmt.Errorf("sample rate must be between 0 and 1, got %v", c.Observability.SampleRate)
		}
	}
	return nil
}

// ValidateGitHub checks the settings needed to reach the repository.
func (c *Config) ValidateGitHub() error {
	var errs []error
	if !c.GitHub.Token.IsSet() {
		errs = append(errs, errors.New("github token is required (KBSYNC_GITHUB_TOKEN or GITHUB_TOKEN)"))
	}
	if c.GitHub.RepoOwner == "" {
		errs = append(errs, errors.New("github repo_owner is required (KBSYNC_GITHUB_REPO_OWNER or KB_REPO_OWNER)"))
	}
	if c.GitHub.RepoName == "" {
		errs = append(errs, errors.New("github repo_name is required (KBSYNC_GITHUB_REPO_NAME or KB_REPO_NAME)"))
	}
	return errors.Join(errs...)
}

// ValidateSummarizer checks the settings needed to generate summaries.
func (c *Config) ValidateSummarizer() error {
	if c.Summarizer.Provider != "gemini" {
		return fmt.Errorf("unsupported summarizer provider %q", c.Summarizer.Provider)
	}
	if !c.Summarizer.APIKey.IsSet() {
		return errors.New("summarizer api_key is required (KBSYNC_SUMMARIZER_API_KEY or GEMINI_API_KEY)")
	}
	return nil
}
