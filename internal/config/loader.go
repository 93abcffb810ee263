package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every kbsync environment variable.
	EnvPrefix = "KBSYNC_"
)

// legacyEnv maps the environment variables of the GitHub Action and Lambda
// deployments to config keys. KBSYNC_ variables take precedence.
var legacyEnv = map[string]string{
	"GITHUB_TOKEN":         "github.token",
	"KB_REPO_OWNER":        "github.repo_owner",
	"KB_REPO_NAME":         "github.repo_name",
	"GITHUB_BRANCH_PREFIX": "github.branch_prefix",
	"GEMINI_API_KEY":       "summarizer.api_key",
	"GEMINI_MODEL":         "summarizer.model",
	"SLACK_WORKSPACE_NAME": "slack.workspace_name",
	"SLACK_WORKSPACE_ID":   "slack.workspace_id",
}

// Load builds the configuration.
//
// Precedence (highest to lowest):
//  1. KBSYNC_ environment variables (KBSYNC_GITHUB_REPO_OWNER -> github.repo_owner)
//  2. Legacy environment variables (GITHUB_TOKEN, KB_REPO_OWNER, GEMINI_API_KEY, ...)
//  3. YAML config file
//  4. Defaults
//
// An empty path loads ~/.config/kbsync/config.yaml when it exists. An
// explicit path must exist. Files larger than 1MB or writable by group or
// others are rejected.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	content, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}

	// Split on first underscore only (section.field_name pattern):
	//   KBSYNC_GITHUB_REPO_OWNER -> github.repo_owner
	//   KBSYNC_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		section, field, ok := strings.Cut(lower, "_")
		if !ok {
			return lower
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.config/kbsync/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kbsync", "config.yaml"), nil
}

// readConfigFile returns nil content when no file should be loaded.
func readConfigFile(path string) ([]byte, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	// Open once and validate the descriptor to avoid a TOCTOU race.
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: more than %d bytes", maxConfigFileSize)
	}
	return content, nil
}

// validateConfigFileProperties checks file type, permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("config path is not a regular file")
	}
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
