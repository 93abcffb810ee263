package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory and clears every variable Load
// reads so the developer's environment cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for name := range legacyEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return home
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "kb/add-", cfg.GitHub.BranchPrefix)
	assert.Equal(t, "knowledge-base", cfg.GitHub.Directory)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.Summarizer.Model)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Scrub.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
github:
  repo_owner: acme
  repo_name: handbook
  directory: docs/kb
  retry_backoff: 250ms
summarizer:
  model: gemini-1.5-pro
server:
  port: 9191
scrub:
  enabled: false
`, 0o600)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.GitHub.RepoOwner)
	assert.Equal(t, "handbook", cfg.GitHub.RepoName)
	assert.Equal(t, "docs/kb", cfg.GitHub.Directory)
	assert.Equal(t, 250*time.Millisecond, cfg.GitHub.RetryBackoff)
	assert.Equal(t, "kb/add-", cfg.GitHub.BranchPrefix, "absent keys keep defaults")
	assert.Equal(t, "gemini-1.5-pro", cfg.Summarizer.Model)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.False(t, cfg.Scrub.Enabled)
}

func TestLoad_DefaultPathIsOptional(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "kbsync")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	writeConfig(t, dir, "github:\n  repo_owner: from-home\n", 0o600)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-home", cfg.GitHub.RepoOwner)
}

func TestLoad_EnvPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "github:\n  repo_owner: file-owner\n  repo_name: file-repo\n", 0o600)

	t.Setenv("KB_REPO_OWNER", "legacy-owner")
	t.Setenv("KB_REPO_NAME", "legacy-repo")
	t.Setenv("KBSYNC_GITHUB_REPO_NAME", "env-repo")
	t.Setenv("GITHUB_TOKEN", "ghp_legacy")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("KBSYNC_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("KBSYNC_SERVER_PORT", "9000")
	t.Setenv("SLACK_WORKSPACE_NAME", "acme-eng")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy-owner", cfg.GitHub.RepoOwner, "legacy env beats file")
	assert.Equal(t, "env-repo", cfg.GitHub.RepoName, "prefixed env beats legacy env")
	assert.Equal(t, "ghp_legacy", cfg.GitHub.Token.Value())
	assert.Equal(t, "gemini-key", cfg.Summarizer.APIKey.Value())
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "acme-eng", cfg.Slack.WorkspaceName)
}

func TestLoad_Rejections(t *testing.T) {
	isolate(t)

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to open config file")
	})

	t.Run("world writable", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission model differs")
		}
		path := writeConfig(t, t.TempDir(), "server:\n  port: 1\n", 0o666)
		_, err := Load(path)
		assert.ErrorContains(t, err, "insecure config file permissions")
	})

	t.Run("too large", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "# "+strings.Repeat("x", maxConfigFileSize), 0o600)
		_, err := Load(path)
		assert.ErrorContains(t, err, "too large")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "not a regular file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "github: [unclosed", 0o600)
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "server:\n  port: 70000\n", 0o600)
		_, err := Load(path)
		assert.ErrorContains(t, err, "invalid server port")
	})
}
