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

// setupTestHome points HOME at a temp dir and returns the docent config dir
// inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(apiKeyEnv, "")
	dir := filepath.Join(home, ".config", "docent")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_YAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, `
server:
  port: 9191
model:
  name: claude-3-haiku-20240307
  temperature: 0.2
  api_key: sk-ant-file
  timeout: 5s
cache:
  max_size: 10
  ttl: 2m
retry:
  max_attempts: 5
  retryable_status_codes: [500, 503]
ratelimit:
  rps: 2.5
  burst: 3
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.Model.Name)
	assert.Equal(t, 0.2, cfg.Model.Temperature)
	assert.Equal(t, "sk-ant-file", cfg.Model.APIKey.Value())
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout.Duration())
	assert.Equal(t, 10, cfg.Cache.MaxSize)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL.Duration())
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, []int{500, 503}, cfg.Retry.RetryableStatusCodes)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, 3, cfg.RateLimit.Burst)

	// untouched keys keep their defaults
	assert.Equal(t, 2000, cfg.Model.MaxTokens)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SweepInterval.Duration())
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay.Duration())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := setupTestHome(t)
	t.Setenv("DOCENT_MODEL_API_KEY", "sk-ant-env")

	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)

	want := Default()
	want.Model.APIKey = "sk-ant-env"
	assert.Equal(t, want, cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "model:\n  api_key: from-file\n  max_tokens: 100\n", 0600)

	t.Setenv("DOCENT_MODEL_MAX_TOKENS", "512")
	t.Setenv("DOCENT_CACHE_TTL", "90s")
	t.Setenv("DOCENT_RATELIMIT_RPS", "4")
	t.Setenv("DOCENT_RETRY_RETRYABLE_STATUS_CODES", "502,503")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Model.APIKey.Value())
	assert.Equal(t, 512, cfg.Model.MaxTokens)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Duration())
	assert.Equal(t, 4.0, cfg.RateLimit.RPS)
	assert.Equal(t, []int{502, 503}, cfg.Retry.RetryableStatusCodes)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	dir := setupTestHome(t)
	t.Setenv(apiKeyEnv, "sk-ant-fallback")

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-fallback", cfg.Model.APIKey.Value())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		dir := setupTestHome(t)
		_, err := Load(filepath.Join(dir, "config.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model.api_key is required")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := setupTestHome(t)
		path := writeConfig(t, dir, "model: [unclosed\n", 0600)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("path outside allowed dirs", func(t *testing.T) {
		setupTestHome(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config path validation failed")
	})

	t.Run("sibling dir with shared prefix", func(t *testing.T) {
		dir := setupTestHome(t)
		_, err := Load(dir + "-evil/config.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config path validation failed")
	})

	t.Run("world readable file", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission model differs on windows")
		}
		dir := setupTestHome(t)
		path := writeConfig(t, dir, "model:\n  api_key: x\n", 0644)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insecure config file permissions")
	})

	t.Run("oversized file", func(t *testing.T) {
		dir := setupTestHome(t)
		content := "# " + strings.Repeat("x", maxConfigFileSize) + "\n"
		path := writeConfig(t, dir, content, 0600)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"DOCENT_MODEL_API_KEY":                "model.api_key",
		"DOCENT_CACHE_SWEEP_INTERVAL":         "cache.sweep_interval",
		"DOCENT_RATELIMIT_BURST":              "ratelimit.burst",
		"DOCENT_TELEMETRY_SERVICE_NAME":       "telemetry.service_name",
		"DOCENT_RETRY_RETRYABLE_STATUS_CODES": "retry.retryable_status_codes",
		"DOCENT_STANDALONE":                   "standalone",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureConfigDir())

	info, err := os.Stat(filepath.Join(home, ".config", "docent"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
