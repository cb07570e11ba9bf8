package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/docent/internal/config"
)

func TestClientConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Model.APIKey = "sk-ant-test"
	cfg.Retry.RetryableStatusCodes = []int{503}
	cfg.RateLimit = config.RateLimitConfig{RPS: 2, Burst: 4}

	got := clientConfig(cfg)

	assert.Equal(t, "claude-3-5-sonnet-20241022", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.Equal(t, "sk-ant-test", got.APIKey)
	assert.Equal(t, 30*time.Second, got.Timeout)
	assert.Equal(t, 1000, got.Cache.MaxSize)
	assert.Equal(t, time.Hour, got.Cache.TTL)
	assert.Equal(t, 3, got.Retry.MaxAttempts)
	assert.Equal(t, time.Second, got.Retry.InitialDelay)
	assert.Equal(t, []int{503}, got.Retry.RetryableStatusCodes)
	assert.Equal(t, 2.0, got.RateLimit.RPS)
	assert.Equal(t, 4, got.RateLimit.Burst)
}

func TestLoggingConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "trace"
	cfg.Logging.Format = "console"

	lc, err := loggingConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, zapcore.Level(-2), lc.Level)
	assert.Equal(t, "console", lc.Format)

	cfg.Logging.Level = "shouty"
	_, err = loggingConfig(cfg)
	assert.Error(t, err)
}

func TestTelemetryConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.SamplingRate = 0.25

	tc := telemetryConfig(cfg)

	assert.True(t, tc.Enabled)
	assert.Equal(t, "docent", tc.ServiceName)
	assert.Equal(t, 0.25, tc.Sampling.Rate)
	assert.Equal(t, version, tc.ServiceVersion)
	assert.NoError(t, tc.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env"), false), "default path may be absent")
	assert.Error(t, loadEnvFile(filepath.Join(dir, "missing.env"), true))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCENT_TEST_FROM_FILE=file\nDOCENT_TEST_PRESET=file\n"), 0600))
	t.Setenv("DOCENT_TEST_PRESET", "env")
	t.Setenv("DOCENT_TEST_FROM_FILE", "")
	os.Unsetenv("DOCENT_TEST_FROM_FILE")

	require.NoError(t, loadEnvFile(path, true))
	assert.Equal(t, "file", os.Getenv("DOCENT_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("DOCENT_TEST_PRESET"), "existing variables win")
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"health", "--server", srv.URL})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Status: ok")
}
