package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Model.APIKey = "sk-ant-test"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Model.Name)
	assert.Equal(t, 0.7, cfg.Model.Temperature)
	assert.Equal(t, 2000, cfg.Model.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout.Duration())
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Duration())
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay.Duration())
	assert.Equal(t, []int{408, 429, 500, 502, 503, 504}, cfg.Retry.RetryableStatusCodes)
	assert.Zero(t, cfg.RateLimit.RPS)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"api key", func(c *Config) { c.Model.APIKey = "" }, "model.api_key"},
		{"temperature", func(c *Config) { c.Model.Temperature = 1.5 }, "model.temperature"},
		{"max tokens", func(c *Config) { c.Model.MaxTokens = 0 }, "model.max_tokens"},
		{"cache size", func(c *Config) { c.Cache.MaxSize = -1 }, "cache.max_size"},
		{"attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"backoff", func(c *Config) { c.Retry.BackoffFactor = 0.5 }, "retry.backoff_factor"},
		{"delays", func(c *Config) { c.Retry.MaxDelay = Duration(time.Millisecond) }, "retry.max_delay"},
		{"status code", func(c *Config) { c.Retry.RetryableStatusCodes = []int{42} }, "invalid status 42"},
		{"rps", func(c *Config) { c.RateLimit.RPS = -1 }, "ratelimit.rps"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"telemetry protocol", func(c *Config) { c.Telemetry.Protocol = "udp" }, "telemetry.protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2000, cfg.Model.MaxTokens)
	assert.Equal(t, "https://api.anthropic.com", cfg.Model.BaseURL)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, "docent", cfg.Telemetry.ServiceName)
	assert.Zero(t, cfg.Model.Temperature, "zero temperature is a valid setting")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	text, err := Duration(time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", string(text))
}

func TestSecret_NeverPrinted(t *testing.T) {
	s := Secret("sk-ant-api03-abc")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "sk-ant")
	assert.Equal(t, "sk-ant-api03-abc", s.Value())

	out, err := json.Marshal(struct{ Key Secret }{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Key":"[REDACTED]"}`, string(out))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}
