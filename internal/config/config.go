// Package config loads docent configuration from a YAML file and DOCENT_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete docent configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Model     ModelConfig     `koanf:"model"`
	Cache     CacheConfig     `koanf:"cache"`
	Retry     RetryConfig     `koanf:"retry"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ModelConfig configures the upstream model API.
type ModelConfig struct {
	Name        string   `koanf:"name"`
	Temperature float64  `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`
	APIKey      Secret   `koanf:"api_key"`
	BaseURL     string   `koanf:"base_url"`
	Timeout     Duration `koanf:"timeout"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	MaxSize       int      `koanf:"max_size"`
	TTL           Duration `koanf:"ttl"`
	SweepInterval Duration `koanf:"sweep_interval"`
}

// RetryConfig configures retries of upstream calls.
type RetryConfig struct {
	MaxAttempts          int      `koanf:"max_attempts"`
	InitialDelay         Duration `koanf:"initial_delay"`
	MaxDelay             Duration `koanf:"max_delay"`
	BackoffFactor        float64  `koanf:"backoff_factor"`
	RetryableStatusCodes []int    `koanf:"retryable_status_codes"`
}

// RateLimitConfig throttles upstream calls. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// LoggingConfig is the subset of logging settings exposed in the file.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig is the subset of OpenTelemetry settings exposed in the file.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"`
	Protocol     string  `koanf:"protocol"`
	Insecure     bool    `koanf:"insecure"`
	ServiceName  string  `koanf:"service_name"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Model: ModelConfig{
			Name:        "claude-3-5-sonnet-20241022",
			Temperature: 0.7,
			MaxTokens:   2000,
			BaseURL:     "https://api.anthropic.com",
			Timeout:     Duration(30 * time.Second),
		},
		Cache: CacheConfig{
			MaxSize:       1000,
			TTL:           Duration(time.Hour),
			SweepInterval: Duration(5 * time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts:          3,
			InitialDelay:         Duration(time.Second),
			MaxDelay:             Duration(10 * time.Second),
			BackoffFactor:        2,
			RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint:     "localhost:4317",
			Protocol:     "grpc",
			Insecure:     true,
			ServiceName:  "docent",
			SamplingRate: 1.0,
		},
	}
}

// applyDefaults fills values a file or env var explicitly zeroed out where
// zero is not meaningful.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = def.Model.Name
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = def.Model.MaxTokens
	}
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = def.Model.BaseURL
	}
	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = def.Model.Timeout
	}
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = def.Cache.MaxSize
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = def.Cache.TTL
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.BackoffFactor == 0 {
		cfg.Retry.BackoffFactor = def.Retry.BackoffFactor
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !c.Model.APIKey.IsSet() {
		errs = append(errs, errors.New("model.api_key is required"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		errs = append(errs, fmt.Errorf("model.temperature must be between 0 and 1, got %g", c.Model.Temperature))
	}
	if c.Model.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("model.max_tokens must be positive, got %d", c.Model.MaxTokens))
	}
	if c.Cache.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("cache.max_size must be positive, got %d", c.Cache.MaxSize))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BackoffFactor < 1 {
		errs = append(errs, fmt.Errorf("retry.backoff_factor must be >= 1, got %g", c.Retry.BackoffFactor))
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		errs = append(errs, errors.New("retry.max_delay must not be below retry.initial_delay"))
	}
	for _, code := range c.Retry.RetryableStatusCodes {
		if code < 100 || code > 599 {
			errs = append(errs, fmt.Errorf("retry.retryable_status_codes: invalid status %d", code))
		}
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, fmt.Errorf("ratelimit.rps must not be negative, got %g", c.RateLimit.RPS))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}
	if c.Telemetry.Protocol != "" && c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
		errs = append(errs, fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol))
	}

	return errors.Join(errs...)
}
