package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docent/internal/config"
	"github.com/fyrsmithlabs/docent/internal/conversation"
	apihttp "github.com/fyrsmithlabs/docent/internal/http"
	"github.com/fyrsmithlabs/docent/internal/llm"
	"github.com/fyrsmithlabs/docent/internal/logging"
	"github.com/fyrsmithlabs/docent/internal/telemetry"
)

var (
	configPath string
	envFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docent HTTP API",
	Long: `Start the HTTP API.

Settings come from the YAML file given by --config (default
~/.config/docent/config.yaml), overridden by DOCENT_* environment
variables. Variables in --env-file are loaded first and never replace
ones already set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading config")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	lc, err := loggingConfig(cfg)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(lc)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, telemetryConfig(cfg), zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	client, err := llm.NewClient(clientConfig(cfg), zl.Named("llm"))
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	client.Start()
	defer client.Close()

	store := conversation.NewStore()
	svc, err := conversation.NewService(client, store, zl.Named("conversation"))
	if err != nil {
		return err
	}

	server, err := apihttp.NewServer(svc, zl.Named("http"),
		&apihttp.Config{Host: cfg.Server.Host, Port: cfg.Server.Port, Version: version},
		apihttp.WithMeter(tel.Meter("github.com/fyrsmithlabs/docent/internal/http")),
		apihttp.WithCounts(func() apihttp.StatusCounts {
			return apihttp.StatusCounts{
				Conversations:   store.Len(),
				CachedResponses: client.Cache().Len(),
			}
		}),
	)
	if err != nil {
		return err
	}

	logger.Info(ctx, "docent starting",
		zap.String("version", version),
		zap.String("model", cfg.Model.Name),
		logging.Secret("api_key", cfg.Model.APIKey),
		zap.Bool("telemetry", tel.IsEnabled()))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info(context.Background(), "docent stopped")
	return nil
}

// loadEnvFile loads a dotenv file. A missing file is only an error when the
// path was given explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

func clientConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
		APIKey:      cfg.Model.APIKey.Value(),
		BaseURL:     cfg.Model.BaseURL,
		Timeout:     cfg.Model.Timeout.Duration(),
		Cache: llm.CacheConfig{
			MaxSize:       cfg.Cache.MaxSize,
			TTL:           cfg.Cache.TTL.Duration(),
			SweepInterval: cfg.Cache.SweepInterval.Duration(),
		},
		Retry: llm.RetryPolicy{
			MaxAttempts:          cfg.Retry.MaxAttempts,
			InitialDelay:         cfg.Retry.InitialDelay.Duration(),
			MaxDelay:             cfg.Retry.MaxDelay.Duration(),
			BackoffFactor:        cfg.Retry.BackoffFactor,
			RetryableStatusCodes: cfg.Retry.RetryableStatusCodes,
		},
		RateLimit: llm.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
	}
}

func loggingConfig(cfg *config.Config) (*logging.Config, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
	}
	lc := logging.NewDefaultConfig()
	lc.Level = level
	lc.Format = cfg.Logging.Format
	return lc, nil
}

func telemetryConfig(cfg *config.Config) *telemetry.Config {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Protocol = cfg.Telemetry.Protocol
	tc.Insecure = cfg.Telemetry.Insecure
	tc.ServiceName = cfg.Telemetry.ServiceName
	tc.ServiceVersion = version
	tc.Sampling.Rate = cfg.Telemetry.SamplingRate
	return tc
}
