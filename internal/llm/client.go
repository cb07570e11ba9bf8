package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Model defaults.
const (
	DefaultModel       = "claude-3-5-sonnet-20241022"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Config configures a Client.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	APIKey      string
	BaseURL     string
	Timeout     time.Duration

	Cache     CacheConfig
	Retry     RetryPolicy
	RateLimit RateLimitConfig
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the clock used for cache expiry and error timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSleeper replaces how the client waits between retries.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithTracer replaces the tracer used for send spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// Client is the resilient model client: cached, retried, rate limited and
// validated calls to the messages endpoint.
type Client struct {
	cfg        Config
	logger     *zap.Logger
	httpClient *http.Client
	now        func() time.Time
	sleep      Sleeper
	tracer     trace.Tracer

	classifier *Classifier
	cache      *ResponseCache
	sender     Sender
}

// NewClient builds the middleware stack around a single HTTP transport.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("model API key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c.classifier = NewClassifier()
	c.classifier.now = c.now

	cache, err := NewResponseCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	cache.now = c.now
	c.cache = cache

	c.sender = Chain(
		newTransport(cfg.BaseURL, cfg.APIKey, c.httpClient, c.classifier),
		WithTracing(c.tracer),
		WithCache(cache),
		WithRetry(cfg.Retry, c.sleep, logger),
		WithRateLimit(cfg.RateLimit),
		WithInstrumentation(logger),
	)

	return c, nil
}

// Send asks the model to continue messages under an optional system prompt.
// Every returned error is an *Error.
func (c *Client) Send(ctx context.Context, messages []Message, system string) (*Response, error) {
	req := &Request{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
	}

	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		if _, ok := AsError(err); !ok {
			err = c.classifier.Classify(&Failure{Err: err})
		}
		return nil, err
	}
	return resp, nil
}

// Cache exposes the response cache.
func (c *Client) Cache() *ResponseCache {
	return c.cache
}

// Start runs background maintenance (the cache sweeper).
func (c *Client) Start() {
	c.cache.Start()
}

// Close stops background maintenance.
func (c *Client) Close() error {
	c.cache.Close()
	return nil
}
