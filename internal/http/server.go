// Package http serves the conversation API over echo.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docent/internal/conversation"
	"github.com/fyrsmithlabs/docent/internal/logging"
)

// Conversations is the orchestrator surface the API exposes.
// *conversation.Service implements it.
type Conversations interface {
	StartConversation(ctx context.Context, projectID string, phase conversation.Phase) (*conversation.State, error)
	ProcessMessage(ctx context.Context, projectID, content string) (*conversation.ChatMessage, error)
	Conversation(projectID string) (*conversation.State, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Option customizes a Server.
type Option func(*Server)

// WithMeter records request metrics on meter instead of the global provider.
func WithMeter(m metric.Meter) Option {
	return func(s *Server) { s.meter = m }
}

// WithCounts reports resource counts on the status endpoint.
func WithCounts(fn func() StatusCounts) Option {
	return func(s *Server) { s.counts = fn }
}

// Server provides the HTTP endpoints.
type Server struct {
	echo          *echo.Echo
	conversations Conversations
	logger        *zap.Logger
	config        *Config
	meter         metric.Meter
	counts        func() StatusCounts
}

// NewServer creates a server with routes and middleware registered.
func NewServer(conversations Conversations, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if conversations == nil {
		return nil, errors.New("conversations cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}

	s := &Server{
		conversations: conversations,
		logger:        logger,
		config:        cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(s.meter, logger).Middleware())
	e.Use(s.requestLogger)

	s.echo = e
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.POST("/conversations", s.handleStartConversation)
	v1.GET("/conversations/:projectId", s.handleGetConversation)
	v1.POST("/conversations/:projectId/messages", s.handleProcessMessage)
}

// requestLogger stores the request and project ids in the request context
// and logs each request once it has been rendered.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		req := c.Request()
		ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
		ctx = logging.WithProjectID(ctx, c.Param("projectId"))
		c.SetRequest(req.WithContext(ctx))

		if err := next(c); err != nil {
			c.Error(err)
		}

		fields := append(logging.ContextFields(ctx),
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		if c.Response().Status >= http.StatusInternalServerError {
			s.logger.Warn("http request", fields...)
		} else {
			s.logger.Info("http request", fields...)
		}
		return nil
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
