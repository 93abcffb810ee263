// Package http exposes reconciliation over an HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/reconcile"
	"github.com/fyrsmithlabs/kbsync/internal/scrub"
)

const maxBodySize = "1M"

// Reconciler files a summary as an article pull request.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconcile.Request) (*reconcile.Result, error)
}

// Scrubber redacts secrets from a summary before it is reconciled.
type Scrubber interface {
	Scrub(ctx context.Context, text string) scrub.Result
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// RateLimit is the sustained requests per second allowed per client IP.
	RateLimit float64
	RateBurst int
	// WorkspaceID is used for source links when a request omits one.
	WorkspaceID string
	// Meter records request metrics. The global meter is used when nil.
	Meter metric.Meter
}

// Server provides HTTP endpoints for kbsync.
type Server struct {
	echo       *echo.Echo
	reconciler Reconciler
	scrubber   Scrubber
	logger     *logging.Logger
	config     Config
	limiters   *limiters
	topics     *keyedMutex
}

// NewServer creates a new HTTP server. scrubber may be nil, in which case
// summaries are reconciled unchanged.
func NewServer(reconciler Reconciler, scrubber Scrubber, logger *logging.Logger, cfg *Config) (*Server, error) {
	if reconciler == nil {
		return nil, errors.New("reconciler cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 10
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		reconciler: reconciler,
		scrubber:   scrubber,
		logger:     logger.Named("http"),
		config:     *cfg,
		limiters:   newLimiters(cfg.RateLimit, cfg.RateBurst),
		topics:     newKeyedMutex(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestLogger)
	e.Use(NewMetrics(cfg.Meter, s.logger).Middleware())
	e.Use(middleware.BodyLimit(maxBodySize))

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1", s.rateLimit)
	v1.POST("/reconcile", s.handleReconcile)
}

// requestLogger attaches the request ID to the request context and logs
// every request once it completes.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if !logging.ValidRequestID(id) {
			id = uuid.NewString()
			c.Response().Header().Set(echo.HeaderXRequestID, id)
		}
		ctx := logging.WithRequestID(c.Request().Context(), id)
		ctx = logging.WithLogger(ctx, s.logger)
		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !s.limiters.allow(ip) {
			s.logger.Warn(c.Request().Context(), "rate limit exceeded", zap.String("ip", ip))
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
		}
		return next(c)
	}
}

// Handler returns the underlying http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
