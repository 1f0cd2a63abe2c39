// Package core provides the API chassis for GoMeasure.
// It creates a chi router compatible with both standard HTTP (for local dev)
// and AWS Lambda Proxy Integration (via chiadapter). It enforces cross-cutting
// concerns -- security headers, logging, tracing, metrics, rate limiting and
// error handling -- before requests reach domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gomeasure/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
// Implementations record request latency and count metrics to Prometheus,
// CloudWatch or equivalent backends.
type MetricsCollector interface {
	// RecordRequest records API request metrics including latency and count.
	// endpoint is the matched route pattern (e.g. "/v1/workspaces/{id}").
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server encapsulates all dependencies for the GoMeasure API, allowing for
// easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector
	Tracer    trace.Tracer

	// MetricsHandler, when set, is mounted at GET /metrics.
	MetricsHandler http.Handler
	// RateLimitStore backs per-client rate limiting; nil disables it.
	RateLimitStore RateLimitStore
	// HealthProbes are run by GET /health.
	HealthProbes []HealthProbe
	// V1RouteRegistrars mount domain handlers under /v1. Populated by the
	// entry point to keep core free of handler imports.
	V1RouteRegistrars []func(chi.Router)

	// Internal router
	router *chi.Mux
}

// NewServer initializes dependencies and prepares the server for route
// mounting. It performs a "fail-fast" check on critical configuration.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		Tracer:    otel.Tracer("gomeasure/http"),
		router:    chi.NewRouter(),
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
// Used by http.Server (local) and chiadapter.New (Lambda).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
// This is used internally by route-mounting methods and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server resources. The rate-limit store is closed when it
// holds a connection (Redis).
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	if closer, ok := s.RateLimitStore.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing rate limit store", "error", err)
			return fmt.Errorf("closing rate limit store: %w", err)
		}
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
