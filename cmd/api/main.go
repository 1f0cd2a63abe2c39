// Package main is the entry point for the GoMeasure API server.
//
// It loads configuration, wires the address resolver, the measurement
// workspace store and the telemetry backends into the core chassis
// (middleware, routing, health checks) and starts serving.
//
// Outside AWS Lambda it runs a standard HTTP server on the configured port
// alongside the workspace janitor. Inside Lambda the chi router is bridged to
// API Gateway events via chiadapter.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"golang.org/x/sync/errgroup"

	"gomeasure/internal/api/handlers"
	"gomeasure/internal/config"
	"gomeasure/internal/core"
	"gomeasure/internal/external"
	"gomeasure/internal/geocode"
	"gomeasure/internal/metrics"
	"gomeasure/internal/ratelimit"
	"gomeasure/internal/tracing"
	"gomeasure/internal/types"
	"gomeasure/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg := loaded.Config

	logger := newLogger(cfg.LogLevel)
	logger.Info("gomeasure API starting",
		"environment", cfg.Environment,
		"build", cfg.Build,
		"port", cfg.Server.Port,
		"region", loaded.Region.Code,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, loaded, logger)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		return runLambda(ctx, a, logger)
	}
	return runHTTPServer(ctx, a, cfg, logger)
}

// app is the fully wired service.
type app struct {
	srv        *core.Server
	workspaces *workspace.Store
	janitor    *workspace.Janitor
	tracing    *tracing.Provider
}

// newApp builds every dependency and mounts the routes. It performs no
// listening, so tests can drive the returned handler directly.
func newApp(ctx context.Context, loaded *config.Loaded, logger *slog.Logger) (*app, error) {
	cfg := loaded.Config

	tp, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Observability.EnableTracing,
		ServiceName: cfg.Service,
		Version:     cfg.Build.Version,
		Environment: cfg.Environment,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Environment == "local",
		SampleRatio: cfg.Observability.TraceSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	collector, metricsHandler, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry, err := external.NewClientRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating external clients: %w", err)
	}

	resolver := geocode.NewResolver(
		registry.Geocoder,
		geocode.NewCache(cfg.Geocoder.CacheTTL, cfg.Geocoder.CacheMaxEntries),
		geocode.ResolverConfig{
			Region:        loaded.Region,
			ResultCap:     cfg.Geocoder.ResultCap,
			UpstreamLimit: cfg.Geocoder.UpstreamLimit,
			Timeout:       cfg.Geocoder.ResolveTimeout,
		},
		logger.With("component", "resolver"),
		geocode.WithMetrics(collector),
		geocode.WithTracer(tp.Tracer()),
	)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = collector
	srv.MetricsHandler = metricsHandler
	srv.Tracer = tp.Tracer()

	if err := wireRateLimit(srv, cfg, logger); err != nil {
		return nil, err
	}

	workspaces := workspace.NewStore(
		workspace.Config{IdleTTL: cfg.Workspace.IdleTTL, Max: cfg.Workspace.Max},
		logger.With("component", "workspace"),
		workspace.WithAreaListener(func(sqft int64) {
			// Deletes and commits report zero; only real readings are observed.
			if sqft > 0 {
				collector.RecordAreaMeasurement(context.Background(), metrics.SourceWorkspace, sqft)
			}
		}),
	)

	geocodeHandler := handlers.NewGeocodeHandler(resolver, collector, logger)
	areaHandler := handlers.NewAreaHandler(srv.Validator, collector, logger)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaces, srv.Validator, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		geocodeHandler.RegisterRoutes,
		areaHandler.RegisterRoutes,
		workspaceHandler.RegisterRoutes,
	)

	// Mount all routes (middleware chain + versioned endpoints + health).
	srv.MountRoutes()

	return &app{
		srv:        srv,
		workspaces: workspaces,
		janitor:    workspace.NewJanitor(workspaces, cfg.Workspace.SweepInterval, logger),
		tracing:    tp,
	}, nil
}

// newMetrics selects the metrics backend. The returned handler is non-nil
// only for Prometheus, which is scraped at /metrics.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (metrics.Collector, http.Handler, error) {
	switch cfg.Observability.MetricsBackend {
	case "prometheus":
		p := metrics.NewPrometheus(strings.ToLower(cfg.Observability.MetricNamespace))
		return p, p.Handler(), nil

	case "cloudwatch":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("loading AWS SDK config: %w", err)
		}
		client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			// LocalStack Support (Empty in Prod)
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		return metrics.NewCloudWatch(client, cfg.Observability.MetricNamespace, logger), nil, nil

	default:
		logger.Info("metrics disabled")
		return metrics.Noop{}, nil, nil
	}
}

// wireRateLimit installs the shared Redis store when REDIS_URL is set and an
// in-process store otherwise. Redis is also registered as a health probe.
func wireRateLimit(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Redis.Enabled() {
		srv.RateLimitStore = ratelimit.NewMemoryStore(types.RealClock{})
		return nil
	}

	client, err := ratelimit.OpenRedis(cfg.Redis.URL.Unmask())
	if err != nil {
		return fmt.Errorf("opening redis: %w", err)
	}
	store := ratelimit.NewRedisStore(client, cfg.Redis.KeyPrefix, types.RealClock{})
	srv.RateLimitStore = store
	srv.HealthProbes = append(srv.HealthProbes, store)
	logger.Info("rate limiting backed by redis", "key_prefix", cfg.Redis.KeyPrefix)
	return nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runLambda serves API Gateway HTTP API (v2) events through the chi router.
// lambda.Start does not return.
func runLambda(ctx context.Context, a *app, logger *slog.Logger) error {
	go func() {
		_ = a.janitor.Run(ctx)
	}()

	adapter := chiadapter.NewV2(a.srv.Router())
	logger.Info("starting in Lambda mode")
	lambda.Start(adapter.ProxyWithContextV2)
	return nil
}

// runHTTPServer serves HTTP and runs the workspace janitor until ctx is
// cancelled, then shuts both down gracefully.
func runHTTPServer(ctx context.Context, a *app, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.janitor.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")
		return a.shutdown(httpServer, cfg.Server.ShutdownTimeout, logger)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

// shutdown drains HTTP, then releases server resources and flushes traces.
func (a *app) shutdown(httpServer *http.Server, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	var errs []error
	if err := a.srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
