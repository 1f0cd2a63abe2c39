package geocode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"gomeasure/internal/types"
)

// DefaultResolveTimeout bounds one resolution end to end, retries included.
// Individual upstream attempts carry their own, shorter deadline.
const DefaultResolveTimeout = 15 * time.Second

// Searcher is the upstream geocoding collaborator. Implementations apply
// their own per-attempt timeout and bounded retry on transient failures.
type Searcher interface {
	Search(ctx context.Context, req types.GeocodeRequest) ([]types.RawCandidate, error)
}

// Metrics receives resolver telemetry. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordCacheLookup(ctx context.Context, hit bool)
	RecordUpstream(ctx context.Context, outcome string, duration time.Duration)
}

// ResolverConfig holds the search constraints applied to every resolution.
type ResolverConfig struct {
	Region RegionSpec
	// ResultCap is the maximum number of candidates returned (clamped to 6..8).
	ResultCap int
	// UpstreamLimit is the number of raw hits requested from the geocoder.
	// It should exceed ResultCap since the classifier discards some.
	UpstreamLimit int
	// Timeout bounds a whole resolution including retries.
	Timeout time.Duration
}

// Resolver orchestrates normalize -> cache -> upstream -> classify/shape ->
// cache. It never returns an error: any failure degrades to an empty list.
// Resolve is safe for concurrent use; concurrent misses on the same key share
// one upstream call.
type Resolver struct {
	searcher Searcher
	cache    *Cache
	cfg      ResolverConfig
	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
	flights  singleflight.Group
}

// ResolverOption is a functional option for configuring a Resolver.
type ResolverOption func(*Resolver)

// WithMetrics attaches a telemetry sink.
func WithMetrics(m Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithTracer overrides the tracer. Defaults to the global provider's tracer.
func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) {
		r.tracer = t
	}
}

// NewResolver creates a Resolver around the given searcher and cache.
func NewResolver(searcher Searcher, cache *Cache, cfg ResolverConfig, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewCache(DefaultCacheTTL, DefaultCacheMaxEntries)
	}
	if cfg.Region.Code == "" {
		cfg.Region = DefaultRegion()
	}
	cfg.ResultCap = ClampResultCap(cfg.ResultCap)
	if cfg.UpstreamLimit < cfg.ResultCap {
		cfg.UpstreamLimit = MaxResultCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultResolveTimeout
	}

	r := &Resolver{
		searcher: searcher,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		metrics:  noopMetrics{},
		tracer:   otel.Tracer("gomeasure/geocode"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Region returns the region this resolver is constrained to.
func (r *Resolver) Region() RegionSpec {
	return r.cfg.Region
}

// Resolve returns up to ResultCap address candidates for free-text input.
// Queries shorter than MinQueryLength return an empty list without touching
// the cache or the network. The result is never nil.
func (r *Resolver) Resolve(ctx context.Context, text string) []types.AddressCandidate {
	query := Normalize(text)
	if !IsResolvable(query) {
		return []types.AddressCandidate{}
	}
	key := CacheKey(query)

	if cached, ok := r.cache.Get(key); ok {
		r.metrics.RecordCacheLookup(ctx, true)
		return cached
	}
	r.metrics.RecordCacheLookup(ctx, false)

	// The shared flight must outlive any single caller: one caller abandoning
	// its request must not fail the others waiting on the same key.
	flightCtx := context.WithoutCancel(ctx)
	ch := r.flights.DoChan(key, func() (any, error) {
		return r.fetch(flightCtx, query, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return []types.AddressCandidate{}
		}
		return cloneCandidates(res.Val.([]types.AddressCandidate))
	case <-ctx.Done():
		return []types.AddressCandidate{}
	}
}

// fetch performs one upstream resolution and populates the cache on success.
// Failures are logged and returned to the flight, never cached.
func (r *Resolver) fetch(ctx context.Context, query, key string) ([]types.AddressCandidate, error) {
	// A flight that finished just before this one started may have filled the key.
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "geocode.resolve",
		trace.WithAttributes(
			attribute.Int("geocode.query_length", len(query)),
			attribute.String("geocode.region", r.cfg.Region.Code),
		),
	)
	defer span.End()

	req := types.GeocodeRequest{
		Query:          query,
		CountryCodes:   r.cfg.Region.CountryCodes,
		ViewBox:        r.cfg.Region.Bounds,
		Bounded:        true,
		Limit:          r.cfg.UpstreamLimit,
		AddressDetails: true,
	}

	start := time.Now()
	raw, err := r.searcher.Search(ctx, req)
	outcome := outcomeOf(err)
	r.metrics.RecordUpstream(ctx, outcome, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		r.logger.WarnContext(ctx, "geocode upstream failed, returning empty result",
			"outcome", outcome,
			"query_length", len(query),
			"error", err,
		)
		return nil, err
	}

	shaped := Shape(raw, r.cfg.Region, r.cfg.ResultCap)
	span.SetAttributes(
		attribute.Int("geocode.raw_count", len(raw)),
		attribute.Int("geocode.result_count", len(shaped)),
	)
	r.cache.Put(key, shaped)

	r.logger.DebugContext(ctx, "geocode resolved",
		"raw_count", len(raw),
		"result_count", len(shaped),
		"duration", time.Since(start),
	)
	return shaped, nil
}

// outcomeOf classifies a searcher error for telemetry.
func outcomeOf(err error) string {
	if err == nil {
		return types.OutcomeSuccess
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrCodeUpstreamTimeout:
			return types.OutcomeTimeout
		case types.ErrCodeUpstreamRateLimited:
			return types.OutcomeThrottled
		case types.ErrCodeUpstreamMalformed:
			return types.OutcomeMalformed
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.OutcomeTimeout
	}
	return types.OutcomeFailed
}

type noopMetrics struct{}

func (noopMetrics) RecordCacheLookup(context.Context, bool)               {}
func (noopMetrics) RecordUpstream(context.Context, string, time.Duration) {}
