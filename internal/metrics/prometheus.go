package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus holds all Prometheus metrics for the service on a private
// registry, so several instances can coexist in tests.
type Prometheus struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Geocode metrics
	cacheLookups     *prometheus.CounterVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	resultCount      prometheus.Histogram

	// Measurement metrics
	areaSquareFeet *prometheus.HistogramVec
}

// NewPrometheus creates a collector whose metric names are prefixed with
// namespace (e.g. "gomeasure_http_requests_total").
func NewPrometheus(namespace string) *Prometheus {
	registry := prometheus.NewRegistry()

	p := &Prometheus{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geocode_cache_lookups_total",
				Help:      "Geocode cache lookups by result",
			},
			[]string{"result"},
		),
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geocode_upstream_calls_total",
				Help:      "Upstream geocoder calls by outcome",
			},
			[]string{"outcome"},
		),
		upstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "geocode_upstream_duration_seconds",
				Help:      "Upstream geocoder call duration in seconds, retries included",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
			},
		),
		resultCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "geocode_result_count",
				Help:      "Number of candidates returned per search",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
			},
		),
		areaSquareFeet: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "area_square_feet",
				Help:      "Measured outline areas in square feet",
				Buckets:   prometheus.ExponentialBuckets(250, 2, 12),
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.cacheLookups,
		p.upstreamCalls,
		p.upstreamDuration,
		p.resultCount,
		p.areaSquareFeet,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// RecordRequest records one HTTP request. endpoint should be the route
// pattern, not the raw path, to keep label cardinality bounded.
func (p *Prometheus) RecordRequest(method, endpoint, status string, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, endpoint, status).Inc()
	p.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (p *Prometheus) RecordCacheLookup(_ context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordUpstream(_ context.Context, outcome string, duration time.Duration) {
	p.upstreamCalls.WithLabelValues(outcome).Inc()
	p.upstreamDuration.Observe(duration.Seconds())
}

func (p *Prometheus) RecordGeocodeResults(_ context.Context, count int) {
	p.resultCount.Observe(float64(count))
}

func (p *Prometheus) RecordAreaMeasurement(_ context.Context, source string, sqft int64) {
	p.areaSquareFeet.WithLabelValues(source).Observe(float64(sqft))
}
