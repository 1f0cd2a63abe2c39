// Package metrics provides the telemetry sinks for GoMeasure: a Prometheus
// collector scraped at /metrics, a CloudWatch collector for Lambda
// deployments and a no-op collector.
//
// Every collector satisfies both the HTTP layer's core.MetricsCollector and
// the resolver's geocode.Metrics so one instance can be shared.
package metrics

import (
	"context"
	"time"

	"gomeasure/internal/core"
	"gomeasure/internal/geocode"
)

// Collector is the full telemetry surface.
type Collector interface {
	core.MetricsCollector
	geocode.Metrics

	// RecordGeocodeResults records how many candidates a search returned.
	RecordGeocodeResults(ctx context.Context, count int)
	// RecordAreaMeasurement records a measured area in square feet.
	RecordAreaMeasurement(ctx context.Context, source string, sqft int64)
}

// Area measurement sources.
const (
	SourceStateless = "stateless"
	SourceWorkspace = "workspace"
)

// Noop discards everything.
type Noop struct{}

var (
	_ Collector = Noop{}
	_ Collector = (*Prometheus)(nil)
	_ Collector = (*CloudWatch)(nil)
)

func (Noop) RecordRequest(string, string, string, time.Duration)   {}
func (Noop) RecordCacheLookup(context.Context, bool)               {}
func (Noop) RecordUpstream(context.Context, string, time.Duration) {}
func (Noop) RecordGeocodeResults(context.Context, int)             {}
func (Noop) RecordAreaMeasurement(context.Context, string, int64)  {}
