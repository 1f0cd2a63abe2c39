package types

// Telemetry metric names shared by the Prometheus and CloudWatch collectors.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency       = "APILatency"
	MetricAPIRequestCount  = "APIRequestCount"
	MetricGeocodeCache     = "GeocodeCacheLookup"
	MetricGeocodeUpstream  = "GeocodeUpstreamCall"
	MetricGeocodeLatency   = "GeocodeUpstreamLatency"
	MetricGeocodeResults   = "GeocodeResultCount"
	MetricAreaMeasurements = "AreaMeasurement"

	// Dimension Keys
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "Status"
	DimResult   = "Result"
	DimOutcome  = "Outcome"

	// Metric Namespace
	MetricNamespace = "GoMeasure"
)

// Upstream call outcomes recorded against MetricGeocodeUpstream.
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeThrottled = "throttled"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
)
