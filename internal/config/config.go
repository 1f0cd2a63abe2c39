// Package config defines the global configuration structure for the GoMeasure
// service. Configuration is loaded once at process initialization (Lambda Cold
// Start or server boot) and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> struct defaults (Lowest)
//
// Any invalid value causes LoadConfig to fail before the process serves traffic.
package config

import (
	"time"

	"gomeasure/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for GoMeasure.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"gomeasure-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	IsTestMode  bool   `envconfig:"IS_TEST_MODE" default:"false"`

	// Domain Configurations
	Server        ServerConfig
	Geocoder      GeocoderConfig
	Workspace     WorkspaceConfig
	Security      SecurityConfig
	Redis         RedisConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// RequestTimeout must exceed GeocoderConfig.ResolveTimeout so a slow
	// resolution still answers with its own empty list.
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"20s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// GeocoderConfig holds the upstream geocoder and resolver tuning.
type GeocoderConfig struct {
	// Provider selects the upstream: "nominatim" or the offline "stub".
	Provider       string `envconfig:"GEOCODER_PROVIDER" default:"nominatim" validate:"oneof=nominatim stub"`
	BaseURL        string `envconfig:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org" validate:"required,url"`
	UserAgent      string `envconfig:"GEOCODER_USER_AGENT" default:"GoMeasure/1.0" validate:"required"`
	AcceptLanguage string `envconfig:"GEOCODER_ACCEPT_LANGUAGE" default:"en"`

	AttemptTimeout time.Duration `envconfig:"GEOCODER_ATTEMPT_TIMEOUT" default:"4s" validate:"gt=0"`
	MaxRetries     int           `envconfig:"GEOCODER_MAX_RETRIES" default:"2" validate:"min=1,max=2"`
	RetryMinWait   time.Duration `envconfig:"GEOCODER_RETRY_MIN_WAIT" default:"250ms" validate:"gt=0"`
	RetryMaxWait   time.Duration `envconfig:"GEOCODER_RETRY_MAX_WAIT" default:"1s" validate:"gtefield=RetryMinWait"`
	UpstreamLimit  int           `envconfig:"GEOCODER_UPSTREAM_LIMIT" default:"10" validate:"min=1,max=50"`

	// ResolveTimeout must cover the worst-case retry budget of the upstream
	// client; see GeocoderConfig.RetryBudget.
	ResolveTimeout  time.Duration `envconfig:"GEOCODE_RESOLVE_TIMEOUT" default:"15s" validate:"gt=0"`
	ResultCap       int           `envconfig:"GEOCODE_RESULT_CAP" default:"6" validate:"min=6,max=8"`
	CacheTTL        time.Duration `envconfig:"GEOCODE_CACHE_TTL" default:"5m" validate:"gt=0"`
	CacheMaxEntries int           `envconfig:"GEOCODE_CACHE_MAX_ENTRIES" default:"500" validate:"min=1"`

	// RegionFile optionally points at a YAML region definition that replaces
	// the built-in California region.
	RegionFile string `envconfig:"REGION_FILE"`
}

// RetryBudget is the longest a single upstream search can take: every attempt
// running to its timeout plus the longest wait between attempts.
func (g GeocoderConfig) RetryBudget() time.Duration {
	attempts := time.Duration(g.MaxRetries + 1)
	return attempts*g.AttemptTimeout + time.Duration(g.MaxRetries)*g.RetryMaxWait
}

// WorkspaceConfig bounds the in-memory measurement workspace store.
type WorkspaceConfig struct {
	IdleTTL       time.Duration `envconfig:"WORKSPACE_IDLE_TTL" default:"30m" validate:"gt=0"`
	Max           int           `envconfig:"WORKSPACE_MAX" default:"10000" validate:"min=1"`
	SweepInterval time.Duration `envconfig:"WORKSPACE_SWEEP_INTERVAL" default:"1m" validate:"gt=0"`
}

// SecurityConfig holds CORS and per-client rate limiting settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimitRequests  int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120" validate:"min=1"`
	RateLimitWindow    time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m" validate:"gt=0"`
}

// RedisConfig enables the shared rate-limit store. An empty URL keeps rate
// limiting in process memory.
type RedisConfig struct {
	URL       SecretString `envconfig:"REDIS_URL"`
	KeyPrefix string       `envconfig:"REDIS_KEY_PREFIX" default:"gomeasure:"`
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL.Unmask() != ""
}

// AWSConfig holds AWS regional configuration used by the CloudWatch backend.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	// MetricsBackend is "prometheus" (scraped at /metrics), "cloudwatch"
	// (Lambda deployments) or "none".
	MetricsBackend   string  `envconfig:"METRICS_BACKEND" default:"prometheus" validate:"oneof=prometheus cloudwatch none"`
	MetricNamespace  string  `envconfig:"METRIC_NAMESPACE" default:"GoMeasure"`
	EnableTracing    bool    `envconfig:"ENABLE_TRACING" default:"false"`
	OTLPEndpoint     string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	TraceSampleRatio float64 `envconfig:"TRACE_SAMPLE_RATIO" default:"0.1" validate:"min=0,max=1"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string `ignored:"true"`
	Commit    string `ignored:"true"`
	BuildTime string `ignored:"true"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrRegion indicates the region file could not be read or is invalid.
	ErrRegion ConfigErrorType = "REGION_FAILED"
)
