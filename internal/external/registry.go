package external

import (
	"log/slog"
	"net/http"

	"gomeasure/internal/config"
)

// ClientRegistry holds all external service client interfaces. It is the
// single point of access for the rest of the application to interact with
// third-party services.
type ClientRegistry struct {
	Geocoder Geocoder
}

// NewClientRegistry initializes all external service clients.
// If cfg.IsTestMode is true or the geocoder provider is "stub", the registry
// is populated with Stub implementations that need no network. Otherwise the
// real clients are built with the configured timeouts and retry policy.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) (*ClientRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.IsTestMode || cfg.Geocoder.Provider == "stub" {
		logger.Info("initializing external clients in STUB mode",
			"is_test_mode", cfg.IsTestMode,
			"geocoder_provider", cfg.Geocoder.Provider,
		)
		return &ClientRegistry{
			Geocoder: NewStubGeocoder(logger.With("mode", "stub")),
		}, nil
	}

	logger.Info("initializing external clients in PRODUCTION mode",
		"environment", cfg.Environment,
		"geocoder_base_url", cfg.Geocoder.BaseURL,
	)
	return &ClientRegistry{
		Geocoder: NewNominatimClient(&http.Client{}, GeocoderRetryPolicy(cfg.Geocoder), NominatimClientConfig{
			BaseURL:        cfg.Geocoder.BaseURL,
			UserAgent:      cfg.Geocoder.UserAgent,
			AcceptLanguage: cfg.Geocoder.AcceptLanguage,
			Logger:         logger.With("client", "nominatim"),
		}),
	}, nil
}

// GeocoderRetryPolicy derives the BaseClient policy from configuration.
// The per-attempt deadline lives in the policy rather than http.Client.Timeout
// so a timed-out attempt is distinguishable from the caller's own deadline.
func GeocoderRetryPolicy(cfg config.GeocoderConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = cfg.MaxRetries
	p.MinWait = cfg.RetryMinWait
	p.MaxWait = cfg.RetryMaxWait
	p.AttemptTimeout = cfg.AttemptTimeout
	return p
}
