// loader.go implements the configuration loading lifecycle for GoMeasure.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Populate BuildInfo from linker-injected variables.
//  5. Validate the struct using go-playground/validator.
//  6. Resolve the target region (built-in default or REGION_FILE).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"gomeasure/internal/geocode"
)

// ConfigError is a diagnostic error type returned by LoadConfig to aid debugging.
// It wraps a ConfigErrorType and an underlying error message.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Loaded is a validated Config together with the resolved search region.
type Loaded struct {
	*Config
	Region geocode.RegionSpec
}

// LoadConfig loads and validates the GoMeasure configuration.
//
// Dotenv files, when given, are loaded in order; without arguments ".env" in
// the working directory is tried. Existing environment variables always win.
func LoadConfig(dotenvFiles ...string) (*Loaded, error) {
	// Step 1: Enforce UTC timezone to prevent drift bugs.
	time.Local = time.UTC

	// Step 2: Load .env file (non-fatal if absent).
	// godotenv.Load does NOT override existing environment variables.
	_ = godotenv.Load(dotenvFiles...)

	// Step 3: Process envconfig tags to populate the Config struct.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	// Step 4: Populate build metadata from linker-injected variables.
	cfg.Build = NewBuildInfo()

	// Step 5: Validate the populated struct.
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	// Step 6: Resolve the region.
	region, err := resolveRegion(cfg.Geocoder.RegionFile)
	if err != nil {
		return nil, err
	}

	return &Loaded{Config: &cfg, Region: region}, nil
}

// Validate runs struct validation plus the cross-field rules that tags
// cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	if cfg.Server.RequestTimeout <= cfg.Geocoder.ResolveTimeout {
		return &ConfigError{
			Type: ErrValidation,
			Message: fmt.Sprintf("REQUEST_TIMEOUT (%s) must exceed GEOCODE_RESOLVE_TIMEOUT (%s)",
				cfg.Server.RequestTimeout, cfg.Geocoder.ResolveTimeout),
		}
	}
	if budget := cfg.Geocoder.RetryBudget(); cfg.Geocoder.ResolveTimeout < budget {
		return &ConfigError{
			Type: ErrValidation,
			Message: fmt.Sprintf("GEOCODE_RESOLVE_TIMEOUT (%s) is shorter than the upstream retry budget (%s)",
				cfg.Geocoder.ResolveTimeout, budget),
		}
	}
	return nil
}

func resolveRegion(path string) (geocode.RegionSpec, error) {
	if path == "" {
		return geocode.DefaultRegion(), nil
	}
	region, err := geocode.LoadRegionFile(path)
	if err != nil {
		return geocode.RegionSpec{}, &ConfigError{
			Type:    ErrRegion,
			Message: fmt.Sprintf("failed to load region file %q", path),
			Err:     err,
		}
	}
	return region, nil
}
