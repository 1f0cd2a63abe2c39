package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gomeasure/internal/types"
)

// TestLoadConfigDefaults verifies a bare environment yields a valid config
// with the documented defaults and the California region.
func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want default %q", cfg.Server.Port, "8080")
	}
	if cfg.Geocoder.AttemptTimeout != 4*time.Second {
		t.Errorf("Geocoder.AttemptTimeout = %v, want 4s", cfg.Geocoder.AttemptTimeout)
	}
	if cfg.Geocoder.ResolveTimeout < cfg.Geocoder.RetryBudget() {
		t.Errorf("ResolveTimeout %v < RetryBudget %v", cfg.Geocoder.ResolveTimeout, cfg.Geocoder.RetryBudget())
	}
	if cfg.Server.RequestTimeout != 20*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 20s", cfg.Server.RequestTimeout)
	}
	if cfg.Geocoder.MaxRetries != 2 {
		t.Errorf("Geocoder.MaxRetries = %d, want 2", cfg.Geocoder.MaxRetries)
	}
	if cfg.Geocoder.CacheTTL != 5*time.Minute {
		t.Errorf("Geocoder.CacheTTL = %v, want 5m", cfg.Geocoder.CacheTTL)
	}
	if cfg.Geocoder.CacheMaxEntries != 500 {
		t.Errorf("Geocoder.CacheMaxEntries = %d, want 500", cfg.Geocoder.CacheMaxEntries)
	}
	if cfg.Geocoder.ResultCap != 6 {
		t.Errorf("Geocoder.ResultCap = %d, want 6", cfg.Geocoder.ResultCap)
	}
	if cfg.Workspace.IdleTTL != 30*time.Minute {
		t.Errorf("Workspace.IdleTTL = %v, want 30m", cfg.Workspace.IdleTTL)
	}
	if cfg.Region.Code != types.DefaultRegionCode {
		t.Errorf("Region.Code = %q, want %q", cfg.Region.Code, types.DefaultRegionCode)
	}
	if cfg.Build.Version != "dev" {
		t.Errorf("Build.Version = %q, want %q", cfg.Build.Version, "dev")
	}
}

// TestLoadConfigSetsUTC verifies LoadConfig pins the process timezone.
func TestLoadConfigSetsUTC(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	original := time.Local
	t.Cleanup(func() { time.Local = original })

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if time.Local != time.UTC {
		t.Errorf("time.Local = %v, want UTC", time.Local)
	}
}

func TestLoadConfigInvalidEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrValidation)
}

func TestLoadConfigRetriesOutOfRange(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("GEOCODER_MAX_RETRIES", "5")

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrValidation)
}

func TestLoadConfigResultCapOutOfRange(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("GEOCODE_RESULT_CAP", "12")

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrValidation)
}

func TestLoadConfigUnparseableDuration(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("GEOCODE_CACHE_TTL", "five minutes")

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrParsing)
}

// TestLoadConfigRequestTimeoutMustExceedResolve verifies the cross-field rule.
func TestLoadConfigRequestTimeoutMustExceedResolve(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("GEOCODE_RESOLVE_TIMEOUT", "15s")

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrValidation)
}

// TestLoadConfigResolveTimeoutCoversRetryBudget verifies the resolve deadline
// cannot cut off the last upstream attempt.
func TestLoadConfigResolveTimeoutCoversRetryBudget(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("GEOCODE_RESOLVE_TIMEOUT", "12s")

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrValidation)

	t.Setenv("GEOCODER_MAX_RETRIES", "1")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got := cfg.Geocoder.RetryBudget(); got != 9*time.Second {
		t.Errorf("RetryBudget() = %v, want 9s", got)
	}
}

func TestLoadConfigDurationOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("GEOCODER_ATTEMPT_TIMEOUT", "2s")
	t.Setenv("GEOCODER_RETRY_MIN_WAIT", "100ms")
	t.Setenv("GEOCODER_RETRY_MAX_WAIT", "500ms")
	t.Setenv("WORKSPACE_IDLE_TTL", "5m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Geocoder.AttemptTimeout != 2*time.Second {
		t.Errorf("AttemptTimeout = %v, want 2s", cfg.Geocoder.AttemptTimeout)
	}
	if cfg.Geocoder.RetryMinWait != 100*time.Millisecond || cfg.Geocoder.RetryMaxWait != 500*time.Millisecond {
		t.Errorf("retry waits = %v..%v, want 100ms..500ms", cfg.Geocoder.RetryMinWait, cfg.Geocoder.RetryMaxWait)
	}
	if cfg.Workspace.IdleTTL != 5*time.Minute {
		t.Errorf("Workspace.IdleTTL = %v, want 5m", cfg.Workspace.IdleTTL)
	}
}

func TestLoadConfigSliceFields(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.Security.CorsAllowedOrigins) != 2 {
		t.Fatalf("CorsAllowedOrigins = %v, want 2 entries", cfg.Security.CorsAllowedOrigins)
	}
	if cfg.Security.CorsAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CorsAllowedOrigins[1] = %q", cfg.Security.CorsAllowedOrigins[1])
	}
}

// TestLoadConfigDotenvFile verifies values are picked up from a dotenv file
// and that the real environment still wins.
func TestLoadConfigDotenvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "APP_ENV=staging\nWORKSPACE_MAX=42\nGEOCODER_USER_AGENT=FromDotenv/1.0\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	// t.Setenv registers cleanup; the empty value is replaced by Unsetenv so
	// godotenv sees the variables as absent.
	for _, key := range []string{"APP_ENV", "WORKSPACE_MAX"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("GEOCODER_USER_AGENT", "FromEnv/2.0")

	cfg, err := LoadConfig(envFile)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "staging")
	}
	if cfg.Workspace.Max != 42 {
		t.Errorf("Workspace.Max = %d, want 42", cfg.Workspace.Max)
	}
	if cfg.Geocoder.UserAgent != "FromEnv/2.0" {
		t.Errorf("Geocoder.UserAgent = %q, want environment to win", cfg.Geocoder.UserAgent)
	}
}

func TestLoadConfigRegionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "region.yaml")
	content := `region:
  code: nv
  name: Nevada
  country_codes: [US]
  bounds: {min_lon: -120.01, min_lat: 35.0, max_lon: -114.04, max_lat: 42.0}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing region file: %v", err)
	}
	t.Setenv("APP_ENV", "local")
	t.Setenv("REGION_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Region.Code != "NV" || cfg.Region.Name != "Nevada" {
		t.Errorf("Region = %+v, want NV/Nevada", cfg.Region)
	}
	if cfg.Region.CountryCodes[0] != "us" {
		t.Errorf("CountryCodes = %v, want lower-cased", cfg.Region.CountryCodes)
	}
}

func TestLoadConfigMissingRegionFile(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("REGION_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assertConfigErrorType(t, err, ErrRegion)
}

func TestConfigErrorError(t *testing.T) {
	inner := errors.New("boom")
	err := &ConfigError{Type: ErrParsing, Message: "bad env", Err: inner}

	if got, want := err.Error(), "[PARSING_FAILED] bad env: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	bare := &ConfigError{Type: ErrValidation, Message: "nope"}
	if got, want := bare.Error(), "[VALIDATION_FAILED] nope"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func assertConfigErrorType(t *testing.T, err error, want ConfigErrorType) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected ConfigError of type %s, got nil", want)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != want {
		t.Errorf("ConfigError.Type = %s, want %s (%v)", cfgErr.Type, want, err)
	}
}
