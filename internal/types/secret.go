package types

import "log/slog"

const redactedPlaceholder = "***REDACTED***"

// SecretString holds a credential (for example a Redis URL with a password).
// It renders as a placeholder through fmt, JSON and slog; Unmask returns the
// raw value for the few call sites that must dial with it.
type SecretString string

func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON implements json.Marshaler.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}

// LogValue implements slog.LogValuer.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// Unmask returns the raw secret.
func (s SecretString) Unmask() string {
	return string(s)
}
