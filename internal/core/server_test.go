package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"gomeasure/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "local",
		Server: config.ServerConfig{
			Port:            "8080",
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: config.SecurityConfig{
			CorsAllowedOrigins: []string{"*"},
			RateLimitRequests:  120,
			RateLimitWindow:    time.Minute,
		},
		Build: config.BuildInfo{Version: "1.4.0-test"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a JSON logger writing into buf.
func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestNewServer_RequiresConfig(t *testing.T) {
	if _, err := NewServer(nil, testLogger()); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewServer_RequiresLogger(t *testing.T) {
	if _, err := NewServer(testConfig(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestNewServer_InitializesDependencies(t *testing.T) {
	s := newTestServer(t)

	if s.Validator == nil {
		t.Error("expected Validator to be initialized")
	}
	if s.Tracer == nil {
		t.Error("expected Tracer to be initialized")
	}
	if s.Router() == nil || s.Handler() == nil {
		t.Error("expected router to be initialized")
	}
}

type closingStore struct {
	MockRateLimitStore
	closed bool
	err    error
}

func (c *closingStore) Close() error {
	c.closed = true
	return c.err
}

func TestServer_ShutdownClosesStore(t *testing.T) {
	s := newTestServer(t)
	store := &closingStore{}
	s.RateLimitStore = store

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.closed {
		t.Error("expected rate limit store to be closed")
	}
}

func TestServer_ShutdownReportsCloseError(t *testing.T) {
	s := newTestServer(t)
	closeErr := errors.New("connection reset")
	s.RateLimitStore = &closingStore{err: closeErr}

	if err := s.Shutdown(context.Background()); !errors.Is(err, closeErr) {
		t.Fatalf("got %v, want wrapped %v", err, closeErr)
	}
}

func TestServer_ShutdownWithoutStore(t *testing.T) {
	s := newTestServer(t)
	s.RateLimitStore = &MockRateLimitStore{}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
