package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doHealth(t *testing.T, s *Server) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v (%s)", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestHandleHealth_NoProbes(t *testing.T) {
	s := newTestServer(t)

	code, body := doHealth(t, s)
	if code != http.StatusOK {
		t.Errorf("got status %d, want 200", code)
	}
	if body.Status != "healthy" {
		t.Errorf("got status %q, want healthy", body.Status)
	}
	if body.Version != "1.4.0-test" {
		t.Errorf("got version %q", body.Version)
	}
	if len(body.Components) != 0 {
		t.Errorf("expected no components, got %v", body.Components)
	}
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{&MockHealthProbe{ProbeName: "redis"}}

	code, body := doHealth(t, s)
	if code != http.StatusOK {
		t.Errorf("got status %d, want 200", code)
	}
	if body.Components["redis"].Status != "healthy" {
		t.Errorf("got %+v", body.Components)
	}
}

func TestHandleHealth_FailingProbe(t *testing.T) {
	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{
		&MockHealthProbe{ProbeName: "redis", Err: errors.New("dial tcp: connection refused")},
		&MockHealthProbe{ProbeName: "other"},
	}

	code, body := doHealth(t, s)
	if code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", code)
	}
	if body.Status != "unhealthy" {
		t.Errorf("got status %q", body.Status)
	}
	if got := body.Components["redis"]; got.Status != "unhealthy" || got.Message == "" {
		t.Errorf("got redis component %+v", got)
	}
	if body.Components["other"].Status != "healthy" {
		t.Errorf("healthy probe reported %+v", body.Components["other"])
	}
}

func TestHandleHealth_PanickingProbe(t *testing.T) {
	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{&MockHealthProbe{
		ProbeName: "redis",
		CheckFunc: func(context.Context) error { panic("boom") },
	}}

	code, body := doHealth(t, s)
	if code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", code)
	}
	if body.Components["redis"].Status != "unhealthy" {
		t.Errorf("got %+v", body.Components["redis"])
	}
}

func TestHandleHealth_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{&MockHealthProbe{
		ProbeName: "redis",
		CheckFunc: func(context.Context) error {
			<-release
			return nil
		},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Components["redis"].Message != "health check timed out" {
		t.Errorf("got %+v", body.Components["redis"])
	}
}
