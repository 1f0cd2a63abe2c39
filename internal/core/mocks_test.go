package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Compile-time interface checks.
var (
	_ RateLimitStore   = (*MockRateLimitStore)(nil)
	_ MetricsCollector = (*MockMetricsCollector)(nil)
	_ HealthProbe      = (*MockHealthProbe)(nil)
)

func TestMockRateLimitStore_RecordsCalls(t *testing.T) {
	mock := &MockRateLimitStore{Result: RateLimitResult{Allowed: true, Remaining: 4}}

	res, err := mock.IncrementAndCheck(context.Background(), "203.0.113.7", 5, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed || res.Remaining != 4 {
		t.Errorf("got %+v, want Allowed with 4 remaining", res)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("got %d calls, want 1", mock.CallCount())
	}
	call := mock.Calls[0]
	if call.Key != "203.0.113.7" || call.Limit != 5 || call.Window != time.Minute {
		t.Errorf("unexpected call record: %+v", call)
	}
}

func TestMockRateLimitStore_FuncOverrides(t *testing.T) {
	mock := &MockRateLimitStore{
		Err: errors.New("ignored"),
		IncrementAndCheckFunc: func(context.Context, string, int, time.Duration) (RateLimitResult, error) {
			return RateLimitResult{Allowed: false}, nil
		},
	}

	res, err := mock.IncrementAndCheck(context.Background(), "k", 1, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Error("expected func result to take precedence")
	}
}

func TestMockHealthProbe(t *testing.T) {
	wantErr := errors.New("down")
	probe := &MockHealthProbe{ProbeName: "redis", Err: wantErr}

	if probe.Name() != "redis" {
		t.Errorf("got name %q", probe.Name())
	}
	if err := probe.Check(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}
}
