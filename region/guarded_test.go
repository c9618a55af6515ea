package region

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/reportcache/resilience"
)

func breakerConfig() resilience.BreakerConfig {
	return resilience.BreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour}
}

// failingStore fails every call with err.
type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) CreateRegion(context.Context, string) error {
	f.calls++
	return f.err
}

func (f *failingStore) Get(context.Context, string, any) (any, bool, error) {
	f.calls++
	return nil, false, f.err
}

func (f *failingStore) Put(context.Context, string, any, any) error {
	f.calls++
	return f.err
}

func (f *failingStore) Keys(context.Context, string) ([]any, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Remove(context.Context, string, any) error {
	f.calls++
	return f.err
}

func (f *failingStore) ClearRegion(context.Context, string) error {
	f.calls++
	return f.err
}

func TestGuarded_OpensOnBackendFailures(t *testing.T) {
	inner := &failingStore{err: errors.New("connection refused")}
	g := NewGuarded(inner, breakerConfig())
	ctx := context.Background()

	_ = g.Put(ctx, "r", "k", "v")
	_, _, _ = g.Get(ctx, "r", "k")

	if g.Breaker().State() != resilience.StateOpen {
		t.Fatalf("state = %v, want open", g.Breaker().State())
	}

	_, err := g.Keys(ctx, "r")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Keys() error = %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestGuarded_IgnoresCallerErrors(t *testing.T) {
	inner := &failingStore{err: ErrRegionNotFound}
	g := NewGuarded(inner, breakerConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = g.Remove(ctx, "r", "k")
	}
	if g.Breaker().State() != resilience.StateClosed {
		t.Errorf("state = %v, want closed", g.Breaker().State())
	}
}

func TestIsBackendFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"region not found", ErrRegionNotFound, false},
		{"wrapped invalid region", errors.Join(errors.New("x"), ErrInvalidRegion), false},
		{"bad key", ErrUnhashableKey, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"io", errors.New("broken pipe"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBackendFailure(tt.err); got != tt.want {
				t.Errorf("IsBackendFailure(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
