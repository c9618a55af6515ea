package region

import (
	"context"
	"errors"

	"github.com/jonwraymond/reportcache/resilience"
)

// Guarded runs every call of an inner Store through a circuit breaker.
// Caller errors (missing region, bad key, cancelled context) do not count
// as backend failures.
type Guarded struct {
	inner   Store
	breaker *resilience.Breaker
}

// NewGuarded wraps inner. If config.IsFailure is nil, IsBackendFailure is used.
func NewGuarded(inner Store, config resilience.BreakerConfig) *Guarded {
	if config.IsFailure == nil {
		config.IsFailure = IsBackendFailure
	}
	return &Guarded{
		inner:   inner,
		breaker: resilience.NewBreaker(config),
	}
}

// IsBackendFailure reports whether err indicates the store itself is failing.
func IsBackendFailure(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrRegionNotFound),
		errors.Is(err, ErrInvalidRegion),
		errors.Is(err, ErrUnhashableKey),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

// Breaker exposes the breaker for health reporting.
func (g *Guarded) Breaker() *resilience.Breaker {
	return g.breaker
}

func (g *Guarded) CreateRegion(ctx context.Context, name string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.CreateRegion(ctx, name)
	})
}

func (g *Guarded) Get(ctx context.Context, region string, key any) (any, bool, error) {
	type hit struct {
		val any
		ok  bool
	}
	h, err := resilience.Do(ctx, g.breaker, func(ctx context.Context) (hit, error) {
		v, ok, err := g.inner.Get(ctx, region, key)
		return hit{v, ok}, err
	})
	return h.val, h.ok, err
}

func (g *Guarded) Put(ctx context.Context, region string, key any, value any) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Put(ctx, region, key, value)
	})
}

func (g *Guarded) Keys(ctx context.Context, region string) ([]any, error) {
	return resilience.Do(ctx, g.breaker, func(ctx context.Context) ([]any, error) {
		return g.inner.Keys(ctx, region)
	})
}

func (g *Guarded) Remove(ctx context.Context, region string, key any) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Remove(ctx, region, key)
	})
}

func (g *Guarded) ClearRegion(ctx context.Context, region string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.ClearRegion(ctx, region)
	})
}

// Ensure Guarded implements Store
var _ Store = (*Guarded)(nil)
