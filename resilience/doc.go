// Package resilience provides the circuit breaker that guards backing store
// calls.
//
// When a remote store keeps failing, the breaker opens and calls fail fast
// with ErrCircuitOpen instead of waiting on timeouts. The cache treats that
// like any other store failure: lookups miss and results pass through
// uncached until a probe succeeds.
//
//	b := resilience.NewBreaker(resilience.BreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: 30 * time.Second,
//	})
//
//	err := b.Execute(ctx, func(ctx context.Context) error {
//	    return store.Put(ctx, region, key, value)
//	})
package resilience
