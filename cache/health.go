package cache

import (
	"context"
	"time"

	"github.com/jonwraymond/reportcache/health"
)

// HealthChecker reports the cache's health.
//
// The result is healthy when the region can be enumerated, degraded when
// the cache runs without a store, and unhealthy when enumeration fails.
func HealthChecker(c *Cache) health.Checker {
	return health.NewCheckerFunc("reportcache", func(ctx context.Context) health.Result {
		start := time.Now()
		if c.Degraded() {
			return health.Degraded("backing store unavailable, cache is pass-through").
				WithDetails(map[string]any{"region": c.region})
		}

		keys, err := c.store.Keys(ctx, c.region)
		if err != nil {
			return health.Unhealthy("backing store unreachable", err).
				WithDuration(time.Since(start))
		}
		return health.Healthy("ok").
			WithDetails(map[string]any{"region": c.region, "entries": len(keys)}).
			WithDuration(time.Since(start))
	})
}
