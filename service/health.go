package service

import (
	"context"

	"github.com/jonwraymond/reportcache/health"
	"github.com/jonwraymond/reportcache/resilience"
)

// BreakerChecker reports the state of a store circuit breaker. An open or
// probing breaker is degraded: the cache keeps answering, as misses.
func BreakerChecker(name string, b *resilience.Breaker) health.Checker {
	return health.NewCheckerFunc(name, func(context.Context) health.Result {
		snap := b.Snapshot()
		details := map[string]any{
			"state":    snap.State.String(),
			"failures": snap.Failures,
			"rejected": snap.Rejected,
		}
		if snap.State == resilience.StateClosed {
			return health.Healthy("circuit closed").WithDetails(details)
		}
		return health.Degraded("circuit " + snap.State.String()).WithDetails(details)
	})
}
