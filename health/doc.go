// Package health reports whether cache components are usable.
//
// A Checker returns a Result with one of three statuses. Healthy means
// normal operation; Degraded means the component still answers but with
// reduced function (for a cache, pass-through without storage); Unhealthy
// means the component is failing.
//
// Aggregator runs several checkers concurrently under a timeout and folds
// their results into a Report whose status is the worst of its parts:
//
//	agg := health.NewAggregator(2 * time.Second)
//	agg.Register(cache.HealthChecker(c))
//	report := agg.CheckAll(ctx)
//	if report.Status != health.StatusHealthy {
//	    // alert
//	}
package health
