// Package observe provides logging, tracing and metrics for the report cache.
//
// Observer owns the OpenTelemetry providers and the structured logger;
// NewInstruments derives the cache-facing Tracer, CacheMetrics and Logger
// from it. Everything degrades to no-ops when a subsystem is disabled.
package observe
