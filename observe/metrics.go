package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Put outcomes recorded by CacheMetrics.RecordPut.
const (
	OutcomeStored    = "stored"
	OutcomeOversized = "oversized"
	OutcomeUnsafe    = "unsafe"
	OutcomeDegraded  = "degraded"
	OutcomeError     = "error"
)

// CacheMetrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type CacheMetrics interface {
	// RecordGet records one lookup.
	RecordGet(ctx context.Context, region string, hit bool)

	// RecordPut records one admission decision and the offered row count.
	RecordPut(ctx context.Context, region, outcome string, rows int)

	// RecordReap records one session sweep.
	RecordReap(ctx context.Context, region string, removed, failed int, duration time.Duration)
}

type cacheMetrics struct {
	gets         metric.Int64Counter
	puts         metric.Int64Counter
	putRows      metric.Int64Histogram
	reapRemoved  metric.Int64Counter
	reapErrors   metric.Int64Counter
	reapDuration metric.Float64Histogram
}

// NewCacheMetrics registers the cache instruments on meter.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	m := &cacheMetrics{}
	var err error

	if m.gets, err = meter.Int64Counter(
		"reportcache.get.total",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.puts, err = meter.Int64Counter(
		"reportcache.put.total",
		metric.WithDescription("Cache admissions by outcome"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.putRows, err = meter.Int64Histogram(
		"reportcache.put.rows",
		metric.WithDescription("Row count of results offered to the cache"),
		metric.WithUnit("{row}"),
	); err != nil {
		return nil, err
	}

	if m.reapRemoved, err = meter.Int64Counter(
		"reportcache.reap.removed",
		metric.WithDescription("Entries removed by session sweeps"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}

	if m.reapErrors, err = meter.Int64Counter(
		"reportcache.reap.errors",
		metric.WithDescription("Failures swallowed during session sweeps"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.reapDuration, err = meter.Float64Histogram(
		"reportcache.reap.duration_ms",
		metric.WithDescription("Session sweep duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) RecordGet(ctx context.Context, region string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.gets.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.region", region),
		attribute.String("cache.result", result),
	))
}

func (m *cacheMetrics) RecordPut(ctx context.Context, region, outcome string, rows int) {
	opt := metric.WithAttributes(
		attribute.String("cache.region", region),
		attribute.String("cache.outcome", outcome),
	)
	m.puts.Add(ctx, 1, opt)
	m.putRows.Record(ctx, int64(rows), opt)
}

func (m *cacheMetrics) RecordReap(ctx context.Context, region string, removed, failed int, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("cache.region", region))
	m.reapRemoved.Add(ctx, int64(removed), opt)
	if failed > 0 {
		m.reapErrors.Add(ctx, int64(failed), opt)
	}
	m.reapDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type nopMetrics struct{}

// NopMetrics returns metrics that record nothing.
func NopMetrics() CacheMetrics { return nopMetrics{} }

func (nopMetrics) RecordGet(context.Context, string, bool)                     {}
func (nopMetrics) RecordPut(context.Context, string, string, int)              {}
func (nopMetrics) RecordReap(context.Context, string, int, int, time.Duration) {}
