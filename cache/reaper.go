package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/reportcache/lifecycle"
	"github.com/jonwraymond/reportcache/observe"
	"github.com/jonwraymond/reportcache/region"
)

// errStorePanic wraps a panic raised by the backing store during a sweep.
var errStorePanic = errors.New("cache: backing store panicked")

// ReapReport summarizes one session sweep. It is informational only.
type ReapReport struct {
	// Scanned is the number of keys enumerated from the region.
	Scanned int
	// Removed is the number of entries of the session that were removed.
	Removed int
	// Errors counts enumeration and removal failures that were swallowed.
	Errors int
}

// Reaper removes cache entries belonging to ended sessions.
//
// Contract:
//   - Stateless: safe for concurrent use; sweeps may race with Put for the
//     same session and are not transactional.
//   - Errors: OnSessionEnd never fails and never panics. Failures are logged
//     and counted in the returned ReapReport.
//   - Idempotent: sweeping the same session twice has no further effect.
type Reaper struct {
	store   region.Store
	region  string
	logger  observe.Logger
	metrics observe.CacheMetrics
	tracer  observe.Tracer
}

// ReaperOption configures a standalone Reaper.
type ReaperOption func(*Reaper)

// WithReaperRegion sets the region to sweep. Default: DefaultRegion.
func WithReaperRegion(name string) ReaperOption {
	return func(r *Reaper) { r.region = name }
}

// WithReaperInstruments sets logger, metrics and tracer.
func WithReaperInstruments(ins observe.Instruments) ReaperOption {
	return func(r *Reaper) {
		if ins.Logger != nil {
			r.logger = ins.Logger
		}
		if ins.Metrics != nil {
			r.metrics = ins.Metrics
		}
		if ins.Tracer != nil {
			r.tracer = ins.Tracer
		}
	}
}

// NewReaper creates a Reaper over store. A nil store yields a no-op Reaper.
// Most callers use Cache.Reaper instead.
func NewReaper(store region.Store, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		store:   store,
		region:  DefaultRegion,
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register subscribes OnSessionEnd to src and returns the unsubscribe
// function.
func (r *Reaper) Register(src lifecycle.Source) func() {
	if src == nil {
		return func() {}
	}
	return src.Subscribe(func(ctx context.Context, sessionID string) {
		r.OnSessionEnd(ctx, sessionID)
	})
}

// OnSessionEnd removes every entry whose CompositeKey belongs to sessionID.
//
// The key set is a point-in-time snapshot of the region. Keys that are not
// CompositeKeys are skipped. Each matching entry is removed individually;
// a failed removal is counted and the sweep continues.
func (r *Reaper) OnSessionEnd(ctx context.Context, sessionID string) (report ReapReport) {
	if r.store == nil {
		return report
	}

	start := time.Now()
	ctx, span := r.tracer.StartSpan(ctx, "reap", r.region)
	defer func() {
		r.metrics.RecordReap(ctx, r.region, report.Removed, report.Errors, time.Since(start))
		span.SetAttributes(
			attribute.Int("cache.reap.scanned", report.Scanned),
			attribute.Int("cache.reap.removed", report.Removed),
			attribute.Int("cache.reap.errors", report.Errors),
		)
		r.tracer.EndSpan(span, nil)
	}()

	keys, err := r.keys(ctx)
	if err != nil {
		report.Errors++
		r.logger.Warn(ctx, "failed to enumerate cache keys for session sweep",
			observe.F("session", sessionID),
			observe.F("error", err),
		)
		return report
	}
	report.Scanned = len(keys)

	for _, k := range keys {
		ck, ok := asCompositeKey(k)
		if !ok || ck.SessionID != sessionID {
			continue
		}
		if err := r.remove(ctx, ck); err != nil {
			report.Errors++
			r.logger.Debug(ctx, "failed to remove cached result",
				observe.F("session", sessionID),
				observe.F("key", string(ck.Key)),
				observe.F("error", err),
			)
			continue
		}
		report.Removed++
	}

	r.logger.Debug(ctx, "killed session cache",
		observe.F("session", sessionID),
		observe.F("removed", report.Removed),
		observe.F("errors", report.Errors),
	)
	return report
}

// ClearAll removes every entry of the region. It is meant for shutdown and
// administrative resets, not for logout.
func (r *Reaper) ClearAll(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.ClearRegion(ctx, r.region); err != nil {
		return fmt.Errorf("cache: clear region %s: %w", r.region, err)
	}
	r.logger.Info(ctx, "cleared cache region")
	return nil
}

func (r *Reaper) keys(ctx context.Context) (keys []any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errStorePanic, rec)
		}
	}()
	return r.store.Keys(ctx, r.region)
}

func (r *Reaper) remove(ctx context.Context, key CompositeKey) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errStorePanic, rec)
		}
	}()
	return r.store.Remove(ctx, r.region, key)
}

func asCompositeKey(k any) (CompositeKey, bool) {
	switch v := k.(type) {
	case CompositeKey:
		return v, true
	case *CompositeKey:
		if v != nil {
			return *v, true
		}
	}
	return CompositeKey{}, false
}
