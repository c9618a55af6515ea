package cache

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/reportcache/lifecycle"
	"github.com/jonwraymond/reportcache/observe"
	"github.com/jonwraymond/reportcache/region"
)

// DefaultRegion is the backing store region used when none is configured.
const DefaultRegion = "report-dataset-cache"

// Cache is the session-scoped result cache.
//
// Contract:
//   - Concurrency: safe for concurrent use. Get and Put are serialized so no
//     caller observes a partially stored entry.
//   - Errors: Get and Put never fail. Store errors are logged and surface as
//     a miss or as pass-through.
//   - Ownership: Put takes ownership of the offered table. When the result is
//     admitted the caller receives the cached Snapshot and must stop using the
//     original.
type Cache struct {
	mu     sync.Mutex
	store  region.Store
	region string
	policy Policy

	logger  observe.Logger
	metrics observe.CacheMetrics
	tracer  observe.Tracer

	reaper *Reaper
	loads  singleflight.Group

	source       lifecycle.Source
	unsubscribe  func()
	clearOnClose bool
	closed       bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithRegion sets the backing store region name.
func WithRegion(name string) Option {
	return func(c *Cache) { c.region = name }
}

// WithPolicy sets the admission policy. The policy is captured once.
func WithPolicy(p Policy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.CacheMetrics) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t observe.Tracer) Option {
	return func(c *Cache) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithInstruments sets logger, metrics and tracer together.
func WithInstruments(ins observe.Instruments) Option {
	return func(c *Cache) {
		WithLogger(ins.Logger)(c)
		WithMetrics(ins.Metrics)(c)
		WithTracer(ins.Tracer)(c)
	}
}

// WithLifecycle registers the cache's reaper with src so that a session's
// entries are removed when the session ends. Close unregisters it.
func WithLifecycle(src lifecycle.Source) Option {
	return func(c *Cache) { c.source = src }
}

// WithClearOnClose makes Close clear the whole region, the shutdown
// counterpart of per-session reaping. Leave it off when other processes
// share the region.
func WithClearOnClose() Option {
	return func(c *Cache) { c.clearOnClose = true }
}

// New creates a Cache over store.
//
// A nil store yields a degraded Cache: Get always misses and Put returns
// its input unchanged. If the region cannot be created New fails with
// ErrRegionUnavailable; this is the only error New returns.
func New(store region.Store, opts ...Option) (*Cache, error) {
	c := &Cache{
		store:   store,
		region:  DefaultRegion,
		policy:  DefaultPolicy(),
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy = c.policy.normalized()
	c.logger = c.logger.With(observe.F("component", "reportcache"), observe.F("region", c.region))

	ctx := context.Background()
	if store == nil {
		c.logger.Warn(ctx, "backing store unavailable, cache is pass-through")
	} else if err := store.CreateRegion(ctx, c.region); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRegionUnavailable, c.region, err)
	}

	c.reaper = &Reaper{
		store:   store,
		region:  c.region,
		logger:  c.logger,
		metrics: c.metrics,
		tracer:  c.tracer,
	}
	if c.source != nil {
		c.unsubscribe = c.reaper.Register(c.source)
	}
	return c, nil
}

// Degraded reports whether the cache runs without a backing store.
func (c *Cache) Degraded() bool { return c.store == nil }

// Region returns the backing store region name.
func (c *Cache) Region() string { return c.region }

// Policy returns the admission policy in effect.
func (c *Cache) Policy() Policy { return c.policy }

// Reaper returns the reaper bound to this cache's store and region.
func (c *Cache) Reaper() *Reaper { return c.reaper }

// Get returns the result cached for key under sessionID.
func (c *Cache) Get(ctx context.Context, sessionID string, key DataKey) (Table, bool) {
	if c.store == nil {
		c.metrics.RecordGet(ctx, c.region, false)
		return nil, false
	}

	ctx, span := c.tracer.StartSpan(ctx, "get", c.region)
	ck := NewCompositeKey(sessionID, key)

	c.mu.Lock()
	v, found, err := c.store.Get(ctx, c.region, ck)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn(ctx, "cache lookup failed", observe.F("session", sessionID), observe.F("error", err))
		c.metrics.RecordGet(ctx, c.region, false)
		c.tracer.EndSpan(span, err)
		return nil, false
	}

	t, ok := v.(Table)
	if found && !ok {
		c.logger.Debug(ctx, "ignoring non-table cache entry", observe.F("session", sessionID), observe.F("type", fmt.Sprintf("%T", v)))
	}
	hit := found && ok

	if c.logger.Enabled(observe.LevelDebug) {
		c.logger.Debug(ctx, "looked up cached result",
			observe.F("session", sessionID),
			observe.F("key", string(key)),
			observe.F("hit", hit),
		)
	}
	c.metrics.RecordGet(ctx, c.region, hit)
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	c.tracer.EndSpan(span, nil)

	if !hit {
		return nil, false
	}
	return t, true
}

// Put offers t for caching under sessionID and key.
//
// Admission runs in order and the first failing check returns t unchanged:
// the cache must be backed by a store, t must have at most RowLimit rows,
// and the classifier must judge t safe. An admitted t is copied into a
// Snapshot, stored, and the Snapshot is returned. A failed store write is
// logged and the Snapshot is still returned.
func (c *Cache) Put(ctx context.Context, sessionID string, key DataKey, t Table) Table {
	if t == nil {
		return nil
	}
	if c.store == nil {
		c.metrics.RecordPut(ctx, c.region, observe.OutcomeDegraded, t.RowCount())
		return t
	}

	ctx, span := c.tracer.StartSpan(ctx, "put", c.region, attribute.Int("cache.rows", t.RowCount()))

	outcome := c.policy.Admit(t)
	switch outcome {
	case observe.OutcomeOversized:
		c.logger.Debug(ctx, "result too large to cache",
			observe.F("session", sessionID),
			observe.F("rows", t.RowCount()),
			observe.F("row_limit", c.policy.RowLimit),
		)
	case observe.OutcomeUnsafe:
		c.logger.Debug(ctx, "result has column types that cannot be cached", observe.F("session", sessionID))
	}
	if outcome != observe.OutcomeStored {
		c.metrics.RecordPut(ctx, c.region, outcome, t.RowCount())
		span.SetAttributes(attribute.String("cache.outcome", outcome))
		c.tracer.EndSpan(span, nil)
		return t
	}

	snap := NewSnapshot(t)
	ck := NewCompositeKey(sessionID, key)

	c.mu.Lock()
	err := c.store.Put(ctx, c.region, ck, snap)
	c.mu.Unlock()

	if err != nil {
		outcome = observe.OutcomeError
		c.logger.Warn(ctx, "failed to store result", observe.F("session", sessionID), observe.F("error", err))
	} else {
		c.logger.Debug(ctx, "placed result in cache",
			observe.F("session", sessionID),
			observe.F("key", string(key)),
			observe.F("rows", snap.RowCount()),
		)
	}
	c.metrics.RecordPut(ctx, c.region, outcome, snap.RowCount())
	span.SetAttributes(attribute.String("cache.outcome", outcome))
	c.tracer.EndSpan(span, err)
	return snap
}

// Close unregisters the cache from its lifecycle source. With
// WithClearOnClose it also clears the region and returns that error;
// otherwise entries are left in place. Only the first Close has effect.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if c.clearOnClose {
		return c.reaper.ClearAll(context.Background())
	}
	return nil
}
