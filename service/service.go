package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/reportcache/cache"
	"github.com/jonwraymond/reportcache/config"
	"github.com/jonwraymond/reportcache/health"
	"github.com/jonwraymond/reportcache/lifecycle"
	"github.com/jonwraymond/reportcache/observe"
	"github.com/jonwraymond/reportcache/region"
	"github.com/jonwraymond/reportcache/session"
)

// ErrNoResolver is returned by Logout when no session resolver is set.
var ErrNoResolver = errors.New("service: no session resolver configured")

// Service owns a Cache and everything it depends on.
type Service struct {
	Cache  *cache.Cache
	Health *health.Aggregator

	observer observe.Observer
	logger   observe.Logger
	backend  *config.Backend
	local    *lifecycle.Broadcaster
	remote   *lifecycle.RedisSource
	resolver session.Resolver
}

// Option configures Open.
type Option func(*options)

type options struct {
	resolver session.Resolver
}

// WithResolver sets the resolver Logout uses to map tokens to sessions.
func WithResolver(r session.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// Open builds a Service from cfg. cfg must already be valid; Load
// validates it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	ins, err := observe.NewInstruments(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("service: %w", err)
	}

	s := &Service{
		observer: obs,
		logger:   ins.Logger.With(observe.F("component", "service")),
		resolver: o.resolver,
	}

	var store region.Store
	backend, err := cfg.OpenStore(ctx)
	if err != nil {
		s.logger.Warn(ctx, "backing store failed to initialize",
			observe.F("kind", cfg.Store.Kind), observe.F("error", err))
	} else {
		s.backend = backend
		store = backend.Store
	}

	source, err := s.openSource(ctx, cfg, ins.Logger)
	if err != nil {
		s.shutdown(ctx)
		return nil, err
	}

	cacheOpts := []cache.Option{
		cache.WithRegion(cfg.Cache.Region),
		cache.WithPolicy(cfg.Policy()),
		cache.WithInstruments(ins),
		cache.WithLifecycle(source),
	}
	if cfg.ClearOnClose() {
		cacheOpts = append(cacheOpts, cache.WithClearOnClose())
	}
	c, err := cache.New(store, cacheOpts...)
	if err != nil {
		s.shutdown(ctx)
		return nil, fmt.Errorf("service: %w", err)
	}
	s.Cache = c

	s.Health = health.NewAggregator(health.DefaultTimeout)
	s.Health.Register(cache.HealthChecker(c))
	if g, ok := store.(*region.Guarded); ok {
		s.Health.Register(BreakerChecker("store-breaker", g.Breaker()))
	}

	s.logger.Info(ctx, "report cache ready",
		observe.F("region", c.Region()),
		observe.F("degraded", c.Degraded()),
		observe.F("row_limit", c.Policy().RowLimit))
	return s, nil
}

func (s *Service) openSource(ctx context.Context, cfg *config.Config, logger observe.Logger) (lifecycle.Source, error) {
	if s.backend == nil || s.backend.Redis == nil {
		s.local = lifecycle.NewBroadcaster(logger)
		return s.local, nil
	}

	src, err := lifecycle.NewRedisSource(s.backend.Redis,
		lifecycle.WithChannel(cfg.Store.Redis.Channel),
		lifecycle.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := src.Start(ctx); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	s.remote = src
	return src, nil
}

// EndSession announces that sessionID has ended. With a Redis store the
// event is published and reaped by every subscribed process, including
// this one, once it is received.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return lifecycle.ErrEmptySession
	}
	if s.remote != nil {
		return s.remote.Publish(ctx, sessionID)
	}
	s.local.End(ctx, sessionID)
	return nil
}

// Logout resolves token to its session and ends it. An expired token is
// accepted when the resolver implements session.ExpiredResolver.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.resolver == nil {
		return ErrNoResolver
	}
	resolve := s.resolver.Resolve
	if er, ok := s.resolver.(session.ExpiredResolver); ok {
		resolve = er.ResolveExpired
	}
	id, err := resolve(ctx, token)
	if err != nil {
		return err
	}
	return s.EndSession(ctx, id.SessionID)
}

// Close unregisters the cache, clears its region when configured to, stops
// the lifecycle source, closes the store client and flushes telemetry.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	errs = append(errs, s.shutdown(ctx))
	return errors.Join(errs...)
}

func (s *Service) shutdown(ctx context.Context) error {
	var errs []error
	if s.remote != nil {
		errs = append(errs, s.remote.Close())
	}
	if s.backend != nil {
		errs = append(errs, s.backend.Close())
	}
	errs = append(errs, s.observer.Shutdown(ctx))
	return errors.Join(errs...)
}
