package config

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/jonwraymond/reportcache/cache"
	"github.com/jonwraymond/reportcache/region"
)

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantRedis bool
		check     func(t *testing.T, s region.Store)
	}{
		{
			name:   "memory",
			mutate: func(*Config) {},
			check: func(t *testing.T, s region.Store) {
				if _, ok := s.(*region.Memory); !ok {
					t.Errorf("Store = %T, want *region.Memory", s)
				}
			},
		},
		{
			name:   "lru",
			mutate: func(c *Config) { c.Store.Kind = StoreLRU },
			check: func(t *testing.T, s region.Store) {
				if _, ok := s.(*region.LRU); !ok {
					t.Errorf("Store = %T, want *region.LRU", s)
				}
			},
		},
		{
			name: "redis",
			mutate: func(c *Config) {
				c.Store.Kind = StoreRedis
				c.Store.Redis.Addr = mr.Addr()
			},
			wantRedis: true,
			check: func(t *testing.T, s region.Store) {
				if _, ok := s.(*region.Redis); !ok {
					t.Errorf("Store = %T, want *region.Redis", s)
				}
			},
		},
		{
			name: "guarded",
			mutate: func(c *Config) {
				c.Store.Breaker.Enabled = true
			},
			check: func(t *testing.T, s region.Store) {
				if _, ok := s.(*region.Guarded); !ok {
					t.Errorf("Store = %T, want *region.Guarded", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			b, err := cfg.OpenStore(context.Background())
			if err != nil {
				t.Fatalf("OpenStore() error = %v", err)
			}
			t.Cleanup(func() { _ = b.Close() })

			tt.check(t, b.Store)
			if (b.Redis != nil) != tt.wantRedis {
				t.Errorf("Backend.Redis set = %v, want %v", b.Redis != nil, tt.wantRedis)
			}

			// Every store must accept a cache entry.
			ctx := context.Background()
			if err := b.Store.CreateRegion(ctx, cfg.Cache.Region); err != nil {
				t.Fatalf("CreateRegion() error = %v", err)
			}
			key := cache.NewCompositeKey("session-1", "dataset:sales")
			if err := b.Store.Put(ctx, cfg.Cache.Region, key, cache.NewSnapshot(cache.NewMemTable())); err != nil {
				t.Errorf("Put() error = %v", err)
			}
		})
	}
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := Default()
	cfg.Store.Kind = StoreRedis
	cfg.Store.Redis.Addr = addr

	b, err := cfg.OpenStore(context.Background())
	if err == nil {
		_ = b.Close()
		t.Fatal("OpenStore() error = nil, want unreachable error")
	}
}

func TestBackend_CloseNil(t *testing.T) {
	var b *Backend
	if err := b.Close(); err != nil {
		t.Errorf("Close() on nil backend = %v, want nil", err)
	}
	if err := (&Backend{Store: region.NewMemory()}).Close(); err != nil {
		t.Errorf("Close() on memory backend = %v, want nil", err)
	}
}
