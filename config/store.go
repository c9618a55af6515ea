package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/reportcache/cache"
	"github.com/jonwraymond/reportcache/region"
)

// Backend is an opened backing store and the client it owns, if any.
type Backend struct {
	Store region.Store

	// Redis is set when the store kind is redis. The lifecycle source
	// shares it.
	Redis redis.UniversalClient
}

// Close releases the Redis client. Safe on a memory or LRU backend.
func (b *Backend) Close() error {
	if b == nil || b.Redis == nil {
		return nil
	}
	if err := b.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// OpenStore builds the configured store. A Redis store is pinged once; a
// failed ping closes the client and returns the error so the caller can
// fall back to degraded mode.
func (c *Config) OpenStore(ctx context.Context) (*Backend, error) {
	b := &Backend{}

	switch c.Store.Kind {
	case StoreMemory, "":
		b.Store = region.NewMemory()
	case StoreLRU:
		b.Store = region.NewLRU(c.Store.LRUSize)
	case StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("config: redis %s unreachable: %w", c.Store.Redis.Addr, err)
		}
		store, err := region.NewRedis(client,
			region.WithCodec(cache.Codec{}),
			region.WithPrefix(c.Store.Redis.Prefix),
			region.WithQueryTimeout(c.Store.Redis.QueryTimeout),
		)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		b.Store = store
		b.Redis = client
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidStoreKind, c.Store.Kind)
	}

	if c.Store.Breaker.Enabled {
		b.Store = region.NewGuarded(b.Store, c.Breaker())
	}
	return b, nil
}
