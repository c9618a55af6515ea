package region

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueryTimeout bounds every Redis round trip.
const DefaultQueryTimeout = 5 * time.Second

// DefaultRedisPrefix namespaces the hashes a Redis store writes.
const DefaultRedisPrefix = "reportcache"

// Redis is a Store that keeps each region in one Redis hash. Field names
// come from the key codec and values from the value codec; entries never
// carry a TTL.
//
// Layout:
//
//	<prefix>:regions        set of created region names
//	<prefix>:region:<name>  hash of encoded key -> encoded value
type Redis struct {
	client       redis.UniversalClient
	codec        Codec
	prefix       string
	queryTimeout time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithCodec sets the key/value codec. Defaults to MsgpackCodec.
func WithCodec(c Codec) RedisOption {
	return func(r *Redis) { r.codec = c }
}

// WithPrefix sets the key prefix. Defaults to DefaultRedisPrefix.
func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = p }
}

// WithQueryTimeout sets the per-operation timeout. Defaults to DefaultQueryTimeout.
func WithQueryTimeout(d time.Duration) RedisOption {
	return func(r *Redis) { r.queryTimeout = d }
}

// NewRedis returns a Store backed by client.
// The caller owns the client lifecycle.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	r := &Redis{
		client:       client,
		codec:        MsgpackCodec{},
		prefix:       DefaultRedisPrefix,
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Redis) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, r.queryTimeout)
}

func (r *Redis) regionsKey() string {
	return r.prefix + ":regions"
}

func (r *Redis) hashKey(region string) string {
	return r.prefix + ":region:" + region
}

func (r *Redis) exists(ctx context.Context, region string) error {
	ok, err := r.client.SIsMember(ctx, r.regionsKey(), region).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRegionNotFound
	}
	return nil
}

// CreateRegion registers the region name.
func (r *Redis) CreateRegion(ctx context.Context, name string) error {
	if err := ValidateRegion(name); err != nil {
		return err
	}
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	return r.client.SAdd(qctx, r.regionsKey(), name).Err()
}

// Get retrieves and decodes a value. Returns (nil, false, nil) on miss.
func (r *Redis) Get(ctx context.Context, region string, key any) (any, bool, error) {
	field, err := r.codec.EncodeKey(key)
	if err != nil {
		return nil, false, err
	}
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	pipe := r.client.Pipeline()
	member := pipe.SIsMember(qctx, r.regionsKey(), region)
	get := pipe.HGet(qctx, r.hashKey(region), field)
	if _, err := pipe.Exec(qctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, err
	}
	if !member.Val() {
		return nil, false, ErrRegionNotFound
	}

	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	val, err := r.codec.DecodeValue(data)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Put encodes and stores a value.
func (r *Redis) Put(ctx context.Context, region string, key any, value any) error {
	field, err := r.codec.EncodeKey(key)
	if err != nil {
		return err
	}
	data, err := r.codec.EncodeValue(value)
	if err != nil {
		return err
	}
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if err := r.exists(qctx, region); err != nil {
		return err
	}
	return r.client.HSet(qctx, r.hashKey(region), field, data).Err()
}

// Keys returns the decoded keys of the region. Fields the codec cannot
// decode are returned as their raw string form.
func (r *Redis) Keys(ctx context.Context, region string) ([]any, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if err := r.exists(qctx, region); err != nil {
		return nil, err
	}
	fields, err := r.client.HKeys(qctx, r.hashKey(region)).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]any, 0, len(fields))
	for _, f := range fields {
		k, err := r.codec.DecodeKey(f)
		if err != nil {
			keys = append(keys, f)
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Remove deletes key. Idempotent - no error on miss.
func (r *Redis) Remove(ctx context.Context, region string, key any) error {
	field, err := r.codec.EncodeKey(key)
	if err != nil {
		return err
	}
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if err := r.exists(qctx, region); err != nil {
		return err
	}
	return r.client.HDel(qctx, r.hashKey(region), field).Err()
}

// ClearRegion deletes the region's hash. The region stays registered.
func (r *Redis) ClearRegion(ctx context.Context, region string) error {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	if err := r.exists(qctx, region); err != nil {
		return err
	}
	return r.client.Del(qctx, r.hashKey(region)).Err()
}

// Ensure Redis implements Store
var _ Store = (*Redis)(nil)
