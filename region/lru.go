package region

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUSize is the per-region capacity used when none is configured.
const DefaultLRUSize = 1024

// LRU is an in-process Store whose regions are bounded least-recently-used
// caches. Entries past capacity are evicted oldest first.
type LRU struct {
	size int

	mu      sync.RWMutex
	regions map[string]*lru.Cache[any, any]
	onEvict func(region string, key any)
}

// LRUOption configures an LRU store.
type LRUOption func(*LRU)

// WithEvictHook registers a callback invoked whenever an entry leaves a
// region, whether by capacity eviction, Remove or ClearRegion.
func WithEvictHook(fn func(region string, key any)) LRUOption {
	return func(s *LRU) { s.onEvict = fn }
}

// NewLRU creates an LRU store holding at most size entries per region.
// A non-positive size uses DefaultLRUSize.
func NewLRU(size int, opts ...LRUOption) *LRU {
	if size <= 0 {
		size = DefaultLRUSize
	}
	s := &LRU{
		size:    size,
		regions: make(map[string]*lru.Cache[any, any]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRegion creates the named region if it does not exist.
func (s *LRU) CreateRegion(_ context.Context, name string) error {
	if err := ValidateRegion(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regions[name]; ok {
		return nil
	}

	var c *lru.Cache[any, any]
	var err error
	if s.onEvict != nil {
		hook := s.onEvict
		c, err = lru.NewWithEvict[any, any](s.size, func(key any, _ any) {
			hook(name, key)
		})
	} else {
		c, err = lru.New[any, any](s.size)
	}
	if err != nil {
		return err
	}
	s.regions[name] = c
	return nil
}

func (s *LRU) region(name string) (*lru.Cache[any, any], error) {
	s.mu.RLock()
	c, ok := s.regions[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRegionNotFound
	}
	return c, nil
}

// Get retrieves a value and marks it recently used.
func (s *LRU) Get(_ context.Context, region string, key any) (any, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	c, err := s.region(region)
	if err != nil {
		return nil, false, err
	}
	val, ok := c.Get(key)
	return val, ok, nil
}

// Put stores a value, evicting the oldest entry when the region is full.
func (s *LRU) Put(_ context.Context, region string, key any, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	c, err := s.region(region)
	if err != nil {
		return err
	}
	c.Add(key, value)
	return nil
}

// Keys returns the region's keys from oldest to newest.
func (s *LRU) Keys(_ context.Context, region string) ([]any, error) {
	c, err := s.region(region)
	if err != nil {
		return nil, err
	}
	return c.Keys(), nil
}

// Remove deletes key. Idempotent - no error on miss.
func (s *LRU) Remove(_ context.Context, region string, key any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	c, err := s.region(region)
	if err != nil {
		return err
	}
	c.Remove(key)
	return nil
}

// ClearRegion purges the region.
func (s *LRU) ClearRegion(_ context.Context, region string) error {
	c, err := s.region(region)
	if err != nil {
		return err
	}
	c.Purge()
	return nil
}

// Ensure LRU implements Store
var _ Store = (*LRU)(nil)
