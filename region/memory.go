package region

import (
	"context"
	"sync"
)

// Memory is an in-process Store backed by one map per region.
type Memory struct {
	mu      sync.RWMutex
	regions map[string]map[any]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		regions: make(map[string]map[any]any),
	}
}

// CreateRegion creates the named region if it does not exist.
func (m *Memory) CreateRegion(_ context.Context, name string) error {
	if err := ValidateRegion(name); err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.regions[name]; !ok {
		m.regions[name] = make(map[any]any)
	}
	m.mu.Unlock()
	return nil
}

// Get retrieves a value. Returns (nil, false, nil) on miss.
func (m *Memory) Get(_ context.Context, region string, key any) (any, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.regions[region]
	if !ok {
		return nil, false, ErrRegionNotFound
	}
	val, ok := entries[key]
	return val, ok, nil
}

// Put stores a value under key.
func (m *Memory) Put(_ context.Context, region string, key any, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.regions[region]
	if !ok {
		return ErrRegionNotFound
	}
	entries[key] = value
	return nil
}

// Keys returns a snapshot of the region's keys.
func (m *Memory) Keys(_ context.Context, region string) ([]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.regions[region]
	if !ok {
		return nil, ErrRegionNotFound
	}
	keys := make([]any, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Remove deletes key. Idempotent - no error on miss.
func (m *Memory) Remove(_ context.Context, region string, key any) error {
	if err := checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.regions[region]
	if !ok {
		return ErrRegionNotFound
	}
	delete(entries, key)
	return nil
}

// ClearRegion drops every entry in the region.
func (m *Memory) ClearRegion(_ context.Context, region string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.regions[region]; !ok {
		return ErrRegionNotFound
	}
	m.regions[region] = make(map[any]any)
	return nil
}

// Len returns the number of entries in a region, or 0 if it does not exist.
func (m *Memory) Len(region string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regions[region])
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
