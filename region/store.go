package region

import (
	"context"
	"reflect"
	"strings"
)

// Store is a region-based key/value store.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Keys: any comparable value; equality is Go equality (or the codec's
//     encoding for byte-oriented stores).
//   - Errors: Get returns (nil, false, nil) on miss. Remove is idempotent.
//     Operations on a region that was never created return ErrRegionNotFound.
//   - Keys returns a point-in-time snapshot; it is not consistent with
//     concurrent Put/Remove calls.
type Store interface {
	// CreateRegion creates the named region. Creating an existing region is a no-op.
	CreateRegion(ctx context.Context, name string) error

	// Get returns the value stored under key.
	Get(ctx context.Context, region string, key any) (any, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, region string, key any, value any) error

	// Keys returns the keys currently held by the region.
	Keys(ctx context.Context, region string) ([]any, error)

	// Remove deletes key from the region.
	Remove(ctx context.Context, region string, key any) error

	// ClearRegion removes every entry of the region. The region stays usable.
	ClearRegion(ctx context.Context, region string) error
}

// ValidateRegion checks that name is usable as a region name.
func ValidateRegion(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "\n\r") {
		return ErrInvalidRegion
	}
	return nil
}

// checkKey rejects keys that would panic when used as a map key.
func checkKey(key any) error {
	if key == nil {
		return ErrUnhashableKey
	}
	if !reflect.TypeOf(key).Comparable() {
		return ErrUnhashableKey
	}
	return nil
}
