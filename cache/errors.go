package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrRegionUnavailable indicates the backing region could not be created.
	// It is the only error New returns.
	ErrRegionUnavailable = errors.New("cache: region unavailable")

	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
	ErrMalformedKey = errors.New("cache: malformed composite key")

	// ErrNilCompute indicates Load was called without a compute function.
	ErrNilCompute = errors.New("cache: compute function is nil")

	// ErrNotSnapshot indicates a value codec was asked to encode something
	// other than a cached table.
	ErrNotSnapshot = errors.New("cache: value is not a cached table")
)
