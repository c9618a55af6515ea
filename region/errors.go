package region

import "errors"

// Sentinel errors for region operations.
var (
	// ErrRegionNotFound is returned when a region has not been created.
	ErrRegionNotFound = errors.New("region: region not found")

	// ErrInvalidRegion is returned for an empty region name.
	ErrInvalidRegion = errors.New("region: region name is invalid")

	// ErrUnhashableKey is returned when a key cannot be used as a map key.
	ErrUnhashableKey = errors.New("region: key is not comparable")

	// ErrNilClient is returned when a Redis store is built without a client.
	ErrNilClient = errors.New("region: redis client is nil")
)
