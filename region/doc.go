// Package region provides backing stores that hold cache entries in named
// regions.
//
// A Store keys entries by arbitrary comparable values and can enumerate the
// keys of a region, which is what session-scoped eviction relies on. Memory
// and LRU stores keep entries in process; Redis keeps them in one hash per
// region. Guarded wraps any Store with a circuit breaker.
package region
