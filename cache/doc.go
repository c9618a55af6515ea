// Package cache provides a session-scoped result cache for report datasets.
//
// A Cache sits in front of an expensive tabular computation. Entries are
// stored in a region.Store under a CompositeKey that pairs the caller's
// session with a logical DataKey, so results are never shared across
// sessions. Put applies an admission Policy (row ceiling, then column-type
// safety) and stores an immutable Snapshot of admitted results. A Reaper
// removes a session's entries when that session ends.
//
// If the backing store is absent the Cache runs degraded: every Get misses
// and every Put returns its input unchanged.
package cache
