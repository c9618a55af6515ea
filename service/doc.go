// Package service assembles a ready-to-use report cache from config.
//
// Open builds, in order: the observer, the backing store, the lifecycle
// source, the cache and its health aggregator. A store that cannot be
// reached does not fail Open; the cache runs degraded and health reports
// it. With a Redis store, session ends are published on the Redis channel
// so every process reaps; otherwise they are broadcast in-process.
package service
