// Package lifecycle delivers session-end notifications to interested
// components.
//
// A Source lets callers Subscribe a Handler. Broadcaster is the in-process
// Source; RedisSource fans events out across processes over Redis pub/sub.
// Handlers run on the notifying goroutine and must not block for long.
// Delivery never fails the caller: handler panics are recovered and logged.
package lifecycle
