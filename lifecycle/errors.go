package lifecycle

import "errors"

var (
	// ErrNilClient indicates a nil Redis client was provided.
	ErrNilClient = errors.New("lifecycle: redis client is nil")

	// ErrEmptySession indicates an event without a session ID.
	ErrEmptySession = errors.New("lifecycle: session id is empty")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("lifecycle: source already started")

	// ErrClosed indicates the source has been closed.
	ErrClosed = errors.New("lifecycle: source closed")
)
