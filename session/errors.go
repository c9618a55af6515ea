package session

import "errors"

// Sentinel errors for session resolution.
var (
	ErrMissingToken   = errors.New("session: missing token")
	ErrInvalidToken   = errors.New("session: invalid token")
	ErrTokenExpired   = errors.New("session: token expired")
	ErrMissingSession = errors.New("session: token carries no session id")
	ErrNoIdentity     = errors.New("session: no identity in context")
)
