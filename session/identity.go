package session

import (
	"context"
	"time"
)

// Identity is a resolved caller session.
type Identity struct {
	// SessionID partitions cache entries. It is never empty for an
	// Identity returned by a Resolver.
	SessionID string

	// Principal is the authenticated subject, if known.
	Principal string

	// ExpiresAt is when the session's credential expires. Zero means unknown.
	ExpiresAt time.Time
}

// IsExpired reports whether the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}

// Resolver turns a credential into an Identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: failures wrap one of the package sentinels.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// ExpiredResolver is implemented by resolvers that can still identify the
// session behind an expired token. Logout uses it so a session outliving
// its token can be ended.
type ExpiredResolver interface {
	ResolveExpired(ctx context.Context, token string) (*Identity, error)
}

type contextKey struct{}

// WithIdentity returns a new context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity carried by ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// IDFromContext returns the session ID carried by ctx, or "".
func IDFromContext(ctx context.Context) string {
	if id := FromContext(ctx); id != nil {
		return id.SessionID
	}
	return ""
}

// RequireID returns the session ID carried by ctx or ErrNoIdentity.
func RequireID(ctx context.Context) (string, error) {
	if sid := IDFromContext(ctx); sid != "" {
		return sid, nil
	}
	return "", ErrNoIdentity
}

// Bind resolves token and returns ctx carrying the resulting identity.
func Bind(ctx context.Context, r Resolver, token string) (context.Context, *Identity, error) {
	id, err := r.Resolve(ctx, token)
	if err != nil {
		return ctx, nil, err
	}
	return WithIdentity(ctx, id), id, nil
}
