// Package session resolves the identity of the caller's session.
//
// The cache takes session IDs as explicit arguments. This package is the
// provider callers use to obtain one: a Resolver turns a bearer token into
// an Identity, and context helpers carry that Identity through a request.
package session
