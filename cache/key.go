package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxKeyLength is the maximum allowed length for a DataKey.
const MaxKeyLength = 512

// DataKey identifies a computation request independent of session.
// The cache compares DataKeys for equality and never inspects them.
type DataKey string

// ValidateKey checks if a key is usable as a DataKey.
func ValidateKey(key DataKey) error {
	if strings.TrimSpace(string(key)) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(string(key), "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// CompositeKey is the lookup key held by the backing store.
//
// Two CompositeKeys are equal iff both their SessionID and Key are equal,
// which is exactly Go's == on the struct. Session isolation relies on this.
type CompositeKey struct {
	SessionID string
	Key       DataKey
}

// NewCompositeKey pairs a session with a logical key.
func NewCompositeKey(sessionID string, key DataKey) CompositeKey {
	return CompositeKey{SessionID: sessionID, Key: key}
}

// Hash returns a stable 64-bit hash over both components.
func (k CompositeKey) Hash() uint64 {
	return xxhash.Sum64String(k.String())
}

// String encodes the key as <len(session)>:<session>:<key>.
// The length prefix keeps the encoding unambiguous when the session
// contains a colon.
func (k CompositeKey) String() string {
	var b strings.Builder
	b.Grow(len(k.SessionID) + len(k.Key) + 8)
	b.WriteString(strconv.Itoa(len(k.SessionID)))
	b.WriteByte(':')
	b.WriteString(k.SessionID)
	b.WriteByte(':')
	b.WriteString(string(k.Key))
	return b.String()
}

// ParseCompositeKey decodes the output of CompositeKey.String.
func ParseCompositeKey(s string) (CompositeKey, error) {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return CompositeKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n < 0 {
		return CompositeKey{}, fmt.Errorf("%w: bad session length in %q", ErrMalformedKey, s)
	}
	rest := s[i+1:]
	if len(rest) < n+1 || rest[n] != ':' {
		return CompositeKey{}, fmt.Errorf("%w: truncated %q", ErrMalformedKey, s)
	}
	return CompositeKey{SessionID: rest[:n], Key: DataKey(rest[n+1:])}, nil
}
