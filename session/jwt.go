package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures JWTResolver.
type JWTConfig struct {
	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// SessionClaim names the claim holding the session ID.
	// Default: "sid". The "jti" claim is used when it is absent.
	SessionClaim string

	// PrincipalClaim names the claim holding the principal.
	// Default: "sub"
	PrincipalClaim string

	// Methods lists accepted signing algorithms.
	// Default: HS256, HS384, HS512
	Methods []string
}

// KeyProvider returns the verification key for a key ID.
type KeyProvider interface {
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider serves one HMAC key regardless of key ID.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(context.Context, string) (any, error) {
	return p.key, nil
}

// JWTResolver resolves session identities from signed JWTs.
type JWTResolver struct {
	config  JWTConfig
	keys    KeyProvider
	parser  *jwt.Parser
	lenient *jwt.Parser
}

// NewJWTResolver creates a resolver that verifies tokens with keys.
func NewJWTResolver(config JWTConfig, keys KeyProvider) *JWTResolver {
	if config.SessionClaim == "" {
		config.SessionClaim = "sid"
	}
	if config.PrincipalClaim == "" {
		config.PrincipalClaim = "sub"
	}
	if len(config.Methods) == 0 {
		config.Methods = []string{"HS256", "HS384", "HS512"}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(config.Methods)}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTResolver{
		config:  config,
		keys:    keys,
		parser:  jwt.NewParser(opts...),
		lenient: jwt.NewParser(jwt.WithValidMethods(config.Methods), jwt.WithoutClaimsValidation()),
	}
}

// Resolve verifies token and extracts its session. A leading "Bearer "
// is stripped.
func (r *JWTResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := r.parse(ctx, r.parser, token)
	if err != nil {
		return nil, err
	}
	return r.identity(claims)
}

// ResolveExpired verifies token like Resolve but accepts it after it has
// expired or before it is valid. Signature, algorithm, issuer and audience
// are still checked.
func (r *JWTResolver) ResolveExpired(ctx context.Context, token string) (*Identity, error) {
	claims, err := r.parse(ctx, r.lenient, token)
	if err != nil {
		return nil, err
	}
	if r.config.Issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != r.config.Issuer {
			return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, iss)
		}
	}
	if r.config.Audience != "" {
		aud, _ := claims.GetAudience()
		if !slices.Contains(aud, r.config.Audience) {
			return nil, fmt.Errorf("%w: audience %v", ErrInvalidToken, aud)
		}
	}
	return r.identity(claims)
}

func (r *JWTResolver) parse(ctx context.Context, p *jwt.Parser, token string) (jwt.MapClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	_, err := p.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return r.keys.GetKey(ctx, kid)
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func (r *JWTResolver) identity(claims jwt.MapClaims) (*Identity, error) {
	id := &Identity{}
	if sid, ok := claims[r.config.SessionClaim].(string); ok {
		id.SessionID = sid
	}
	if id.SessionID == "" {
		id.SessionID, _ = claims["jti"].(string)
	}
	if id.SessionID == "" {
		return nil, ErrMissingSession
	}
	id.Principal, _ = claims[r.config.PrincipalClaim].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// Ensure JWTResolver implements Resolver and ExpiredResolver
var (
	_ Resolver        = (*JWTResolver)(nil)
	_ ExpiredResolver = (*JWTResolver)(nil)
)

// Ensure StaticKeyProvider implements KeyProvider
var _ KeyProvider = (*StaticKeyProvider)(nil)

