// ABOUTME: JWT token verification for externally-issued session tokens
// ABOUTME: Uses HS256 signing with a shared secret and 60s clock-skew leeway

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrMissingToken = errors.New("missing token")
	ErrExpiredToken = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingClaim = errors.New("missing required claim")
)

// Leeway is the clock-skew tolerance applied symmetrically to the exp and
// iat claims. Issuer and verifier clocks may disagree by up to this much.
const Leeway = 60 * time.Second

// MinSecretLength is the minimum accepted signing secret length in bytes.
const MinSecretLength = 32

// Identity holds the claims extracted from a verified token.
type Identity struct {
	SubjectID    string
	Email        string
	UserMetadata map[string]any
	AppMetadata  map[string]any
	Audience     string
	RoleClaim    string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (*Identity, error)
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// Option configures a JWTVerifier
type Option func(*options)

type options struct {
	audience string
}

// WithAudience enables audience claim verification against the given value.
// Audience checking is off by default for cross-deployment flexibility.
func WithAudience(audience string) Option {
	return func(o *options) {
		o.audience = audience
	}
}

// NewJWTVerifier creates a new JWT verifier with the given secret.
// Secrets shorter than MinSecretLength are rejected so that a
// misconfigured deployment fails at startup, not at request time.
func NewJWTVerifier(secret []byte, opts ...Option) (*JWTVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if o.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(o.audience))
	}

	return &JWTVerifier{
		secret: secret,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// Verify validates the token signature and claims and extracts the identity.
// Pure function of token, secret, and current time; callers always receive a
// structured error, never a panic.
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := v.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	ident := &Identity{
		SubjectID:    sub,
		Email:        stringClaim(claims, "email"),
		UserMetadata: mapClaim(claims, "user_metadata"),
		AppMetadata:  mapClaim(claims, "app_metadata"),
		RoleClaim:    stringClaim(claims, "role"),
	}

	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		ident.Audience = aud[0]
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		ident.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ident.ExpiresAt = exp.Time
	}

	return ident, nil
}

// Generate creates a new signed token for the given subject with expiration.
// Used by the token subcommand for development tokens and by tests; in
// production tokens are minted by the external identity issuer.
func (v *JWTVerifier) Generate(subjectID, email string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subjectID,
		"email": email,
		"aud":   "authenticated",
		"role":  "authenticated",
		"iat":   now.Unix(),
		"exp":   now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func mapClaim(claims jwt.MapClaims, key string) map[string]any {
	m, ok := claims[key].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}
