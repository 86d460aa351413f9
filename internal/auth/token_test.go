// ABOUTME: Unit tests for JWT token verification and generation
// ABOUTME: Covers signatures, expiry with leeway, audience checking, and claim extraction

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret meets the MinSecretLength requirement.
var testSecret = []byte("mandi-test-secret-32-bytes-long!")

// signClaims builds an HS256 token with arbitrary claims for test setups.
func signClaims(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func TestNewJWTVerifier_ShortSecret(t *testing.T) {
	_, err := NewJWTVerifier([]byte("too-short"))
	if err == nil {
		t.Fatal("NewJWTVerifier() should reject a short secret")
	}
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier, err := NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}

	token, err := verifier.Generate("user-123", "farmer@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	ident, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if ident.SubjectID != "user-123" {
		t.Errorf("SubjectID = %q, want %q", ident.SubjectID, "user-123")
	}
	if ident.Email != "farmer@example.com" {
		t.Errorf("Email = %q, want %q", ident.Email, "farmer@example.com")
	}
	if ident.Audience != "authenticated" {
		t.Errorf("Audience = %q, want %q", ident.Audience, "authenticated")
	}
	if ident.RoleClaim != "authenticated" {
		t.Errorf("RoleClaim = %q, want %q", ident.RoleClaim, "authenticated")
	}
	if ident.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should be populated")
	}
	if ident.UserMetadata == nil || ident.AppMetadata == nil {
		t.Error("metadata maps should default to empty, not nil")
	}
}

func TestJWTVerifier_MissingToken(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	_, err := verifier.Verify("")
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("Verify(\"\") error = %v, want ErrMissingToken", err)
	}
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage token", token: "not-a-jwt-token"},
		{name: "malformed JWT", token: "header.payload.signature"},
		{
			name: "wrong secret",
			token: func() string {
				other, _ := NewJWTVerifier([]byte("a-different-secret-32-bytes-long"))
				token, _ := other.Generate("user-123", "x@example.com", time.Hour)
				return token
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTVerifier_RejectsNonHMACAlgorithm(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	// alg=none with an empty signature must never verify
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTVerifier_ExpiredBeyondLeeway(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	now := time.Now()
	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"iat": now.Add(-time.Hour).Unix(),
		"exp": now.Add(-2 * Leeway).Unix(),
	})

	_, err := verifier.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTVerifier_ExpiredWithinLeeway(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	// exp 30s in the past is inside the 60s clock-skew window
	now := time.Now()
	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"iat": now.Add(-time.Hour).Unix(),
		"exp": now.Add(-30 * time.Second).Unix(),
	})

	ident, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v, clock-skew tolerance should accept this token", err)
	}
	if ident.SubjectID != "user-123" {
		t.Errorf("SubjectID = %q, want %q", ident.SubjectID, "user-123")
	}
}

func TestJWTVerifier_IssuedAtWithinLeeway(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	// iat slightly in the future must pass within the leeway window
	now := time.Now()
	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"iat": now.Add(30 * time.Second).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	if _, err := verifier.Verify(token); err != nil {
		t.Fatalf("Verify() error = %v, want success", err)
	}
}

func TestJWTVerifier_MissingExpiry(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"iat": time.Now().Unix(),
	})

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken (exp is required)", err)
	}
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	token := signClaims(t, testSecret, jwt.MapClaims{
		"email": "x@example.com",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	if _, err := verifier.Verify(token); !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Verify() error = %v, want ErrMissingClaim", err)
	}
}

func TestJWTVerifier_AudienceDisabledByDefault(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "some-other-project",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	ident, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v, audience must not be checked by default", err)
	}
	if ident.Audience != "some-other-project" {
		t.Errorf("Audience = %q, want %q", ident.Audience, "some-other-project")
	}
}

func TestJWTVerifier_AudienceEnforcedWhenConfigured(t *testing.T) {
	verifier, err := NewJWTVerifier(testSecret, WithAudience("authenticated"))
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}

	wrong := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "some-other-project",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := verifier.Verify(wrong); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken for wrong audience", err)
	}

	right := signClaims(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "authenticated",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := verifier.Verify(right); err != nil {
		t.Errorf("Verify() error = %v, want success for matching audience", err)
	}
}

func TestJWTVerifier_MetadataClaims(t *testing.T) {
	verifier, _ := NewJWTVerifier(testSecret)

	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub":           "user-123",
		"email":         "farmer@example.com",
		"user_metadata": map[string]any{"first_name": "Asha", "state": "Punjab"},
		"app_metadata":  map[string]any{"provider": "email"},
		"iat":           time.Now().Unix(),
		"exp":           time.Now().Add(time.Hour).Unix(),
	})

	ident, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if got := ident.UserMetadata["first_name"]; got != "Asha" {
		t.Errorf("UserMetadata[first_name] = %v, want Asha", got)
	}
	if got := ident.AppMetadata["provider"]; got != "email" {
		t.Errorf("AppMetadata[provider] = %v, want email", got)
	}
}
