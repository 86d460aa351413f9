// ABOUTME: Server-side session management bound to a browser cookie
// ABOUTME: Sessions hold the raw token, decoded identity, and chosen role

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taazamandi/mandi-gateway/internal/auth"
	"github.com/taazamandi/mandi-gateway/internal/store"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "mandi_session"

	// Lifetime is the maximum session lifetime, refreshed on every request
	// (sliding expiry, independent of the token's own expiry)
	Lifetime = 24 * time.Hour
)

// Session errors
var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidRole  = errors.New("invalid role")
	ErrRoleConflict = errors.New("role already selected, log out to switch")
)

// Manager creates, loads, and destroys visitor sessions.
type Manager struct {
	store  store.Store
	logger *slog.Logger
}

// NewManager creates a session manager over the given store.
func NewManager(st store.Store) *Manager {
	return &Manager{
		store:  st,
		logger: slog.Default().With("component", "session"),
	}
}

// Establish creates a new session for a verified token and sets the cookie.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, token string, ident *auth.Identity) (*store.Session, error) {
	id, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	sess := &store.Session{
		ID:        id,
		Token:     token,
		Identity:  ident,
		Role:      store.RoleUnset,
		CreatedAt: now,
		ExpiresAt: now.Add(Lifetime),
	}

	if err := m.store.CreateSession(r.Context(), sess); err != nil {
		return nil, err
	}

	m.setCookie(w, r, id, sess.ExpiresAt)
	m.logger.Info("session established", "subject", ident.SubjectID, "email", ident.Email)
	return sess, nil
}

// Get loads the visitor's session from the request cookie. A session with an
// empty token or no identity counts as no session. On success the expiry is
// pushed forward and the cookie refreshed.
func (m *Manager) Get(w http.ResponseWriter, r *http.Request) (*store.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	sess, err := m.store.GetSession(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	if sess.Token == "" || sess.Identity == nil || sess.Identity.SubjectID == "" {
		return nil, ErrNoSession
	}

	// Sliding expiry
	newExpiry := time.Now().Add(Lifetime)
	if err := m.store.TouchSession(r.Context(), sess.ID, newExpiry); err == nil {
		sess.ExpiresAt = newExpiry
		m.setCookie(w, r, sess.ID, newExpiry)
	}

	return sess, nil
}

// SetRole records the visitor's chosen role. Re-selecting the same role is
// idempotent; choosing a different role after one is set requires logout.
func (m *Manager) SetRole(ctx context.Context, sess *store.Session, role store.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if sess.Role == role {
		return nil
	}
	if sess.Role != store.RoleUnset {
		return ErrRoleConflict
	}

	if err := m.store.UpdateSessionRole(ctx, sess.ID, role); err != nil {
		return err
	}
	sess.Role = role
	return nil
}

// UpdateIdentity replaces the identity stored on the session.
func (m *Manager) UpdateIdentity(ctx context.Context, sess *store.Session, ident *auth.Identity) error {
	if err := m.store.UpdateSessionIdentity(ctx, sess.ID, ident); err != nil {
		return err
	}
	sess.Identity = ident
	return nil
}

// Clear removes token, identity, and role atomically by deleting the session
// row and expiring the cookie. Used on logout and on any verification failure.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := m.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			m.logger.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, r *http.Request, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateSecureToken returns a URL-safe random token of n bytes entropy.
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
