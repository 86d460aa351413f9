// ABOUTME: Request-time auth guard composing the session store and token verifier
// ABOUTME: Re-verifies the stored token on every gated request, never caching results

package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taazamandi/mandi-gateway/internal/auth"
	"github.com/taazamandi/mandi-gateway/internal/store"
)

// sessionContextKey is the key type for storing the session in context.Context.
type sessionContextKey struct{}

// withSession returns a new context with the session attached.
func withSession(ctx context.Context, sess *store.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// sessionFromContext retrieves the session from the context, nil if absent.
func sessionFromContext(ctx context.Context) *store.Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*store.Session)
	return sess
}

// requireAuth wraps a handler to require an authenticated session.
//
// The stored token is re-verified on every request. That is the mechanism
// that turns an expired or externally re-signed token into an immediate
// session teardown instead of a stale authenticated state lasting until the
// session itself expires.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(w, r)
		if err != nil {
			s.redirectToLogin(w, r, "Please log in to access this page.")
			return
		}

		if _, err := s.verifier.Verify(sess.Token); err != nil {
			s.logger.Warn("token verification failed, clearing session",
				"subject", sess.Identity.SubjectID, "error", err)
			s.sessions.Clear(w, r)
			s.redirectToLogin(w, r, "Authentication failed: "+err.Error())
			return
		}

		// The session identity (token claims merged with signup details) is
		// what handlers act on, not the bare re-verified claims.
		ctx := auth.WithIdentity(r.Context(), sess.Identity)
		ctx = withSession(ctx, sess)
		next(w, r.WithContext(ctx))
	}
}

// requireAuthJSON is requireAuth for API-style endpoints: rejections are 401
// envelopes instead of login redirects.
func (s *Server) requireAuthJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(w, r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if _, err := s.verifier.Verify(sess.Token); err != nil {
			s.logger.Warn("token verification failed, clearing session",
				"subject", sess.Identity.SubjectID, "error", err)
			s.sessions.Clear(w, r)
			s.writeError(w, http.StatusUnauthorized, "Authentication failed: "+err.Error())
			return
		}

		ctx := auth.WithIdentity(r.Context(), sess.Identity)
		ctx = withSession(ctx, sess)
		next(w, r.WithContext(ctx))
	}
}

// requireRole wraps a handler to require a specific chosen role. Must be used
// inside requireAuth. A mismatch redirects to role selection, not to login:
// the identity is still valid, only the role context is wrong.
func (s *Server) requireRole(role store.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromContext(r.Context())
		if sess == nil || sess.Role != role {
			http.Redirect(w, r, "/user-select", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireRoleJSON is requireRole for API-style endpoints: the rejection is a
// 403 envelope rather than a redirect.
func (s *Server) requireRoleJSON(role store.Role, message string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromContext(r.Context())
		if sess == nil || sess.Role != role {
			s.writeError(w, http.StatusForbidden, message)
			return
		}
		next(w, r)
	}
}

// redirectToLogin sends the visitor to the login page with a display message.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request, message string) {
	target := "/login"
	if message != "" {
		target += "?error=" + url.QueryEscape(message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
