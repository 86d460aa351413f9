// ABOUTME: Handlers for login, signup, role selection, logout, and auth APIs
// ABOUTME: Tokens arrive pre-signed from the external issuer; the gateway verifies locally

package web

import (
	"net/http"
	"strings"

	"github.com/taazamandi/mandi-gateway/internal/auth"
	"github.com/taazamandi/mandi-gateway/internal/session"
	"github.com/taazamandi/mandi-gateway/internal/store"
)

// handleIndex renders the landing page, or forwards visitors who already
// have an identity and a role.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.sessions.Get(w, r); err == nil && sess.Role != store.RoleUnset {
		http.Redirect(w, r, "/user-select", http.StatusSeeOther)
		return
	}
	s.renderPage(w, "index.html", pageData{Title: "Welcome"})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.sessions.Get(w, r); err == nil && sess.Role != store.RoleUnset {
		http.Redirect(w, r, "/user-select", http.StatusSeeOther)
		return
	}
	s.renderPage(w, "login.html", pageData{Title: "Login", Error: r.URL.Query().Get("error")})
}

type loginRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// handleLogin verifies an issuer-signed token and establishes a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "No data received")
		return
	}
	if req.Token == "" {
		s.writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	ident, err := s.verifier.Verify(req.Token)
	if err != nil {
		s.logger.Warn("login token verification failed", "email", req.Email, "error", err)
		s.writeError(w, http.StatusUnauthorized, "Authentication failed: "+err.Error())
		return
	}

	// The caller may supply id/email explicitly; the verified claims win
	// only when it doesn't.
	if req.UserID != "" {
		ident.SubjectID = req.UserID
	}
	if req.Email != "" {
		ident.Email = req.Email
	}

	if _, err := s.sessions.Establish(w, r, req.Token, ident); err != nil {
		s.logger.Error("failed to establish session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Login failed: "+err.Error())
		return
	}

	s.logger.Info("login successful", "email", ident.Email)
	s.writeSuccess(w, envelope{
		"message":      "Login successful",
		"redirect_url": "/user-select",
	})
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.sessions.Get(w, r); err == nil && sess.Role != store.RoleUnset {
		http.Redirect(w, r, "/user-select", http.StatusSeeOther)
		return
	}
	s.renderPage(w, "signup.html", pageData{Title: "Sign Up"})
}

type signupRequest struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	State     string `json:"state"`
}

// handleSignup verifies the token, records the visitor's profile, and
// establishes a session.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "No data received")
		return
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"token", req.Token},
		{"email", req.Email},
		{"first_name", req.FirstName},
		{"last_name", req.LastName},
		{"phone", req.Phone},
		{"state", req.State},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		s.writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	ident, err := s.verifier.Verify(req.Token)
	if err != nil {
		s.logger.Warn("signup token verification failed", "email", req.Email, "error", err)
		s.writeError(w, http.StatusUnauthorized, "Authentication failed: "+err.Error())
		return
	}

	if req.UserID != "" {
		ident.SubjectID = req.UserID
	}
	ident.Email = req.Email

	fullName := strings.TrimSpace(req.FirstName + " " + req.LastName)
	profile := &store.Profile{
		ID:        ident.SubjectID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		State:     req.State,
		FullName:  fullName,
		UserType:  "pending",
	}
	if err := s.store.UpsertProfile(r.Context(), profile); err != nil {
		s.logger.Error("failed to save profile", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Registration failed: "+err.Error())
		return
	}

	// Signup details travel with the session identity so pages can show them
	if ident.UserMetadata == nil {
		ident.UserMetadata = map[string]any{}
	}
	ident.UserMetadata["first_name"] = req.FirstName
	ident.UserMetadata["last_name"] = req.LastName
	ident.UserMetadata["phone"] = req.Phone
	ident.UserMetadata["state"] = req.State
	ident.UserMetadata["full_name"] = fullName

	if _, err := s.sessions.Establish(w, r, req.Token, ident); err != nil {
		s.logger.Error("failed to establish session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Registration failed: "+err.Error())
		return
	}

	s.logger.Info("signup successful", "email", req.Email)
	s.writeSuccess(w, envelope{
		"message":      "Registration successful",
		"redirect_url": "/user-select",
		"user": envelope{
			"id":         ident.SubjectID,
			"email":      profile.Email,
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
			"phone":      profile.Phone,
			"state":      profile.State,
			"full_name":  profile.FullName,
			"user_type":  profile.UserType,
		},
	})
}

func (s *Server) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.sessions.Get(w, r); err == nil && sess.Role != store.RoleUnset {
		http.Redirect(w, r, "/user-select", http.StatusSeeOther)
		return
	}
	s.renderPage(w, "forgot_password.html", pageData{Title: "Forgot Password"})
}

// handleForgotPassword accepts a reset request. The actual reset email is the
// identity issuer's job; this endpoint only validates the input.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		s.writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	s.writeSuccess(w, envelope{"message": "Password reset link sent"})
}

// handleLogout destroys the session and returns to the landing page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleUserSelectPage routes a verified identity to its feed, or to the
// role-selection prompt when no role is chosen. Pure function of session
// state; no side effects here.
func (s *Server) handleUserSelectPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	switch sess.Role {
	case store.RoleBuyer:
		http.Redirect(w, r, "/buyer-feed", http.StatusSeeOther)
	case store.RoleSeller:
		http.Redirect(w, r, "/seller-feed", http.StatusSeeOther)
	default:
		s.renderPage(w, "user_select.html", pageData{Title: "Choose Your Role", Identity: sess.Identity})
	}
}

// handleUserSelect persists the chosen role and returns the canonical
// landing capability for it.
func (s *Server) handleUserSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "No data received")
		return
	}

	role := store.Role(req.Role)
	if !role.Valid() {
		s.writeError(w, http.StatusBadRequest, "Invalid role: "+req.Role+". Must be buyer or seller.")
		return
	}

	sess := sessionFromContext(r.Context())
	if err := s.sessions.SetRole(r.Context(), sess, role); err != nil {
		if err == session.ErrRoleConflict {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to set role", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}

	redirectURL := "/buyer-feed"
	if role == store.RoleSeller {
		redirectURL = "/seller-feed"
	}
	s.writeSuccess(w, envelope{
		"message":      "Role set as " + string(role),
		"redirect_url": redirectURL,
	})
}

// handleCheckAuth reports authentication state. It never fails with an HTTP
// error: unauthenticated visitors get authenticated:false in a 200 response.
func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(w, r)
	if err != nil {
		s.writeJSON(w, http.StatusOK, envelope{
			"status":        "error",
			"authenticated": false,
			"message":       "No user session",
		})
		return
	}

	if _, err := s.verifier.Verify(sess.Token); err != nil {
		s.sessions.Clear(w, r)
		s.writeJSON(w, http.StatusOK, envelope{
			"status":        "error",
			"authenticated": false,
			"message":       err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"status":        "success",
		"authenticated": true,
		"user":          identityPayload(sess.Identity),
		"role":          string(sess.Role),
	})
}

// handleUpdateProfile merges caller-supplied metadata into the session identity.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserMetadata map[string]any `json:"user_metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "No data received")
		return
	}

	sess := sessionFromContext(r.Context())
	if len(req.UserMetadata) > 0 {
		if sess.Identity.UserMetadata == nil {
			sess.Identity.UserMetadata = map[string]any{}
		}
		for k, v := range req.UserMetadata {
			sess.Identity.UserMetadata[k] = v
		}
		if err := s.sessions.UpdateIdentity(r.Context(), sess, sess.Identity); err != nil {
			s.logger.Error("failed to update identity", "error", err)
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.writeSuccess(w, envelope{
		"message": "Profile updated successfully",
		"data":    req.UserMetadata,
		"role":    string(sess.Role),
	})
}

// handleHealth is a liveness probe that also reports model availability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeSuccess(w, envelope{"model_loaded": s.advisor.Loaded()})
}

// identityPayload shapes an identity for JSON responses.
func identityPayload(ident *auth.Identity) envelope {
	return envelope{
		"id":            ident.SubjectID,
		"email":         ident.Email,
		"user_metadata": ident.UserMetadata,
		"app_metadata":  ident.AppMetadata,
	}
}
