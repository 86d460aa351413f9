// ABOUTME: HTTP surface for mandi-gateway: routes, dependencies, and wiring
// ABOUTME: Composes the session manager, token verifier, store, blob store, and advisor

package web

import (
	"log/slog"
	"net/http"

	"github.com/taazamandi/mandi-gateway/internal/advisor"
	"github.com/taazamandi/mandi-gateway/internal/auth"
	"github.com/taazamandi/mandi-gateway/internal/blob"
	"github.com/taazamandi/mandi-gateway/internal/session"
	"github.com/taazamandi/mandi-gateway/internal/store"
)

// Server handles all inbound HTTP routes.
type Server struct {
	store     store.Store
	sessions  *session.Manager
	verifier  auth.TokenVerifier
	advisor   *advisor.Advisor
	blobs     blob.Store
	templates *templateSet
	logger    *slog.Logger
}

// New creates a new web server. Dependencies are constructed once at startup
// and passed in explicitly; the server holds no hidden global state.
func New(st store.Store, sessions *session.Manager, verifier auth.TokenVerifier, adv *advisor.Advisor, blobs blob.Store) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     st,
		sessions:  sessions,
		verifier:  verifier,
		advisor:   adv,
		blobs:     blobs,
		templates: templates,
		logger:    slog.Default().With("component", "web"),
	}, nil
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("GET /forgot-password", s.handleForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", s.handleForgotPassword)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("POST /api/check-auth", s.handleCheckAuth)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Role selection
	mux.HandleFunc("GET /user-select", s.requireAuth(s.handleUserSelectPage))
	mux.HandleFunc("POST /user-select", s.requireAuth(s.handleUserSelect))

	// Feeds
	mux.HandleFunc("GET /buyer-feed", s.requireAuth(s.requireRole(store.RoleBuyer, s.handleBuyerFeed)))
	mux.HandleFunc("GET /seller-feed", s.requireAuth(s.requireRole(store.RoleSeller, s.handleSellerFeed)))

	// Profiles (hyphen and underscore spellings, matching deployed URLs)
	for _, p := range []string{"/buyer-profile", "/buyer_profile"} {
		mux.HandleFunc("GET "+p, s.requireAuth(s.requireRole(store.RoleBuyer, s.handleBuyerProfile)))
		mux.HandleFunc("POST "+p, s.requireAuth(s.requireRole(store.RoleBuyer, s.handleProfileUpdate)))
	}
	for _, p := range []string{"/seller-profile", "/seller_profile"} {
		mux.HandleFunc("GET "+p, s.requireAuth(s.requireRole(store.RoleSeller, s.handleSellerProfile)))
		mux.HandleFunc("POST "+p, s.requireAuth(s.requireRole(store.RoleSeller, s.handleProfileUpdate)))
	}

	// Seller capabilities
	mux.HandleFunc("POST /upload-product", s.requireAuthJSON(s.requireRoleJSON(store.RoleSeller, "Only sellers can upload products", s.handleUploadProduct)))
	mux.HandleFunc("GET /post-upload", s.requireAuth(s.requireRole(store.RoleSeller, s.handlePostUploadPage)))
	mux.HandleFunc("GET /predictor", s.requireAuth(s.requireRole(store.RoleSeller, s.handlePredictorPage)))
	mux.HandleFunc("POST /predictor", s.requireAuth(s.requireRole(store.RoleSeller, s.handlePredict)))

	// Role-dependent info pages
	mux.HandleFunc("GET /about", s.requireAuth(s.handleAbout))
	mux.HandleFunc("GET /contact", s.requireAuth(s.handleContact))
	mux.HandleFunc("GET /market", s.requireAuth(s.handleMarket))
	mux.HandleFunc("GET /equipment", s.requireAuth(s.requireRole(store.RoleSeller, s.handleEquipment)))
	mux.HandleFunc("GET /schemes", s.requireAuth(s.requireRole(store.RoleSeller, s.handleSchemes)))

	// API
	mux.HandleFunc("POST /api/update-profile", s.requireAuthJSON(s.handleUpdateProfile))

	// Everything else is a 404 page
	mux.HandleFunc("/", s.handleNotFound)

	s.logger.Info("routes registered")
}
