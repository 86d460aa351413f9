// ABOUTME: Role-gated page handlers: feeds, profiles, and info pages
// ABOUTME: Feeds read product listings; info pages render role-flavored templates

package web

import (
	"net/http"

	"github.com/taazamandi/mandi-gateway/internal/store"
)

// handleBuyerFeed shows every listed product, newest first.
func (s *Server) handleBuyerFeed(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not load products: "+err.Error())
		return
	}
	s.renderPage(w, "buyer_feed.html", pageData{
		Title:    "Buyer Feed",
		Identity: sess.Identity,
		Role:     sess.Role,
		Products: products,
	})
}

// handleSellerFeed shows only the signed-in seller's own listings.
func (s *Server) handleSellerFeed(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	products, err := s.store.ListProductsBySeller(r.Context(), sess.Identity.Email)
	if err != nil {
		s.logger.Error("failed to list seller products", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not load products: "+err.Error())
		return
	}
	s.renderPage(w, "seller_feed.html", pageData{
		Title:    "Seller Feed",
		Identity: sess.Identity,
		Role:     sess.Role,
		Products: products,
	})
}

func (s *Server) handleBuyerProfile(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, "Buyer Profile")
}

func (s *Server) handleSellerProfile(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, "Seller Profile")
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, title string) {
	sess := sessionFromContext(r.Context())

	// The stored profile may lag behind the session identity for users who
	// signed up elsewhere; render whichever exists.
	profile, err := s.store.GetProfile(r.Context(), sess.Identity.SubjectID)
	if err != nil && err != store.ErrNotFound {
		s.logger.Error("failed to load profile", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not load profile: "+err.Error())
		return
	}

	s.renderPage(w, "profile.html", pageData{
		Title:    title,
		Identity: sess.Identity,
		Role:     sess.Role,
		Profile:  profile,
	})
}

// handleProfileUpdate handles the profile form post and re-renders the page.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	profile, err := s.store.GetProfile(r.Context(), sess.Identity.SubjectID)
	if err == store.ErrNotFound {
		profile = &store.Profile{ID: sess.Identity.SubjectID, Email: sess.Identity.Email}
	} else if err != nil {
		s.logger.Error("failed to load profile", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not load profile: "+err.Error())
		return
	}

	if v := r.PostFormValue("first_name"); v != "" {
		profile.FirstName = v
	}
	if v := r.PostFormValue("last_name"); v != "" {
		profile.LastName = v
	}
	if v := r.PostFormValue("phone"); v != "" {
		profile.Phone = v
	}
	if v := r.PostFormValue("state"); v != "" {
		profile.State = v
	}
	profile.FullName = profile.FirstName + " " + profile.LastName
	profile.UserType = string(sess.Role)

	if err := s.store.UpsertProfile(r.Context(), profile); err != nil {
		s.logger.Error("failed to save profile", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not save profile: "+err.Error())
		return
	}

	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
}

// handlePostUploadPage renders the product upload form for sellers.
func (s *Server) handlePostUploadPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	s.renderPage(w, "post_upload.html", pageData{
		Title:    "Upload Product",
		Identity: sess.Identity,
		Role:     sess.Role,
	})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.renderInfoPage(w, r, "About Us")
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.renderInfoPage(w, r, "Contact Us")
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.renderInfoPage(w, r, "Market Prices")
}

func (s *Server) handleEquipment(w http.ResponseWriter, r *http.Request) {
	s.renderInfoPage(w, r, "Farm Equipment")
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	s.renderInfoPage(w, r, "Government Schemes")
}

// renderInfoPage renders a simple titled page with the session's role so the
// shared navigation can adapt.
func (s *Server) renderInfoPage(w http.ResponseWriter, r *http.Request, title string) {
	sess := sessionFromContext(r.Context())
	s.renderPage(w, "page.html", pageData{
		Title:    title,
		Identity: sess.Identity,
		Role:     sess.Role,
	})
}

// handleNotFound renders the 404 page for unregistered paths.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	if err := s.templates.render(w, "404.html", pageData{Title: "Page Not Found"}); err != nil {
		s.logger.Error("failed to render 404 page", "error", err)
		http.Error(w, "404 page not found", http.StatusNotFound)
	}
}
