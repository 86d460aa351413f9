// ABOUTME: Embedded HTML templates, parsed once at startup
// ABOUTME: Every page template is combined with base.html into its own set

package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/taazamandi/mandi-gateway/internal/auth"
	"github.com/taazamandi/mandi-gateway/internal/store"
)

// pageData is the model every page template renders from.
type pageData struct {
	Title    string
	Error    string
	Identity *auth.Identity
	Role     store.Role
	Products []*store.Product
	Profile  *store.Profile
}

// templateSet holds one parsed template per page, each sharing base.html.
type templateSet struct {
	pages map[string]*template.Template
}

// parseTemplates builds the set from the embedded filesystem. Fails at
// startup on any parse error rather than at request time.
func parseTemplates() (*templateSet, error) {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("globbing templates: %w", err)
	}

	set := &templateSet{pages: make(map[string]*template.Template)}
	for _, entry := range entries {
		name := path.Base(entry)
		if name == "base.html" {
			continue
		}
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", entry)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		set.pages[name] = tmpl
	}
	return set, nil
}

// render writes the named page to w.
func (t *templateSet) render(w io.Writer, name string, data pageData) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// renderPage renders a page template with a 200 status.
func (s *Server) renderPage(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.render(w, name, data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// renderError renders the 500 page with a message.
func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.render(w, "500.html", pageData{Title: "Server Error", Error: message}); err != nil {
		s.logger.Error("failed to render error page", "error", err)
		http.Error(w, message, status)
	}
}
