// ABOUTME: Product upload handler: multipart form to blob store to listing row
// ABOUTME: Missing images fall back to a category placeholder URL

package web

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taazamandi/mandi-gateway/internal/blob"
	"github.com/taazamandi/mandi-gateway/internal/store"
)

// maxUploadBytes caps a product upload request, images included.
const maxUploadBytes = 16 << 20

// handleUploadProduct creates a listing from a multipart form. Image files are
// uploaded to blob storage first; the listing row is written only after every
// upload succeeded.
func (s *Server) handleUploadProduct(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}

	fields := map[string]string{
		"title":       strings.TrimSpace(r.PostFormValue("title")),
		"description": strings.TrimSpace(r.PostFormValue("description")),
		"quantity":    strings.TrimSpace(r.PostFormValue("quantity")),
		"price":       strings.TrimSpace(r.PostFormValue("price")),
		"category":    strings.TrimSpace(r.PostFormValue("category")),
		"location":    strings.TrimSpace(r.PostFormValue("location")),
	}
	var missing []string
	for _, name := range []string{"title", "description", "quantity", "price", "category", "location"} {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		s.writeError(w, http.StatusBadRequest, "Missing fields: "+strings.Join(missing, ", "))
		return
	}

	var images []string
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "Could not read uploaded file: "+err.Error())
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "Could not read uploaded file: "+err.Error())
				return
			}

			objectPath := blob.ObjectName(sess.Identity.SubjectID, fh.Filename, time.Now())
			imageURL, err := s.blobs.Upload(r.Context(), objectPath, data)
			if err != nil {
				s.logger.Error("blob upload failed", "path", objectPath, "error", err)
				s.writeError(w, http.StatusInternalServerError, "Storage upload failed: "+err.Error())
				return
			}
			images = append(images, imageURL)
		}
	}
	if len(images) == 0 {
		images = []string{placeholderImageURL(fields["category"])}
	}

	product := &store.Product{
		ID:          uuid.NewString(),
		Title:       fields["title"],
		Description: fields["description"],
		Quantity:    fields["quantity"],
		Price:       fields["price"],
		Category:    fields["category"],
		Location:    fields["location"],
		Images:      images,
		SellerEmail: sess.Identity.Email,
	}
	if err := s.store.CreateProduct(r.Context(), product); err != nil {
		s.logger.Error("failed to insert product", "error", err)
		s.writeError(w, http.StatusInternalServerError, "DB insert failed: "+err.Error())
		return
	}

	s.logger.Info("product uploaded",
		"product_id", product.ID,
		"seller", product.SellerEmail,
		"images", len(images))
	s.writeSuccess(w, envelope{
		"message":      "Product uploaded successfully",
		"product":      product,
		"redirect_url": "/seller-feed",
	})
}

// placeholderImageURL is shown for listings uploaded without photos.
func placeholderImageURL(category string) string {
	return "https://via.placeholder.com/400x240?text=" + url.QueryEscape(category)
}
