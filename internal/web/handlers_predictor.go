// ABOUTME: Crop predictor page and prediction endpoint for sellers
// ABOUTME: Form inputs are parsed leniently; blank fields become zero

package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/taazamandi/mandi-gateway/internal/advisor"
)

func (s *Server) handlePredictorPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	s.renderPage(w, "predictor.html", pageData{
		Title:    "Crop Predictor",
		Identity: sess.Identity,
		Role:     sess.Role,
	})
}

// handlePredict runs the crop recommendation for form-posted features.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	var in advisor.Input
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"n", &in.N},
		{"p", &in.P},
		{"k", &in.K},
		{"humidity", &in.Humidity},
		{"rainfall", &in.Rainfall},
	} {
		raw := r.PostFormValue(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid value for "+f.name)
			return
		}
		*f.dst = v
	}

	rec, err := s.advisor.Recommend(in)
	if err != nil {
		var oor *advisor.OutOfRangeError
		switch {
		case errors.Is(err, advisor.ErrModelUnavailable):
			s.writeError(w, http.StatusServiceUnavailable, "Model not loaded on server")
		case errors.As(err, &oor):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("prediction failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeSuccess(w, envelope{
		"crop_name": rec.Crop,
		"n":         rec.Input.N,
		"p":         rec.Input.P,
		"k":         rec.Input.K,
		"humidity":  rec.Input.Humidity,
		"rainfall":  rec.Input.Rainfall,
		"timestamp": rec.GeneratedAt,
	})
}
