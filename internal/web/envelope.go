// ABOUTME: JSON response envelope helpers
// ABOUTME: Every JSON response carries status success|error plus a message on error

package web

import (
	"encoding/json"
	"net/http"
)

// envelope is the common JSON response shape. Extra fields ride alongside
// status and message.
type envelope map[string]any

// writeJSON writes v as a JSON response with the given HTTP status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeSuccess writes a success envelope merged with extra fields.
func (s *Server) writeSuccess(w http.ResponseWriter, extra envelope) {
	body := envelope{"status": "success"}
	for k, v := range extra {
		body[k] = v
	}
	s.writeJSON(w, http.StatusOK, body)
}

// writeError writes an error envelope with the given HTTP status and message.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, envelope{"status": "error", "message": message})
}

// decodeJSON decodes the request body into dst, tolerating an empty body the
// way the handlers expect (dst left zero-valued).
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
