package shared

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hrcore/internal/transport/http/api"
)

// PathID reads a UUID route parameter. A malformed id cannot name a row, so
// it is answered with 404 rather than reaching the database.
func PathID(w http.ResponseWriter, r *http.Request, param, requestID string) (string, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
		return "", false
	}
	return id.String(), true
}

// QueryID validates an optional UUID query parameter into v.
func (v *Validator) QueryID(r *http.Request, name string) string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return ""
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		v.Add(name, "must be a valid id")
		return ""
	}
	return id.String()
}
