package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iranadryan/task-manager/internal/domain"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err without leaking storage details to the client.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		writeError(w, status, err.Error())
	case http.StatusUnauthorized:
		writeError(w, status, "please authenticate")
	case http.StatusNotFound:
		writeError(w, status, "not found")
	default:
		r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		writeError(w, status, "internal error")
	}
}

// decodeFields reads a JSON object body, keeping raw values for allow-list checks.
func decodeFields(w http.ResponseWriter, req *http.Request) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBody)).Decode(&fields); err != nil {
		return nil, domain.NewValidationError("", "invalid JSON body")
	}
	if fields == nil {
		return nil, domain.NewValidationError("", "body must be a JSON object")
	}
	return fields, nil
}
