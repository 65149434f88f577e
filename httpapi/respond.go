// Package httpapi is the HTTP boundary: routing, payload decoding, and
// the mapping from the engine's typed errors to transport status codes.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chathub/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a typed error into its status code. Untagged
// errors are logged and surfaced as a generic internal error, never
// silently swallowed and never leaked verbatim.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	kind := errors.KindOf(err)
	if kind == errors.KindInternal {
		log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, statusOf(kind), map[string]string{"error": err.Error()})
}

func statusOf(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindConflict:
		return http.StatusConflict
	case errors.KindUnauthenticated:
		return http.StatusUnauthorized
	case errors.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.KindValidation, err, "malformed request body")
	}
	return nil
}
