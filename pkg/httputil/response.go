// Package httputil provides the JSON response helpers shared by the gateway
// and its operational endpoints.
package httputil

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ContentTypeJSON is the media type of every JSON response.
const ContentTypeJSON = "application/json"

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", ContentTypeJSON)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error body of the form
// {"error": code, "message": message}.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// AllowMethods rejects requests whose method is not listed with 405 and an
// Allow header. It reports whether the request may proceed.
func AllowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method "+r.Method+" is not allowed")
	return false
}
