package handlers

import (
	"encoding/json"
	"net/http"
)

// respondJSON writes a JSON response. A nil payload becomes an empty object
// so clients always receive a JSON body.
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	if payload == nil {
		payload = map[string]string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// decodeBody parses the request body into out. A malformed or empty body is
// treated as an empty document rather than a request failure; field-level
// validation decides what is actually missing.
func decodeBody(r *http.Request, out any) {
	_ = json.NewDecoder(r.Body).Decode(out)
}
