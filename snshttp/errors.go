package snshttp

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// writeError replies with a JSON error document. The message never carries
// the underlying cause.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(errorBody{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}
