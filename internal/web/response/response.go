// Package response renders JSON responses for the parse service.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RenderJSON writes v as JSON with the given status
func RenderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderError renders an error with a machine-readable code
func RenderError(w http.ResponseWriter, statusCode int, code, message string) {
	RenderJSON(w, statusCode, &ErrorResponse{Error: code, Message: message})
}

// RenderErrorWithDetails renders an error with additional details
func RenderErrorWithDetails(w http.ResponseWriter, statusCode int, code, message string, details interface{}) {
	RenderJSON(w, statusCode, &ErrorResponse{Error: code, Message: message, Details: details})
}
