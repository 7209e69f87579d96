package rest

import (
	"encoding/json"
	"net/http"
)

// APIError represents a structured API error response
type APIError struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes for common scenarios
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// respondStructuredError sends a structured error response with error code and details
func respondStructuredError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := APIError{
		Error:   message,
		Code:    code,
		Message: message,
		Details: details,
	}
	json.NewEncoder(w).Encode(err)
}

// respondErrorWithCode is a convenience wrapper for structured errors
func respondErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	respondStructuredError(w, status, code, message, nil)
}
