// Package response writes JSON error bodies from plain http handlers.
// Routes registered through huma get their error shape from the API
// error handler; this package covers the chi middleware that rejects
// requests before they reach huma, such as the login rate limiter.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
)

// Envelope is the error body shape.
type Envelope struct {
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, Envelope{Error: message}); err != nil {
		if logger != nil {
			logger.Error("Failed to encode error response", "error", err)
		}
	}
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

// InternalError writes a 500 response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}
