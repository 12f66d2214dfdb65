package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/booklibrary/backend/internal/services"
	"go.uber.org/zap"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgBodyTooLarge = "Request body too large"
	msgServerError  = "Server error"
	msgInvalidLogin = "Invalid credentials"
	msgAccessDenied = "Access denied"
	msgBookNotFound = "Book not found"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Message string `json:"message"`
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Message: message})
}

// respondServiceError maps service errors to status codes.
// Unknown errors are logged and reported as a generic 500.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		h.respondError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, msgInvalidLogin)
	case errors.Is(err, services.ErrForbidden):
		h.respondError(w, http.StatusForbidden, msgAccessDenied)
	case errors.Is(err, services.ErrBookNotFound):
		h.respondError(w, http.StatusNotFound, msgBookNotFound)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, msgServerError)
	}
}

// decodeJSON reads the request body into dst and answers 400 or 413 on failure.
// It reports whether decoding succeeded.
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return false
		}
		h.logger.Debug("failed to decode request body", zap.Error(err))
		h.respondError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}
