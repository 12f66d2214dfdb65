package handlers

import (
	"context"
	"net/http"

	"github.com/booklibrary/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for account business logic.
type AuthService interface {
	// Method Signup validates the credentials, creates a member account and returns a signed token.
	//
	// Invalid or already taken usernames produce a *services.ValidationError.
	Signup(ctx context.Context, username, password string) (string, error)
	// Method Login checks the credentials and returns a signed token.
	//
	// Unknown users and wrong passwords both produce services.ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles signup and login requests
type AuthHandler struct {
	BaseHandler
	service AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})
}

// Signup handles POST /api/auth/signup
// @Summary Create an account
// @Description Create a member account and return a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Username and password"
// @Success 201 {object} models.TokenResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /api/auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if !h.decodeJSON(w, r, &req) {
		return
	}

	token, err := h.service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, models.TokenResponse{Token: token})
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Check credentials and return a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Username and password"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if !h.decodeJSON(w, r, &req) {
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}
