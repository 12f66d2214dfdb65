package handlers

import (
	"context"
	"net/http"

	authmw "github.com/booklibrary/backend/internal/auth/middleware"
	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BookService is the interface that wraps methods for book catalog business logic.
type BookService interface {
	// Method CreateBook validates "req" and stores a new book on behalf of "principal".
	//
	// Non-admin principals get services.ErrForbidden.
	// Missing fields or an out of range rating produce a *services.ValidationError.
	CreateBook(ctx context.Context, principal *service.Principal, req *models.CreateBookRequest) (*models.Book, error)
	// Method ListBooks returns one page of books matching the raw query parameters.
	//
	// Malformed page and limit values fall back to defaults; a malformed rating is a *services.ValidationError.
	ListBooks(ctx context.Context, query models.BookQuery) (*models.BookListResponse, error)
	// Method GetBook retrieves a book by id.
	//
	// Unknown or malformed ids produce services.ErrBookNotFound.
	GetBook(ctx context.Context, id string) (*models.Book, error)
}

// BookHandler handles HTTP requests for books
type BookHandler struct {
	BaseHandler
	service  BookService
	verifier authmw.TokenVerifier
}

// NewBookHandler creates a new book handler
func NewBookHandler(svc BookService, verifier authmw.TokenVerifier, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     svc,
		verifier:    verifier,
	}
}

// RegisterRoutes registers all book handler routes.
// Creating books requires an admin token; reads are public.
func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.With(
			authmw.RequireAuth(h.verifier),
			authmw.RequireRole(models.RoleAdmin),
		).Post("/", h.Create)
	})
}

// Create handles POST /books
// @Summary Create a book
// @Description Create a book. Requires an admin token in the x-auth-token header.
// @Tags books
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param book body models.CreateBookRequest true "Book to create"
// @Success 201 {object} models.Book
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /books [post]
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	principal, _ := authmw.PrincipalFromContext(r.Context())
	book, err := h.service.CreateBook(r.Context(), principal, &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, book)
}

// List handles GET /books
// @Summary List books
// @Description List books page by page with optional genre, minimum rating and title/author search filters
// @Tags books
// @Produce json
// @Param page query int false "Page number, default: 1"
// @Param limit query int false "Page size, default: 10, max: 100"
// @Param genre query string false "Genre substring, case insensitive"
// @Param rating query number false "Minimum rating, inclusive"
// @Param search query string false "Title or author substring, case insensitive"
// @Success 200 {object} models.BookListResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /books [get]
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.BookQuery{
		Page:   q.Get("page"),
		Limit:  q.Get("limit"),
		Genre:  q.Get("genre"),
		Rating: q.Get("rating"),
		Search: q.Get("search"),
	}

	resp, err := h.service.ListBooks(r.Context(), query)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// Get handles GET /books/{id}
// @Summary Get a book
// @Description Get a single book by id
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} models.Book
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, book)
}
