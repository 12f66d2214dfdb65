package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/models"
	"github.com/booklibrary/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookRepository is the interface that wraps methods for Books table data access
type BookRepository interface {
	// Method Create inserts a single book.
	//
	// "book" must already carry its ID and CreatedAt values.
	// If some error occurs during insert, the error will be returned.
	Create(ctx context.Context, book *models.Book) error
	// Method GetByID retrieves a book by its ID.
	//
	// If no book has this ID, repositories.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.Book, error)
	// Method List retrieves one page of books matching "filter" together with the total number of matches.
	//
	// Filters are combined with AND, search matches title or author, and absent filters are not applied.
	// Rows are ordered by creation time and id, so identical calls over unchanged data return identical pages.
	// A page past the end returns an empty slice and the total.
	List(ctx context.Context, filter models.BookFilter, page models.Pagination) ([]models.Book, int, error)
}

const (
	defaultPage  = 1
	maxPage      = math.MaxInt
	defaultLimit = 10
	maxLimit     = 100

	// Column widths of the books table
	maxTitleLength  = 255
	maxAuthorLength = 255
	maxGenreLength  = 100

	minRating = 1
	maxRating = 5
)

const (
	msgRequiredFields = "Title, author, and genre are required"
	msgRatingRange    = "Rating must be between 1 and 5"
	msgRatingNumber   = "Rating must be a number"
	msgFieldTooLong   = "%s must be at most %d characters"
)

// ImportError reports which input of a batch import failed
type ImportError struct {
	Index int
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("book #%d: %v", e.Index+1, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

type bookService struct {
	repo   BookRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewBookService creates a new book catalog service
func NewBookService(repo BookRepository, logger *zap.Logger) *bookService {
	return &bookService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateBook validates the request and stores a new book.
//
// Only admins may create books. Validation stops at the first failure:
// missing title, author or genre first, then a rating outside 1..5.
func (s *bookService) CreateBook(ctx context.Context, principal *service.Principal, req *models.CreateBookRequest) (*models.Book, error) {
	if principal == nil || principal.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	book, err := newBook(req)
	if err != nil {
		return nil, err
	}
	book.ID = uuid.NewString()
	book.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	if err := s.repo.Create(ctx, book); err != nil {
		s.logger.Error("failed to create book", zap.Error(err))
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	return book, nil
}

// ListBooks returns one page of books matching the query.
//
// Malformed page and limit values fall back to their defaults; a malformed rating is a ValidationError.
func (s *bookService) ListBooks(ctx context.Context, query models.BookQuery) (*models.BookListResponse, error) {
	filter, err := parseBookFilter(query)
	if err != nil {
		return nil, err
	}
	page := parsePagination(query.Page, query.Limit)

	books, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list books", zap.Error(err))
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	if books == nil {
		books = []models.Book{}
	}

	return &models.BookListResponse{
		Books:       books,
		TotalPages:  totalPages(total, page.Limit),
		CurrentPage: page.Page,
	}, nil
}

// GetBook retrieves a single book. Ids that are not UUIDs never reach the database.
func (s *bookService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBookNotFound
	}

	book, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		s.logger.Error("failed to get book", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return book, nil
}

// ImportBooks creates books one by one and stops at the first failure.
// It returns the number of books stored before the failure.
func (s *bookService) ImportBooks(ctx context.Context, principal *service.Principal, reqs []models.CreateBookRequest) (int, error) {
	for i := range reqs {
		if _, err := s.CreateBook(ctx, principal, &reqs[i]); err != nil {
			return i, &ImportError{Index: i, Err: err}
		}
	}
	return len(reqs), nil
}

func newBook(req *models.CreateBookRequest) (*models.Book, error) {
	if req == nil {
		return nil, newValidationError(msgRequiredFields)
	}

	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	genre := strings.TrimSpace(req.Genre)
	if title == "" || author == "" || genre == "" {
		return nil, newValidationError(msgRequiredFields)
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"Title", title, maxTitleLength},
		{"Author", author, maxAuthorLength},
		{"Genre", genre, maxGenreLength},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return nil, newValidationError(fmt.Sprintf(msgFieldTooLong, f.name, f.max))
		}
	}

	book := &models.Book{Title: title, Author: author, Genre: genre}
	if req.Rating.Set {
		v := req.Rating.Value
		if req.Rating.Invalid || !(v >= minRating && v <= maxRating) {
			return nil, newValidationError(msgRatingRange)
		}
		book.Rating = &v
	}

	return book, nil
}

func parseBookFilter(query models.BookQuery) (models.BookFilter, error) {
	filter := models.BookFilter{
		Genre:  strings.TrimSpace(query.Genre),
		Search: strings.TrimSpace(query.Search),
	}

	if raw := strings.TrimSpace(query.Rating); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.BookFilter{}, newValidationError(msgRatingNumber)
		}
		filter.MinRating = &v
	}

	return filter, nil
}

func parsePagination(rawPage, rawLimit string) models.Pagination {
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	switch {
	case errors.Is(err, strconv.ErrRange) && page > 0:
		// A numeric page too large for int is still past the last page
		page = maxPage
	case err != nil || page < 1:
		page = defaultPage
	}

	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return models.Pagination{Page: page, Limit: limit}
}

func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
