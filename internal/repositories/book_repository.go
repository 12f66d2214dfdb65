package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/booklibrary/backend/internal/models"
	"go.uber.org/zap"
)

var bookColumns = []string{"id", "title", "author", "genre", "rating", "created_at"}

type bookRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *zap.Logger
}

// NewBookRepository creates a new book repository backed by the books table
func NewBookRepository(db *sql.DB, logger *zap.Logger) *bookRepository {
	return &bookRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}
}

// Method Create is a BookRepository implementation for inserting a single book.
// ID and CreatedAt must already be set by the caller.
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	var rating sql.NullFloat64
	if book.Rating != nil {
		rating = sql.NullFloat64{Float64: *book.Rating, Valid: true}
	}

	query, args, err := r.builder.
		Insert("books").
		Columns(bookColumns...).
		Values(book.ID, book.Title, book.Author, book.Genre, rating, book.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert book query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to insert book", zap.Error(err))
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

// Method GetByID is a BookRepository implementation for retrieving a book by id.
// Returns ErrNotFound when no row matches.
func (r *bookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	query, args, err := r.builder.
		Select(bookColumns...).
		From("books").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select book query: %w", err)
	}

	book, err := scanBook(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to query book", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to query book: %w", err)
	}

	return book, nil
}

// Method List is a BookRepository implementation for retrieving one page of books matching the filter.
// It returns the page and the total number of matching books.
// Filters are AND-ed together; search matches title OR author.
// Rows are ordered by creation time, then id, so equal requests over unchanged data return equal pages.
func (r *bookRepository) List(ctx context.Context, filter models.BookFilter, page models.Pagination) ([]models.Book, int, error) {
	countQuery, countArgs, err := applyBookFilter(r.builder.Select("COUNT(*)").From("books"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count books query: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.logger.Error("failed to count books", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	books := []models.Book{}
	if total == 0 || page.Offset() >= total {
		return books, total, nil
	}

	query, args, err := applyBookFilter(r.builder.Select(bookColumns...).From("books"), filter).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list books query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query books", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			r.logger.Error("failed to scan book", zap.Error(err))
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return books, total, nil
}

// applyBookFilter adds one WHERE clause per provided filter.
// Case folding comes from the column collation (utf8mb4_0900_as_ci).
func applyBookFilter(b sq.SelectBuilder, filter models.BookFilter) sq.SelectBuilder {
	if filter.Genre != "" {
		b = b.Where(sq.Expr("genre LIKE ?", containsPattern(filter.Genre)))
	}
	if filter.MinRating != nil {
		b = b.Where(sq.GtOrEq{"rating": *filter.MinRating})
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		b = b.Where(sq.Or{
			sq.Expr("title LIKE ?", pattern),
			sq.Expr("author LIKE ?", pattern),
		})
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var book models.Book
	var rating sql.NullFloat64
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.Genre, &rating, &book.CreatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := rating.Float64
		book.Rating = &v
	}
	return &book, nil
}
