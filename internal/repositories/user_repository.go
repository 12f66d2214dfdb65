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

type userRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *zap.Logger
}

// NewUserRepository creates a new user repository backed by the users table
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}
}

// Method Create inserts a new user.
// A unique key violation on username is reported as ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query, args, err := r.builder.
		Insert("users").
		Columns("id", "username", "password_hash", "role").
		Values(user.ID, user.Username, user.PasswordHash, string(user.Role)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert user query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
		}
		r.logger.Error("failed to insert user", zap.Error(err))
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Method GetByUsername retrieves a user by exact username, or ErrNotFound.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query, args, err := r.builder.
		Select("id", "username", "password_hash", "role").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select user query: %w", err)
	}

	var user models.User
	var role string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Username, &user.PasswordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to query user", zap.Error(err))
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.Role = models.Role(role)

	return &user, nil
}

// Method ExistsByUsername reports whether a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query, args, err := r.builder.
		Select("COUNT(*)").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build count user query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("failed to check user existence", zap.Error(err))
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return count > 0, nil
}
