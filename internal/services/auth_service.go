package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/booklibrary/backend/internal/models"
	"github.com/booklibrary/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for Users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" must carry an ID, a username, a password hash and a role.
	// If the username is already taken, an error wrapping repositories.ErrDuplicate is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByUsername retrieves a user by exact username.
	//
	// If no user has this username, repositories.ErrNotFound is returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// TokenIssuer signs tokens for authenticated users
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit
	minUsernameLength = 3
	maxUsernameLength = 50
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

type authService struct {
	repo   UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(repo UserRepository, tokens TokenIssuer, logger *zap.Logger) *authService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

// Signup creates a member account and returns a signed token for it
func (s *authService) Signup(ctx context.Context, username, password string) (string, error) {
	user, err := s.createUser(ctx, username, password, models.RoleMember)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue token", zap.String("userId", user.ID), zap.Error(err))
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// Login checks credentials and returns a signed token.
//
// Unknown usernames and wrong passwords produce the same ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue token", zap.String("userId", user.ID), zap.Error(err))
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// EnsureAdmin creates an admin account unless the username is already taken.
// It reports whether a new account was created; an existing user is left unchanged.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	exists, err := s.repo.ExistsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	if exists {
		return false, nil
	}

	user, err := s.createUser(ctx, username, password, models.RoleAdmin)
	if err != nil {
		return false, err
	}

	s.logger.Info("admin account created", zap.String("username", user.Username))
	return true, nil
}

func (s *authService) createUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	username, err := validateCredentials(username, password)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, newValidationError("username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	// A concurrent signup can still win the race between the check and the insert
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newValidationError("username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// validateCredentials returns the trimmed username when both fields are acceptable
func validateCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", newValidationError("Username and password are required")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return "", newValidationError(fmt.Sprintf("Username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
	}
	if !usernameRegex.MatchString(username) {
		return "", newValidationError("Username may only contain letters, digits, '_', '.' and '-'")
	}
	if len(password) < minPasswordLength {
		return "", newValidationError(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return "", newValidationError(fmt.Sprintf("Password must be at most %d bytes", maxPasswordLength))
	}
	return username, nil
}
