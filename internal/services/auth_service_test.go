package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/models"
	"github.com/booklibrary/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockUserRepository is an in-memory implementation of UserRepository
type mockUserRepository struct {
	users     map[string]*models.User
	err       error
	createErr error
	created   []*models.User
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.err != nil {
		return m.err
	}
	m.users[user.Username] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.users[username]
	return ok, nil
}

// mockTokenIssuer is a mock implementation of TokenIssuer
type mockTokenIssuer struct {
	err error
}

func (m *mockTokenIssuer) Issue(user *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-" + user.Username, nil
}

func hashedUser(t *testing.T, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "id-" + username, Username: username, PasswordHash: string(hash), Role: role}
}

func TestNewAuthService(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	repo := newMockUserRepository()
	tokens := &mockTokenIssuer{}

	svc := NewAuthService(repo, tokens, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, repo, svc.repo)
	assert.Equal(t, tokens, svc.tokens)
	assert.Equal(t, logger, svc.logger)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name            string
		username        string
		password        string
		repo            *mockUserRepository
		tokens          *mockTokenIssuer
		expectedToken   string
		expectedMessage string
		expectedError   bool
	}{
		{
			name:          "success",
			username:      "alice",
			password:      "secret1",
			repo:          newMockUserRepository(),
			tokens:        &mockTokenIssuer{},
			expectedToken: "token-alice",
		},
		{
			name:          "username is trimmed",
			username:      "  bob.smith  ",
			password:      "secret1",
			repo:          newMockUserRepository(),
			tokens:        &mockTokenIssuer{},
			expectedToken: "token-bob.smith",
		},
		{
			name:            "empty username",
			username:        "   ",
			password:        "secret1",
			repo:            newMockUserRepository(),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "Username and password are required",
			expectedError:   true,
		},
		{
			name:            "username too short",
			username:        "ab",
			password:        "secret1",
			repo:            newMockUserRepository(),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "Username must be between 3 and 50 characters",
			expectedError:   true,
		},
		{
			name:            "username too long",
			username:        strings.Repeat("a", 51),
			password:        "secret1",
			repo:            newMockUserRepository(),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "Username must be between 3 and 50 characters",
			expectedError:   true,
		},
		{
			name:            "username with invalid characters",
			username:        "al ice",
			password:        "secret1",
			repo:            newMockUserRepository(),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "Username may only contain letters, digits, '_', '.' and '-'",
			expectedError:   true,
		},
		{
			name:            "password too short",
			username:        "alice",
			password:        "12345",
			repo:            newMockUserRepository(),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "Password must be at least 6 characters",
			expectedError:   true,
		},
		{
			name:            "password too long",
			username:        "alice",
			password:        strings.Repeat("p", 73),
			repo:            newMockUserRepository(),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "Password must be at most 72 bytes",
			expectedError:   true,
		},
		{
			name:            "username taken",
			username:        "alice",
			password:        "secret1",
			repo:            newMockUserRepository(&models.User{ID: "1", Username: "alice"}),
			tokens:          &mockTokenIssuer{},
			expectedMessage: "username already exists",
			expectedError:   true,
		},
		{
			name:            "duplicate key on insert",
			username:        "alice",
			password:        "secret1",
			repo:            &mockUserRepository{users: map[string]*models.User{}, createErr: fmt.Errorf("username: %w", repositories.ErrDuplicate)},
			tokens:          &mockTokenIssuer{},
			expectedMessage: "username already exists",
			expectedError:   true,
		},
		{
			name:          "repository error",
			username:      "alice",
			password:      "secret1",
			repo:          &mockUserRepository{users: map[string]*models.User{}, err: errors.New("db down")},
			tokens:        &mockTokenIssuer{},
			expectedError: true,
		},
		{
			name:          "token error",
			username:      "alice",
			password:      "secret1",
			repo:          newMockUserRepository(),
			tokens:        &mockTokenIssuer{err: errors.New("sign failed")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := zap.NewDevelopment()
			svc := NewAuthService(tt.repo, tt.tokens, logger)

			token, err := svc.Signup(context.Background(), tt.username, tt.password)

			if tt.expectedError {
				require.Error(t, err)
				assert.Empty(t, token)
				if tt.expectedMessage != "" {
					var ve *ValidationError
					require.ErrorAs(t, err, &ve)
					assert.Equal(t, tt.expectedMessage, ve.Message)
				} else {
					assert.False(t, IsValidationError(err))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedToken, token)
			require.Len(t, tt.repo.created, 1)
			created := tt.repo.created[0]
			assert.Equal(t, models.RoleMember, created.Role)
			assert.NotEmpty(t, created.ID)
			assert.NotEqual(t, tt.password, created.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(tt.password)))
		})
	}
}

func TestAuthService_SignupTokenCarriesMemberRole(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	tokens := service.NewTokenService("test-secret", time.Hour)
	svc := NewAuthService(newMockUserRepository(), tokens, logger)

	token, err := svc.Signup(context.Background(), "reader", "secret1")
	require.NoError(t, err)

	principal, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "reader", principal.Username)
	assert.Equal(t, models.RoleMember, principal.Role)
}

func TestAuthService_Login(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	existing := hashedUser(t, "alice", "secret1", models.RoleMember)

	tests := []struct {
		name          string
		username      string
		password      string
		repo          *mockUserRepository
		tokens        *mockTokenIssuer
		expectedToken string
		expectedErr   error
		expectedError bool
	}{
		{
			name:          "success",
			username:      "alice",
			password:      "secret1",
			repo:          newMockUserRepository(existing),
			tokens:        &mockTokenIssuer{},
			expectedToken: "token-alice",
		},
		{
			name:          "success with padded username",
			username:      " alice ",
			password:      "secret1",
			repo:          newMockUserRepository(existing),
			tokens:        &mockTokenIssuer{},
			expectedToken: "token-alice",
		},
		{
			name:          "wrong password",
			username:      "alice",
			password:      "wrong-password",
			repo:          newMockUserRepository(existing),
			tokens:        &mockTokenIssuer{},
			expectedErr:   ErrInvalidCredentials,
			expectedError: true,
		},
		{
			name:          "unknown user",
			username:      "nobody",
			password:      "secret1",
			repo:          newMockUserRepository(existing),
			tokens:        &mockTokenIssuer{},
			expectedErr:   ErrInvalidCredentials,
			expectedError: true,
		},
		{
			name:          "empty fields",
			username:      "",
			password:      "",
			repo:          newMockUserRepository(existing),
			tokens:        &mockTokenIssuer{},
			expectedErr:   ErrInvalidCredentials,
			expectedError: true,
		},
		{
			name:          "repository error",
			username:      "alice",
			password:      "secret1",
			repo:          &mockUserRepository{err: errors.New("db down")},
			tokens:        &mockTokenIssuer{},
			expectedError: true,
		},
		{
			name:          "token error",
			username:      "alice",
			password:      "secret1",
			repo:          newMockUserRepository(existing),
			tokens:        &mockTokenIssuer{err: errors.New("sign failed")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, tt.tokens, logger)

			token, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError {
				require.Error(t, err)
				assert.Empty(t, token)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				} else {
					assert.NotErrorIs(t, err, ErrInvalidCredentials)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedToken, token)
		})
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := NewAuthService(newMockUserRepository(hashedUser(t, "alice", "secret1", models.RoleMember)), &mockTokenIssuer{}, logger)

	_, wrongPassword := svc.Login(context.Background(), "alice", "nope-nope")
	_, unknownUser := svc.Login(context.Background(), "mallory", "secret1")

	assert.Equal(t, wrongPassword, unknownUser)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("creates admin", func(t *testing.T) {
		repo := newMockUserRepository()
		svc := NewAuthService(repo, &mockTokenIssuer{}, logger)

		created, err := svc.EnsureAdmin(context.Background(), "root", "rootpass")

		require.NoError(t, err)
		assert.True(t, created)
		require.Len(t, repo.created, 1)
		assert.Equal(t, models.RoleAdmin, repo.created[0].Role)
	})

	t.Run("existing user left unchanged", func(t *testing.T) {
		existing := &models.User{ID: "1", Username: "root", PasswordHash: "old", Role: models.RoleMember}
		repo := newMockUserRepository(existing)
		svc := NewAuthService(repo, &mockTokenIssuer{}, logger)

		created, err := svc.EnsureAdmin(context.Background(), "root", "rootpass")

		require.NoError(t, err)
		assert.False(t, created)
		assert.Empty(t, repo.created)
		assert.Equal(t, "old", repo.users["root"].PasswordHash)
		assert.Equal(t, models.RoleMember, repo.users["root"].Role)
	})

	t.Run("invalid password", func(t *testing.T) {
		svc := NewAuthService(newMockUserRepository(), &mockTokenIssuer{}, logger)

		created, err := svc.EnsureAdmin(context.Background(), "root", "123")

		assert.False(t, created)
		assert.True(t, IsValidationError(err))
	})

	t.Run("repository error", func(t *testing.T) {
		svc := NewAuthService(&mockUserRepository{err: errors.New("db down")}, &mockTokenIssuer{}, logger)

		created, err := svc.EnsureAdmin(context.Background(), "root", "rootpass")

		assert.False(t, created)
		assert.Error(t, err)
	})
}
