package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/booklibrary/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or badly signed tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the authenticated identity carried by a token
type Principal struct {
	UserID   string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Claims is the JWT payload. The user object is nested because the browser client
// reads user.username and user.role from the decoded token.
type Claims struct {
	User Principal `json:"user"`
	jwt.RegisteredClaims
}

// TokenService handles JWT token issuing and verification
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue generates a signed token for the user
func (ts *TokenService) Issue(user *models.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("user is required")
	}

	now := ts.now()
	claims := Claims{
		User: Principal{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify validates a token and returns the principal encoded in it.
// Every failure wraps ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.User.UserID == "" {
		return nil, fmt.Errorf("%w: user id not found in token", ErrInvalidToken)
	}
	if claims.User.Role != models.RoleMember && claims.User.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.User.Role)
	}

	principal := claims.User
	return &principal, nil
}
