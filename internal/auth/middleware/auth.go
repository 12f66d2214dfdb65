package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/booklibrary/backend/internal/auth/service"
	"github.com/booklibrary/backend/internal/models"
)

// TokenHeader carries the raw token string (no "Bearer" prefix)
const TokenHeader = "x-auth-token"

// Gate failures
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

// TokenVerifier is the interface that wraps token verification.
type TokenVerifier interface {
	// Method Verify validates a token string and returns the principal encoded in it.
	//
	// Any malformed, expired or badly signed token results in an error together with "nil" value.
	Verify(token string) (*service.Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

// Authenticate extracts the token from the request header and verifies it
func Authenticate(r *http.Request, verifier TokenVerifier) (*service.Principal, error) {
	token := strings.TrimSpace(r.Header.Get(TokenHeader))
	if token == "" {
		return nil, ErrUnauthenticated
	}

	principal, err := verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return principal, nil
}

// Authorize checks that the principal holds the required role
func Authorize(principal *service.Principal, role models.Role) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if principal.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireAuth validates the token and stores the principal in the request context
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := Authenticate(r, verifier)
			if err != nil {
				message := "No token, authorization denied"
				if r.Header.Get(TokenHeader) != "" {
					message = "Token is not valid"
				}
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects requests whose principal does not hold the role.
// It must run after RequireAuth.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := PrincipalFromContext(r.Context())
			switch err := Authorize(principal, role); {
			case errors.Is(err, ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			case err != nil:
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal returns a copy of ctx carrying the principal
func WithPrincipal(ctx context.Context, principal *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext retrieves the principal attached by RequireAuth
func PrincipalFromContext(ctx context.Context) (*service.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*service.Principal)
	return principal, ok && principal != nil
}

type errorBody struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Message: message})
}
