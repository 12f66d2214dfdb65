package services

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when the principal lacks the required role
	ErrForbidden = errors.New("access denied")
	// ErrBookNotFound is returned when no book matches the requested id
	ErrBookNotFound = errors.New("book not found")
)

// ValidationError reports a client input problem.
// Its message is safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
