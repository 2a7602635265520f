package domain

import "errors"

// Credential and session errors.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPrincipalNotFound  = errors.New("principal not found")
)

// Token validation outcomes. Callers collapse all of them into a single
// unauthorized response.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// Task access errors.
var (
	ErrValidation   = errors.New("validation failed")
	ErrTaskNotFound = errors.New("task not found")
	ErrForbidden    = errors.New("access forbidden")
)

// IsTokenError reports whether err is any token validation failure.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired)
}
