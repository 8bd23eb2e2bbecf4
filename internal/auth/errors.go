package auth

import "errors"

var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("auth: invalid input")
	// ErrConflict marks a duplicate unique key, e.g. a taken username.
	ErrConflict = errors.New("auth: already exists")
	// ErrInvalidCredentials is the uniform login failure. It deliberately
	// carries no detail about whether the username exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated marks a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden marks an authenticated but disallowed operation.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrNotFound marks an absent user record.
	ErrNotFound = errors.New("auth: not found")
)
