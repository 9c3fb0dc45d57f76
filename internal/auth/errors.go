package auth

import "errors"

var (
	ErrNotFound        = errors.New("no user found")
	ErrAlreadyExists   = errors.New("a user with this email already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("incorrect email or password")
	ErrForbidden       = errors.New("you do not have permission to perform this action")

	// ErrInvalidToken covers malformed, expired and stale session tokens.
	ErrInvalidToken = errors.New("invalid or expired session")

	// ErrTokenExpiredOrInvalid covers one-time verification and reset tokens.
	ErrTokenExpiredOrInvalid = errors.New("token is invalid or has expired")
)
