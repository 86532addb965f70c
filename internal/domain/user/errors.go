package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput indicates a missing email or token.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrSessionInvalid indicates an unknown or expired session token.
	ErrSessionInvalid = errors.New("session invalid or expired")
)
