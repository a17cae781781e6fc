package auth

import "errors"

var (
	ErrEmailAlreadyExists = errors.New("email address already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPhone       = errors.New("invalid phone number format")
	ErrInvalidName        = errors.New("name must not be empty")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrUnknownRole        = errors.New("unknown role")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrAccountLocked      = errors.New("account temporarily locked due to repeated login failures")
	ErrSessionNotFound    = errors.New("session not found or expired")
)
