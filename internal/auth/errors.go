package auth

import "errors"

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTicketInvalid      = errors.New("invalid or spent ticket")
	ErrNotConfigured      = errors.New("admin credential not configured")
)
