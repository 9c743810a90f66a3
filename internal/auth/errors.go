package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = errors.New("new password must be at least 8 characters long and contain lowercase, uppercase, digit and one of @$!%*?&")
	ErrPasswordReused     = errors.New("new password must be different from current password")
)
