package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard server
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshFailed   = errors.New("session refresh failed")
	ErrNoRefreshToken  = errors.New("session has no refresh token")

	// Token errors
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Profile / role errors
	ErrProfileNotFound = errors.New("profile not found")

	// Configuration errors
	ErrNotConfigured = errors.New("backend not configured")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

