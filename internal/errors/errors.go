package errors

import (
	"errors"
	"fmt"
)

// Common error types for the ePass manager
var (
	// Login errors
	ErrOTPNotFound = errors.New("otp not found or expired")
	ErrOTPExpired  = errors.New("otp has expired")
	ErrInvalidOTP  = errors.New("invalid otp")

	// Session errors
	ErrInvalidSession = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")

	// Telegram link errors
	ErrLinkCodeNotFound = errors.New("link code not found or expired")

	// Store errors
	ErrNotFound = errors.New("not found")

	// General errors
	ErrUnsupported = errors.New("unsupported operation")
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

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
