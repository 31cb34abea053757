package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrMissingToken       = errors.New("no token supplied")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrForceLogout        = errors.New("account deactivated, session revoked")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
)

// CooldownError reports how long a caller must wait before requesting another
// password reset. Remaining is already rounded up to whole minutes.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	mins := int(e.Remaining / time.Minute)
	return fmt.Sprintf("please wait %d minute(s) before requesting another reset", mins)
}

// ValidationError carries a user-facing message for malformed auth input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
