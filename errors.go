package credcore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both unknown user and wrong password.
	// The two cases are never distinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account locked")
	// ErrMFARequired signals that the client must prompt for a second
	// factor and retry. It is not counted as a brute-force failure.
	ErrMFARequired = errors.New("mfa required")
	// ErrInvalidMFACode covers expired, exhausted, mismatched, and
	// replayed codes. The specific cause is logged, never returned.
	ErrInvalidMFACode = errors.New("invalid mfa code")
	// ErrMFANotEnabled is returned by MFA management calls for a user
	// without MFA configured.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrPasswordReuse rejects a password change to the current password.
	ErrPasswordReuse = errors.New("new password must differ from current password")
	// ErrUserNotFound must be returned by UserProvider implementations
	// when a lookup misses. The engine coarsens it before it reaches a
	// login caller.
	ErrUserNotFound = errors.New("user not found")
	// ErrSenderNotConfigured is returned by SendLoginCode when the engine
	// was built without a code-delivery sender.
	ErrSenderNotConfigured = errors.New("code sender not configured")
	// ErrSystemError covers collaborator timeouts and unexpected internal
	// failures. It is never counted as a brute-force failure.
	ErrSystemError = errors.New("system error")
	// ErrEngineNotReady is returned when the engine was not built through
	// the Builder.
	ErrEngineNotReady = errors.New("engine not ready")
)

// AccountLockedError carries the remaining lockout time alongside
// ErrAccountLocked.
type AccountLockedError struct {
	RemainingSeconds int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %ds", e.RemainingSeconds)
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }
