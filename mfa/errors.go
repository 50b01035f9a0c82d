package mfa

import "errors"

var (
	// ErrExpired indicates the pending code's TTL has passed.
	ErrExpired = errors.New("mfa code expired")
	// ErrAttemptsExceeded indicates the attempt budget is exhausted; the
	// pending record has been destroyed.
	ErrAttemptsExceeded = errors.New("mfa code attempts exceeded")
	// ErrMismatch indicates the submitted code does not match.
	ErrMismatch = errors.New("mfa code mismatch")
	// ErrNotConfigured indicates no pending code or factor exists.
	ErrNotConfigured = errors.New("mfa not configured")
	// ErrReplay indicates a TOTP code was re-submitted for an already
	// accepted time step.
	ErrReplay = errors.New("totp replay detected")
	// ErrSendThrottled indicates the per-destination send budget is spent.
	ErrSendThrottled = errors.New("mfa code send throttled")
	// ErrUnavailable indicates the pending-code backend is unreachable.
	ErrUnavailable = errors.New("mfa store unavailable")
)
