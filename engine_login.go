package credcore

import (
	"context"
	"encoding/base32"
	"errors"
	"strconv"
	"strings"

	"github.com/avheli/credcore/mfa"
)

// identifier scopes brute-force tracking to account+origin, so one
// distributed attacker cannot lock an account globally while a
// single-source attacker is still stopped.
func loginIdentifier(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Authenticate runs one login attempt through the guard, credential, and
// MFA gates, and mints a session pair on full success.
//
// Decision errors are coarsened: unknown user and wrong password are both
// ErrInvalidCredentials, every MFA failure is ErrInvalidMFACode. The one
// distinguishable rejection is ErrMFARequired, returned with
// AuthResult.RequiresMFA set when a password-valid user must supply a
// second factor.
func (e *Engine) Authenticate(ctx context.Context, creds Credentials, client ClientInfo) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	identifier := loginIdentifier(email, client.IP)

	base := SecurityEvent{
		Type:      EventLogin,
		Email:     email,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	}

	// Guard gate. A locked identifier never reaches the hash, keeping the
	// cost of an active attack flat.
	blocked, err := e.guard.IsBlocked(ctx, identifier)
	if err != nil {
		return nil, e.systemError(ctx, base, "guard check: "+err.Error())
	}
	if blocked {
		remaining, _ := e.guard.RemainingLockSeconds(ctx, identifier)
		e.metrics.Inc(MetricGuardBlocked)
		e.metrics.Inc(MetricLoginLocked)
		ev := base
		ev.Error = "account locked"
		ev.Metadata = map[string]string{"remainingSeconds": strconv.Itoa(remaining)}
		e.emit(ctx, ev)
		return nil, &AccountLockedError{RemainingSeconds: remaining}
	}

	// Credential gate.
	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		// Timeouts and backend faults are not the user's fault: they are
		// surfaced as system errors and never counted against the guard.
		if !errors.Is(err, ErrUserNotFound) {
			return nil, e.systemError(ctx, base, "user lookup: "+err.Error())
		}
		// Unknown user: verify against a fixed placeholder so the response
		// time does not reveal whether the account exists.
		_, _ = e.passwords.Verify(creds.Password, e.dummyHash)
		return nil, e.loginFailure(ctx, base, identifier, "unknown user")
	}
	user = user.clone()
	base.UserID = user.ID

	ok, err := e.passwords.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		return nil, e.systemError(ctx, base, "hash verify: "+err.Error())
	}
	if !ok {
		return nil, e.loginFailure(ctx, base, identifier, "wrong password")
	}

	// MFA gate.
	if user.MFAEnabled {
		if creds.MFACode == "" {
			e.metrics.Inc(MetricMFARequired)
			ev := base
			ev.Error = "mfa required"
			e.emit(ctx, ev)
			return &AuthResult{RequiresMFA: true}, ErrMFARequired
		}
		cause, err := e.verifyMFA(ctx, user, creds.MFACode)
		if err != nil {
			if errors.Is(err, ErrSystemError) {
				return nil, e.systemError(ctx, base, cause)
			}
			e.metrics.Inc(MetricMFAFailure)
			if err := e.guard.RecordFailure(ctx, identifier); err != nil {
				return nil, e.systemError(ctx, base, "guard record: "+err.Error())
			}
			ev := base
			ev.Type = EventMFA
			ev.Error = cause
			e.emit(ctx, ev)
			return nil, ErrInvalidMFACode
		}
		e.metrics.Inc(MetricMFASuccess)
		ev := base
		ev.Type = EventMFA
		ev.Success = true
		e.emit(ctx, ev)
	}

	// Full success.
	if err := e.guard.Clear(ctx, identifier); err != nil {
		return nil, e.systemError(ctx, base, "guard clear: "+err.Error())
	}
	pair, err := e.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, e.systemError(ctx, base, "token issue: "+err.Error())
	}
	if err := e.users.UpdateLastLogin(ctx, user.ID, e.now()); err != nil {
		// Metadata write failure does not revoke an otherwise valid login.
		e.metrics.Inc(MetricSystemError)
		ev := base
		ev.Error = "last login update: " + err.Error()
		ev.Success = true
		e.emit(ctx, ev)
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.metrics.Inc(MetricTokenIssued)
	ev := base
	ev.Success = true
	e.emit(ctx, ev)
	ev.Type = EventTokenIssue
	e.emit(ctx, ev)

	return &AuthResult{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.sanitized(),
	}, nil
}

// verifyMFA checks a submitted second factor, dispatching on code shape:
// TOTP digits, backup-code length, otherwise a delivered one-time code.
// It returns the internal cause string for logging alongside the error.
func (e *Engine) verifyMFA(ctx context.Context, user *UserRecord, code string) (string, error) {
	code = strings.TrimSpace(code)

	switch {
	case user.MFASecret != "" && isTOTPShape(code, e.totp.Config().Digits):
		return e.verifyTOTP(ctx, user, code)
	case len(code) == e.config.BackupCodes.Length:
		return e.verifyBackup(ctx, user, code)
	default:
		return e.verifyOneTime(ctx, user, code)
	}
}

func isTOTPShape(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func (e *Engine) verifyTOTP(ctx context.Context, user *UserRecord, code string) (string, error) {
	secret, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(user.MFASecret)
	if err != nil {
		return "corrupt totp secret", ErrSystemError
	}
	ok, counter, err := e.totp.Verify(secret, code, e.now())
	if err != nil {
		return "totp verify: " + err.Error(), ErrSystemError
	}
	if !ok {
		return "totp mismatch", ErrInvalidMFACode
	}
	if err := e.replay.CheckAndCommit(ctx, user.ID, counter); err != nil {
		if errors.Is(err, mfa.ErrReplay) {
			e.metrics.Inc(MetricMFAReplayAttempt)
			return "totp replay", ErrInvalidMFACode
		}
		return "replay tracker: " + err.Error(), ErrSystemError
	}
	return "", nil
}

func (e *Engine) verifyBackup(ctx context.Context, user *UserRecord, code string) (string, error) {
	remaining, ok := mfa.ConsumeBackupCode(code, user.BackupCodeHashes)
	if !ok {
		e.metrics.Inc(MetricBackupCodeFailed)
		return "backup code mismatch", ErrInvalidMFACode
	}
	if err := e.users.UpdateMFA(ctx, user.ID, true, user.MFASecret, remaining); err != nil {
		return "backup code persist: " + err.Error(), ErrSystemError
	}
	user.BackupCodeHashes = remaining
	e.metrics.Inc(MetricBackupCodeUsed)
	return "", nil
}

func (e *Engine) verifyOneTime(ctx context.Context, user *UserRecord, code string) (string, error) {
	if e.codes == nil {
		return "no code sender configured", ErrInvalidMFACode
	}
	err := e.codes.Verify(ctx, user.ID, code)
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, mfa.ErrExpired):
		return "one-time code expired", ErrInvalidMFACode
	case errors.Is(err, mfa.ErrAttemptsExceeded):
		return "one-time code attempts exceeded", ErrInvalidMFACode
	case errors.Is(err, mfa.ErrMismatch):
		return "one-time code mismatch", ErrInvalidMFACode
	case errors.Is(err, mfa.ErrNotConfigured):
		return "no pending one-time code", ErrInvalidMFACode
	default:
		return "one-time verify: " + err.Error(), ErrSystemError
	}
}

// loginFailure records a guard strike, emits the specific cause, and
// returns the generic credential rejection.
func (e *Engine) loginFailure(ctx context.Context, base SecurityEvent, identifier, cause string) error {
	e.metrics.Inc(MetricLoginFailure)
	if err := e.guard.RecordFailure(ctx, identifier); err != nil {
		return e.systemError(ctx, base, "guard record: "+err.Error())
	}
	ev := base
	ev.Error = cause
	e.emit(ctx, ev)
	return ErrInvalidCredentials
}

func (e *Engine) systemError(ctx context.Context, base SecurityEvent, cause string) error {
	e.metrics.Inc(MetricSystemError)
	ev := base
	ev.Error = cause
	e.emit(ctx, ev)
	return ErrSystemError
}
