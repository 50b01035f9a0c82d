package credcore

import (
	"context"
	"errors"

	"github.com/avheli/credcore/password"
)

// ChangePassword verifies the current password and replaces the stored
// hash. Policy violations come back as *password.PolicyError with the full
// violation list; a wrong current password is the generic credential
// rejection.
func (e *Engine) ChangePassword(ctx context.Context, userID, current, next string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	base := SecurityEvent{Type: EventPasswordChange, UserID: userID}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return e.systemError(ctx, base, "user lookup: "+err.Error())
	}
	base.Email = user.Email

	ok, err := e.passwords.Verify(current, user.PasswordHash)
	if err != nil {
		return e.systemError(ctx, base, "hash verify: "+err.Error())
	}
	if !ok {
		e.metrics.Inc(MetricPasswordChangeFailure)
		ev := base
		ev.Error = "wrong current password"
		e.emit(ctx, ev)
		return ErrInvalidCredentials
	}
	if next == current {
		e.metrics.Inc(MetricPasswordChangeFailure)
		ev := base
		ev.Error = "password reuse"
		e.emit(ctx, ev)
		return ErrPasswordReuse
	}

	hash, err := e.passwords.Hash(next, []string{user.Email})
	if err != nil {
		var policyErr *password.PolicyError
		if errors.As(err, &policyErr) {
			e.metrics.Inc(MetricPasswordChangeFailure)
			ev := base
			ev.Error = policyErr.Error()
			e.emit(ctx, ev)
			return policyErr
		}
		return e.systemError(ctx, base, "hash: "+err.Error())
	}

	if err := e.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return e.systemError(ctx, base, "persist: "+err.Error())
	}

	e.metrics.Inc(MetricPasswordChangeSuccess)
	ev := base
	ev.Success = true
	e.emit(ctx, ev)
	return nil
}

// PasswordStrength rates a candidate password for UI feedback. It never
// gates storage; the storage gate is ChangePassword's own policy check.
func (e *Engine) PasswordStrength(candidate string, userContext []string) password.Strength {
	return e.passwords.Strength(candidate, userContext)
}

// GeneratePassword produces a password satisfying the active policy by
// construction.
func (e *Engine) GeneratePassword(length int) (string, error) {
	return e.passwords.Generate(length)
}
