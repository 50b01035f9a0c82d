package credcore

import (
	"context"
	"errors"

	"github.com/avheli/credcore/mfa"
)

// SetupMFA generates a TOTP secret and a fresh batch of backup codes for
// the user and persists them through the provider. The plaintext backup
// codes are returned exactly once.
func (e *Engine) SetupMFA(ctx context.Context, userID string) (*MFASetupResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "user lookup: "+err.Error())
	}

	_, secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "secret generation: "+err.Error())
	}
	codes, hashes, err := mfa.GenerateBackupCodes(e.config.BackupCodes.Count, e.config.BackupCodes.Length)
	if err != nil {
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "backup code generation: "+err.Error())
	}

	if err := e.users.UpdateMFA(ctx, userID, true, secret, hashes); err != nil {
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "persist: "+err.Error())
	}

	e.emit(ctx, SecurityEvent{
		Type:    EventMFASetup,
		UserID:  userID,
		Email:   user.Email,
		Success: true,
	})

	return &MFASetupResult{
		Secret:       secret,
		ProvisionURI: e.totp.ProvisionURI(secret, user.Email),
		BackupCodes:  codes,
	}, nil
}

// DisableMFA destroys the user's TOTP secret, backup codes, replay
// counter, and any pending one-time code.
func (e *Engine) DisableMFA(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return e.systemError(ctx, SecurityEvent{Type: EventMFADisable, UserID: userID}, "user lookup: "+err.Error())
	}
	if !user.MFAEnabled {
		return ErrMFANotEnabled
	}

	if err := e.users.UpdateMFA(ctx, userID, false, "", nil); err != nil {
		return e.systemError(ctx, SecurityEvent{Type: EventMFADisable, UserID: userID}, "persist: "+err.Error())
	}
	if err := e.replay.Reset(ctx, userID); err != nil {
		return e.systemError(ctx, SecurityEvent{Type: EventMFADisable, UserID: userID}, "replay reset: "+err.Error())
	}
	if e.codes != nil {
		if err := e.codes.Invalidate(ctx, userID); err != nil {
			return e.systemError(ctx, SecurityEvent{Type: EventMFADisable, UserID: userID}, "code invalidate: "+err.Error())
		}
	}

	e.emit(ctx, SecurityEvent{
		Type:    EventMFADisable,
		UserID:  userID,
		Email:   user.Email,
		Success: true,
	})
	return nil
}

// RegenerateBackupCodes replaces the user's backup codes with a fresh
// batch, invalidating every unconsumed old code.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "user lookup: "+err.Error())
	}
	if !user.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	codes, hashes, err := mfa.GenerateBackupCodes(e.config.BackupCodes.Count, e.config.BackupCodes.Length)
	if err != nil {
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "backup code generation: "+err.Error())
	}
	if err := e.users.UpdateMFA(ctx, userID, true, user.MFASecret, hashes); err != nil {
		return nil, e.systemError(ctx, SecurityEvent{Type: EventMFASetup, UserID: userID}, "persist: "+err.Error())
	}

	e.emit(ctx, SecurityEvent{
		Type:     EventMFASetup,
		UserID:   userID,
		Email:    user.Email,
		Success:  true,
		Metadata: map[string]string{"action": "backup_codes_regenerated"},
	})
	return codes, nil
}

// SendLoginCode delivers a one-time login code over SMS or email. The
// returned handle is opaque, for log correlation only.
func (e *Engine) SendLoginCode(ctx context.Context, userID string, kind mfa.DeliveryKind, destination string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.codes == nil {
		return "", ErrSenderNotConfigured
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", e.systemError(ctx, SecurityEvent{Type: EventCodeSend, UserID: userID}, "user lookup: "+err.Error())
	}
	if !user.MFAEnabled {
		return "", ErrMFANotEnabled
	}

	handle, err := e.codes.Send(ctx, userID, kind, destination)
	if err != nil {
		if errors.Is(err, mfa.ErrSendThrottled) {
			e.metrics.Inc(MetricCodeSendThrottled)
			e.emit(ctx, SecurityEvent{
				Type:   EventCodeSend,
				UserID: userID,
				Email:  user.Email,
				Error:  "send throttled",
			})
			return "", err
		}
		return "", e.systemError(ctx, SecurityEvent{Type: EventCodeSend, UserID: userID}, "send: "+err.Error())
	}

	e.metrics.Inc(MetricCodeSent)
	e.emit(ctx, SecurityEvent{
		Type:     EventCodeSend,
		UserID:   userID,
		Email:    user.Email,
		Success:  true,
		Metadata: map[string]string{"kind": string(kind), "handle": handle},
	})
	return handle, nil
}
