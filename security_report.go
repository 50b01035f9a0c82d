package credcore

import "time"

// SecurityReport is a read-only snapshot of the engine's security posture,
// suitable for an operator dashboard or a compliance export. It contains
// no secret material.
type SecurityReport struct {
	Argon2MemoryKB    uint32
	Argon2Time        uint32
	Argon2Parallelism uint8

	PasswordMinLength int

	GuardMaxAttempts int
	GuardBaseWindow  time.Duration
	GuardMaxLockout  time.Duration

	TOTPDigits int
	TOTPPeriod int
	TOTPSkew   int

	OneTimeCodeTTL      time.Duration
	OneTimeMaxAttempts  int
	BackupCodesPerBatch int

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ActiveTokenKeys int

	AuditEnabled   bool
	MetricsEnabled bool
}

// SecurityReport returns the current posture snapshot.
func (e *Engine) SecurityReport() SecurityReport {
	cfg := e.config
	hash := e.passwords.HashConfig()
	totp := e.totp.Config()

	accessTTL := cfg.Token.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := cfg.Token.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	guardCfg := cfg.Guard
	if guardCfg.MaxAttempts <= 0 {
		guardCfg.MaxAttempts = 5
	}
	if guardCfg.BaseWindow <= 0 {
		guardCfg.BaseWindow = 15 * time.Minute
	}
	if guardCfg.MaxLockout <= 0 {
		guardCfg.MaxLockout = 24 * time.Hour
	}
	oneTime := cfg.OneTime
	if oneTime.TTL <= 0 {
		oneTime.TTL = 5 * time.Minute
	}
	if oneTime.MaxAttempts <= 0 {
		oneTime.MaxAttempts = 3
	}

	return SecurityReport{
		Argon2MemoryKB:    hash.Memory,
		Argon2Time:        hash.Time,
		Argon2Parallelism: hash.Parallelism,

		PasswordMinLength: e.passwords.Policy().MinLength,

		GuardMaxAttempts: guardCfg.MaxAttempts,
		GuardBaseWindow:  guardCfg.BaseWindow,
		GuardMaxLockout:  guardCfg.MaxLockout,

		TOTPDigits: totp.Digits,
		TOTPPeriod: totp.Period,
		TOTPSkew:   totp.Skew,

		OneTimeCodeTTL:      oneTime.TTL,
		OneTimeMaxAttempts:  oneTime.MaxAttempts,
		BackupCodesPerBatch: cfg.BackupCodes.Count,

		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		ActiveTokenKeys: len(cfg.Token.Keys),

		AuditEnabled:   cfg.Audit.Enabled,
		MetricsEnabled: cfg.Metrics.Enabled,
	}
}
