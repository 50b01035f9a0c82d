package credcore

import (
	"errors"
	"time"

	"github.com/avheli/credcore/guard"
	"github.com/avheli/credcore/mfa"
	"github.com/avheli/credcore/password"
	"github.com/avheli/credcore/token"
)

// BackupCodeConfig controls the batch generated at MFA setup.
type BackupCodeConfig struct {
	Count  int // default 10
	Length int // default 10
}

// AuditConfig controls the async security-event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled       bool
	EnableLatency bool
}

// Config holds every tunable of the engine. Zero values are replaced with
// safe defaults at Build, except Token.Keys which must be supplied.
type Config struct {
	Policy  password.Policy
	Hash    password.HashConfig
	Guard   guard.Config
	TOTP    mfa.TOTPConfig
	OneTime mfa.OneTimeConfig
	Token   token.Config

	BackupCodes BackupCodeConfig
	// ReplayTTL bounds how long accepted TOTP counters are remembered.
	ReplayTTL time.Duration

	Audit   AuditConfig
	Metrics MetricsConfig
}

func defaultConfig() Config {
	return Config{
		Policy: password.DefaultPolicy(),
		Hash: password.HashConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Guard: guard.Config{
			MaxAttempts: 5,
			BaseWindow:  15 * time.Minute,
			MaxLockout:  24 * time.Hour,
		},
		TOTP: mfa.TOTPConfig{
			Issuer: "credcore",
			Skew:   2,
		},
		BackupCodes: BackupCodeConfig{Count: 10, Length: 10},
		ReplayTTL:   24 * time.Hour,
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.Policy.MinLength == 0 {
		c.Policy = def.Policy
	}
	if c.Hash.Memory == 0 {
		c.Hash = def.Hash
	}
	if c.BackupCodes.Count <= 0 {
		c.BackupCodes.Count = def.BackupCodes.Count
	}
	if c.BackupCodes.Length <= 0 {
		c.BackupCodes.Length = def.BackupCodes.Length
	}
	if c.ReplayTTL <= 0 {
		c.ReplayTTL = def.ReplayTTL
	}
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = def.TOTP.Issuer
	}
	if c.TOTP.Skew == 0 {
		c.TOTP.Skew = def.TOTP.Skew
	}
}

// Validate rejects configurations that cannot produce a working engine.
// Deeper checks happen inside each component constructor.
func (c *Config) Validate() error {
	if len(c.Token.Keys) == 0 {
		return errors.New("credcore: at least one session token key required")
	}
	return nil
}
