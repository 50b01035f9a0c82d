package credcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avheli/credcore/guard"
	"github.com/avheli/credcore/internal/audit"
	"github.com/avheli/credcore/internal/kv"
	"github.com/avheli/credcore/internal/metrics"
	"github.com/avheli/credcore/mfa"
	"github.com/avheli/credcore/password"
	"github.com/avheli/credcore/token"
)

// Builder assembles an Engine. Every With* call returns the receiver so
// construction reads as one chain ending in Build.
type Builder struct {
	config Config

	store        Store
	userProvider UserProvider
	sender       mfa.Sender
	auditSink    AuditSink

	built bool
}

// New starts a Builder with the default configuration. Token keys and a
// UserProvider must still be supplied before Build.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration. Zero-valued sections fall
// back to defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore injects the key-value backend for lockout records, pending
// codes, and replay counters. Defaults to an in-process store.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithRedis backs the engine's shared state with Redis, which is required
// when more than one instance serves the same user population.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.store = kv.NewRedisStore(client, "")
	return b
}

// WithUserProvider injects the external user-record collaborator.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithCodeSender injects the SMS/email delivery collaborator. Without one,
// SendLoginCode is unavailable but TOTP and backup codes still work.
func (b *Builder) WithCodeSender(sender mfa.Sender) *Builder {
	b.sender = sender
	return b
}

// WithAuditSink injects the security-event receiver.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the engine. The argon2
// placeholder hash used for the username-enumeration mitigation is derived
// here, so Build carries one hashing cost up front.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("credcore: builder already used")
	}
	if b.userProvider == nil {
		return nil, errors.New("credcore: user provider required")
	}

	cfg := b.config
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		store = kv.NewMemoryStore()
	}

	passwords, err := password.NewManager(cfg.Policy, cfg.Hash)
	if err != nil {
		return nil, err
	}
	tokens, err := token.New(cfg.Token)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:    cfg,
		store:     store,
		passwords: passwords,
		guard:     guard.New(store, cfg.Guard),
		totp:      mfa.NewTOTP(cfg.TOTP),
		replay:    mfa.NewReplayTracker(store, "", cfg.ReplayTTL),
		tokens:    tokens,
		users:     b.userProvider,
		metrics: metrics.New(metrics.Config{
			Enabled:       cfg.Metrics.Enabled,
			EnableLatency: cfg.Metrics.EnableLatency,
		}),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		now: time.Now,
	}
	if b.sender != nil {
		e.codes = mfa.NewCodeIssuer(store, b.sender, cfg.OneTime)
	}

	// Fixed placeholder verified when a login names an unknown user, so
	// missing and present accounts cost the same.
	dummy, err := passwords.Hash("Vx9!placeholder-Credential0", nil)
	if err != nil {
		return nil, err
	}
	e.dummyHash = dummy

	b.built = true
	return e, nil
}
