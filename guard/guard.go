package guard

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/avheli/credcore/internal/kv"
)

// ErrUnavailable indicates the lockout backend is unreachable.
var ErrUnavailable = errors.New("lockout store unavailable")

const lockStripes = 64

// Config holds guard tuning parameters.
type Config struct {
	// MaxAttempts is the consecutive-failure threshold that triggers a
	// lockout. Default 5.
	MaxAttempts int
	// BaseWindow is the initial lockout duration and the idle window after
	// which a stale failure streak starts over. Default 15 minutes.
	BaseWindow time.Duration
	// MaxLockout caps exponential backoff growth. Default 24 hours.
	MaxLockout time.Duration
	// KeyPrefix namespaces guard records in the store. Default "bf".
	KeyPrefix string
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseWindow <= 0 {
		c.BaseWindow = 15 * time.Minute
	}
	if c.MaxLockout <= 0 {
		c.MaxLockout = 24 * time.Hour
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "bf"
	}
}

// Guard is the per-identifier brute-force state machine: Clean →
// Accumulating → Locked → Clean. Safe for concurrent use.
type Guard struct {
	store kv.Store
	cfg   Config
	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

// New creates a Guard over the given store.
func New(store kv.Store, cfg Config) *Guard {
	cfg.applyDefaults()
	return &Guard{store: store, cfg: cfg, now: time.Now}
}

// SetClock overrides the time source. Test use only.
func (g *Guard) SetClock(now func() time.Time) {
	g.now = now
}

// Config returns the active configuration.
func (g *Guard) Config() Config {
	return g.cfg
}

func (g *Guard) key(identifier string) string {
	return g.cfg.KeyPrefix + ":" + identifier
}

// stripe serializes record read-modify-write per identifier. With a Redis
// backend this protects a single process; cross-process races only cost an
// occasional under-count, never a stuck lockout.
func (g *Guard) stripe(identifier string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return &g.locks[h.Sum32()%lockStripes]
}

func (g *Guard) load(ctx context.Context, identifier string) (*lockoutRecord, error) {
	data, err := g.store.Get(ctx, g.key(identifier))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	record, err := decodeLockoutRecord(data)
	if err != nil {
		// Corrupt or foreign record: drop it rather than wedging the
		// identifier.
		_, _ = g.store.Delete(ctx, g.key(identifier))
		return nil, nil
	}
	return record, nil
}

// IsBlocked reports whether the identifier is currently locked out. An
// expired lockout record is purged as a side effect.
func (g *Guard) IsBlocked(ctx context.Context, identifier string) (bool, error) {
	mu := g.stripe(identifier)
	mu.Lock()
	defer mu.Unlock()

	record, err := g.load(ctx, identifier)
	if err != nil {
		return false, err
	}
	if record == nil || record.LockExpiry == 0 {
		return false, nil
	}

	if g.now().Unix() > record.LockExpiry {
		if _, err := g.store.Delete(ctx, g.key(identifier)); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return false, nil
	}
	return true, nil
}

// RecordFailure registers a failed attempt. A streak idle for longer than
// BaseWindow starts over at count 1. Once count reaches MaxAttempts the
// lockout duration doubles with every further failure, capped at
// MaxLockout.
func (g *Guard) RecordFailure(ctx context.Context, identifier string) error {
	mu := g.stripe(identifier)
	mu.Lock()
	defer mu.Unlock()

	record, err := g.load(ctx, identifier)
	if err != nil {
		return err
	}

	now := g.now()
	if record == nil {
		record = &lockoutRecord{}
	}

	idle := now.Unix()-record.LastFailure > int64(g.cfg.BaseWindow/time.Second)
	if record.Count == 0 || idle {
		record.Count = 1
		record.LockExpiry = 0
	} else {
		record.Count++
	}
	record.LastFailure = now.Unix()

	ttl := g.cfg.BaseWindow
	if int(record.Count) >= g.cfg.MaxAttempts {
		duration := g.lockoutDuration(int(record.Count))
		record.LockExpiry = now.Add(duration).Unix()
		// Keep the record one extra base window beyond the lockout so a
		// persistent attacker escalates instead of starting fresh.
		ttl = duration + g.cfg.BaseWindow
	}

	if err := g.store.Set(ctx, g.key(identifier), encodeLockoutRecord(record), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// lockoutDuration computes base_window * 2^(count - max), capped.
func (g *Guard) lockoutDuration(count int) time.Duration {
	exp := count - g.cfg.MaxAttempts
	if exp < 0 {
		exp = 0
	}
	// 2^41 base units already exceeds any sane ceiling; avoid overflow.
	if exp > 41 {
		return g.cfg.MaxLockout
	}
	duration := g.cfg.BaseWindow << uint(exp)
	if duration > g.cfg.MaxLockout || duration <= 0 {
		return g.cfg.MaxLockout
	}
	return duration
}

// Clear removes the identifier's record entirely. Called only after a fully
// successful authentication.
func (g *Guard) Clear(ctx context.Context, identifier string) error {
	if _, err := g.store.Delete(ctx, g.key(identifier)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RemainingLockSeconds returns the whole seconds left on an active lockout,
// rounded up, or 0 when the identifier is not locked.
func (g *Guard) RemainingLockSeconds(ctx context.Context, identifier string) (int, error) {
	record, err := g.load(ctx, identifier)
	if err != nil {
		return 0, err
	}
	if record == nil || record.LockExpiry == 0 {
		return 0, nil
	}

	remaining := record.LockExpiry - g.now().Unix()
	if remaining <= 0 {
		return 0, nil
	}
	return int(remaining), nil
}

// FailureCount returns the current consecutive-failure count. Missing
// records return zero and do not reveal identifier existence.
func (g *Guard) FailureCount(ctx context.Context, identifier string) (int, error) {
	record, err := g.load(ctx, identifier)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, nil
	}
	return int(record.Count), nil
}
