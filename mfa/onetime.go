package mfa

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/avheli/credcore/internal/kv"
)

// DeliveryKind selects the out-of-band channel for a one-time code.
type DeliveryKind string

const (
	KindSMS   DeliveryKind = "sms"
	KindEmail DeliveryKind = "email"
)

// Sender delivers a one-time code to a destination. Implementations are
// external collaborators (SMS gateway, mail relay) with their own timeout
// policy.
type Sender interface {
	Send(ctx context.Context, kind DeliveryKind, destination, code string) error
}

// OneTimeConfig holds pending-code parameters.
type OneTimeConfig struct {
	CodeLength   int           // 6..8, default 8
	TTL          time.Duration // default 5 minutes
	MaxAttempts  int           // default 3
	SendInterval time.Duration // per-destination send spacing, default 30s
	SendBurst    int           // default 3
	KeyPrefix    string        // default "otc"
}

func (c *OneTimeConfig) applyDefaults() {
	if c.CodeLength < 6 || c.CodeLength > 8 {
		c.CodeLength = 8
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.SendInterval <= 0 {
		c.SendInterval = 30 * time.Second
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 3
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "otc"
	}
}

const (
	pendingVersionV1 = 1
	// version(1) + kind(1) + attempts(1) + expiresAt(8) + hash(32)
	pendingRecordLen = 43

	kindByteSMS   = 1
	kindByteEmail = 2

	maxSendLimiters = 4096
)

type pendingRecord struct {
	Kind      DeliveryKind
	Attempts  uint8
	ExpiresAt int64
	CodeHash  [32]byte
}

func encodePendingRecord(r *pendingRecord) []byte {
	out := make([]byte, pendingRecordLen)
	out[0] = pendingVersionV1
	if r.Kind == KindEmail {
		out[1] = kindByteEmail
	} else {
		out[1] = kindByteSMS
	}
	out[2] = r.Attempts
	binary.BigEndian.PutUint64(out[3:11], uint64(r.ExpiresAt))
	copy(out[11:], r.CodeHash[:])
	return out
}

func decodePendingRecord(data []byte) (*pendingRecord, error) {
	if len(data) != pendingRecordLen || data[0] != pendingVersionV1 {
		return nil, errors.New("invalid pending code record")
	}
	r := &pendingRecord{
		Attempts:  data[2],
		ExpiresAt: int64(binary.BigEndian.Uint64(data[3:11])),
	}
	if data[1] == kindByteEmail {
		r.Kind = KindEmail
	} else {
		r.Kind = KindSMS
	}
	copy(r.CodeHash[:], data[11:])
	return r, nil
}

// CodeIssuer creates, delivers, and verifies short-lived one-time codes.
// One pending code exists per user at a time: issuing a new one invalidates
// the previous, regardless of channel.
type CodeIssuer struct {
	store  kv.Store
	sender Sender
	cfg    OneTimeConfig
	now    func() time.Time

	locks [lockStripes]sync.Mutex

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

const lockStripes = 64

// NewCodeIssuer creates a CodeIssuer over the given store and sender.
func NewCodeIssuer(store kv.Store, sender Sender, cfg OneTimeConfig) *CodeIssuer {
	cfg.applyDefaults()
	return &CodeIssuer{
		store:    store,
		sender:   sender,
		cfg:      cfg,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetClock overrides the time source. Test use only.
func (c *CodeIssuer) SetClock(now func() time.Time) {
	c.now = now
}

func (c *CodeIssuer) key(userID string) string {
	return c.cfg.KeyPrefix + ":" + userID
}

func (c *CodeIssuer) stripe(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &c.locks[h.Sum32()%lockStripes]
}

// sendLimiter returns the per-destination limiter, creating it on first
// use. The map is bounded; under pathological churn it is reset wholesale,
// which only ever errs toward allowing a send.
func (c *CodeIssuer) sendLimiter(destination string) *rate.Limiter {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()

	if len(c.limiters) > maxSendLimiters {
		c.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := c.limiters[destination]
	if !ok {
		lim = rate.NewLimiter(rate.Every(c.cfg.SendInterval), c.cfg.SendBurst)
		c.limiters[destination] = lim
	}
	return lim
}

// Send generates a one-time code, stores its hash with the configured TTL,
// and hands the plaintext to the sender. It returns an opaque handle for
// correlation in logs; verification is keyed by userID alone.
func (c *CodeIssuer) Send(ctx context.Context, userID string, kind DeliveryKind, destination string) (string, error) {
	if !c.sendLimiter(destination).Allow() {
		return "", ErrSendThrottled
	}

	code, err := randomCode(c.cfg.CodeLength)
	if err != nil {
		return "", err
	}

	record := &pendingRecord{
		Kind:      kind,
		ExpiresAt: c.now().Add(c.cfg.TTL).Unix(),
		CodeHash:  HashCode(code),
	}

	mu := c.stripe(userID)
	mu.Lock()
	err = c.store.Set(ctx, c.key(userID), encodePendingRecord(record), c.cfg.TTL)
	mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := c.sender.Send(ctx, kind, destination, code); err != nil {
		// Delivery failed: destroy the pending record so the user is not
		// left with an unverifiable challenge.
		_, _ = c.store.Delete(ctx, c.key(userID))
		return "", err
	}

	return uuid.NewString(), nil
}

// Verify checks a submitted code. It fails with ErrExpired past the TTL,
// ErrAttemptsExceeded after MaxAttempts wrong tries (destroying the
// record), ErrMismatch otherwise; on success the record is deleted and the
// code can never verify again.
func (c *CodeIssuer) Verify(ctx context.Context, userID, submitted string) error {
	mu := c.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	data, err := c.store.Get(ctx, c.key(userID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrNotConfigured
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	record, err := decodePendingRecord(data)
	if err != nil {
		_, _ = c.store.Delete(ctx, c.key(userID))
		return ErrNotConfigured
	}

	now := c.now().Unix()
	if now > record.ExpiresAt {
		_, _ = c.store.Delete(ctx, c.key(userID))
		return ErrExpired
	}

	target := HashCode(submitted)
	if subtle.ConstantTimeCompare(target[:], record.CodeHash[:]) != 1 {
		record.Attempts++
		if int(record.Attempts) >= c.cfg.MaxAttempts {
			if _, err := c.store.Delete(ctx, c.key(userID)); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return ErrAttemptsExceeded
		}
		ttl := time.Duration(record.ExpiresAt-now) * time.Second
		if err := c.store.Set(ctx, c.key(userID), encodePendingRecord(record), ttl); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return ErrMismatch
	}

	if _, err := c.store.Delete(ctx, c.key(userID)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Invalidate drops any pending code for the user.
func (c *CodeIssuer) Invalidate(ctx context.Context, userID string) error {
	if _, err := c.store.Delete(ctx, c.key(userID)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
