package mfa

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/avheli/credcore/internal/kv"
)

// ReplayTracker persists the last-accepted TOTP time-step per user so the
// same code cannot be accepted twice within the drift window.
type ReplayTracker struct {
	store  kv.Store
	prefix string
	ttl    time.Duration
	locks  [lockStripes]sync.Mutex
}

// NewReplayTracker creates a tracker. Counters are kept for ttl (default
// 24h); a counter that has aged out can no longer collide with a live
// drift window.
func NewReplayTracker(store kv.Store, prefix string, ttl time.Duration) *ReplayTracker {
	if prefix == "" {
		prefix = "rc"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReplayTracker{store: store, prefix: prefix, ttl: ttl}
}

func (r *ReplayTracker) key(userID string) string {
	return r.prefix + ":" + userID
}

func (r *ReplayTracker) stripe(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &r.locks[h.Sum32()%lockStripes]
}

// CheckAndCommit rejects counter if it does not advance past the stored
// value, and records it otherwise. The check and the write happen under a
// per-user lock.
func (r *ReplayTracker) CheckAndCommit(ctx context.Context, userID string, counter int64) error {
	mu := r.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	data, err := r.store.Get(ctx, r.key(userID))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err == nil && len(data) == 8 {
		last := int64(binary.BigEndian.Uint64(data))
		if counter <= last {
			return ErrReplay
		}
	}

	var out [8]byte
	binary.BigEndian.PutUint64(out[:], uint64(counter))
	if err := r.store.Set(ctx, r.key(userID), out[:], r.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Reset forgets the stored counter, e.g. when MFA is disabled.
func (r *ReplayTracker) Reset(ctx context.Context, userID string) error {
	if _, err := r.store.Delete(ctx, r.key(userID)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
