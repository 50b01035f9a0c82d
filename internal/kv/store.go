package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the key does not exist or has expired.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable indicates the backing store is unreachable.
	ErrUnavailable = errors.New("kv: store unavailable")
)

// Store is the minimal contract for expiring key-value state.
//
// A ttl of zero means the entry does not expire. Get must treat an expired
// entry exactly like a missing one.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key and reports whether a live entry existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Expire resets the TTL of an existing key. Missing keys return ErrNotFound.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
