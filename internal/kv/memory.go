package kv

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShards = 16

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// MemoryStore is a process-local [Store] with per-entry expiry. Entries are
// purged lazily when read after their deadline; there is no background sweep.
type MemoryStore struct {
	shards [memoryShards]*memoryShard
	now    func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]memoryEntry)}
	}
	return s
}

// SetClock overrides the time source. Test use only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if entry.expired(s.now()) {
		delete(sh.entries, key)
		return nil, ErrNotFound
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set implements [Store].
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	sh := s.shard(key)
	sh.mu.Lock()
	sh.entries[key] = entry
	sh.mu.Unlock()
	return nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	if !ok {
		return false, nil
	}
	delete(sh.entries, key)
	if entry.expired(s.now()) {
		return false, nil
	}
	return true, nil
}

// Expire implements [Store].
func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	if !ok || entry.expired(s.now()) {
		delete(sh.entries, key)
		return ErrNotFound
	}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	} else {
		entry.expiresAt = time.Time{}
	}
	sh.entries[key] = entry
	return nil
}
