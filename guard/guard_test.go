package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avheli/credcore/internal/kv"
)

func newTestGuard(t *testing.T, cfg Config) (*Guard, *time.Time) {
	t.Helper()

	store := kv.NewMemoryStore()
	g := New(store, cfg)

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	g.SetClock(clock)
	store.SetClock(clock)

	return g, &now
}

func TestGuardLocksAfterMaxAttempts(t *testing.T) {
	g, _ := newTestGuard(t, Config{MaxAttempts: 5, BaseWindow: 15 * time.Minute})
	ctx := context.Background()
	const id = "user@example.com|10.0.0.1"

	for i := 0; i < 4; i++ {
		if err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
		blocked, err := g.IsBlocked(ctx, id)
		if err != nil {
			t.Fatalf("IsBlocked error: %v", err)
		}
		if blocked {
			t.Fatalf("blocked after only %d failures", i+1)
		}
	}

	if err := g.RecordFailure(ctx, id); err != nil {
		t.Fatalf("RecordFailure error: %v", err)
	}
	blocked, err := g.IsBlocked(ctx, id)
	if err != nil {
		t.Fatalf("IsBlocked error: %v", err)
	}
	if !blocked {
		t.Fatal("expected lockout after 5 failures")
	}

	remaining, err := g.RemainingLockSeconds(ctx, id)
	if err != nil {
		t.Fatalf("RemainingLockSeconds error: %v", err)
	}
	if remaining != int(15*time.Minute/time.Second) {
		t.Fatalf("unexpected remaining lock: %d", remaining)
	}
}

func TestGuardLockExpiresNaturally(t *testing.T) {
	g, now := newTestGuard(t, Config{MaxAttempts: 3, BaseWindow: time.Minute})
	ctx := context.Background()
	const id = "victim@example.com|10.0.0.2"

	for i := 0; i < 3; i++ {
		if err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
	}

	blocked, err := g.IsBlocked(ctx, id)
	if err != nil || !blocked {
		t.Fatalf("expected lockout, blocked=%v err=%v", blocked, err)
	}

	*now = now.Add(61 * time.Second)

	blocked, err = g.IsBlocked(ctx, id)
	if err != nil {
		t.Fatalf("IsBlocked error: %v", err)
	}
	if blocked {
		t.Fatal("expected lockout to expire")
	}

	remaining, err := g.RemainingLockSeconds(ctx, id)
	if err != nil {
		t.Fatalf("RemainingLockSeconds error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining after expiry, got %d", remaining)
	}
}

func TestGuardExponentialBackoff(t *testing.T) {
	g, _ := newTestGuard(t, Config{MaxAttempts: 3, BaseWindow: time.Minute, MaxLockout: time.Hour})
	ctx := context.Background()
	const id = "repeat@example.com|10.0.0.3"

	var last int
	for i := 0; i < 3; i++ {
		if err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
	}
	last, _ = g.RemainingLockSeconds(ctx, id)
	if last != 60 {
		t.Fatalf("expected 60s base lockout, got %d", last)
	}

	// Every further failure must strictly extend the lockout.
	for i := 0; i < 3; i++ {
		if err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
		remaining, err := g.RemainingLockSeconds(ctx, id)
		if err != nil {
			t.Fatalf("RemainingLockSeconds error: %v", err)
		}
		if remaining <= last {
			t.Fatalf("backoff did not grow: %d -> %d", last, remaining)
		}
		last = remaining
	}
}

func TestGuardBackoffCeiling(t *testing.T) {
	g, _ := newTestGuard(t, Config{MaxAttempts: 2, BaseWindow: time.Minute, MaxLockout: 4 * time.Minute})
	ctx := context.Background()
	const id = "capped@example.com|10.0.0.4"

	for i := 0; i < 10; i++ {
		if err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
	}

	remaining, err := g.RemainingLockSeconds(ctx, id)
	if err != nil {
		t.Fatalf("RemainingLockSeconds error: %v", err)
	}
	if remaining > int(4*time.Minute/time.Second) {
		t.Fatalf("lockout exceeded ceiling: %d", remaining)
	}
}

func TestGuardIdleStreakResets(t *testing.T) {
	g, now := newTestGuard(t, Config{MaxAttempts: 3, BaseWindow: time.Minute})
	ctx := context.Background()
	const id = "idle@example.com|10.0.0.5"

	if err := g.RecordFailure(ctx, id); err != nil {
		t.Fatalf("RecordFailure error: %v", err)
	}
	if err := g.RecordFailure(ctx, id); err != nil {
		t.Fatalf("RecordFailure error: %v", err)
	}

	*now = now.Add(2 * time.Minute)

	if err := g.RecordFailure(ctx, id); err != nil {
		t.Fatalf("RecordFailure error: %v", err)
	}
	count, err := g.FailureCount(ctx, id)
	if err != nil {
		t.Fatalf("FailureCount error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected idle streak to reset to 1, got %d", count)
	}
}

func TestGuardClear(t *testing.T) {
	g, _ := newTestGuard(t, Config{MaxAttempts: 2, BaseWindow: time.Minute})
	ctx := context.Background()
	const id = "cleared@example.com|10.0.0.6"

	for i := 0; i < 2; i++ {
		if err := g.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure error: %v", err)
		}
	}
	blocked, _ := g.IsBlocked(ctx, id)
	if !blocked {
		t.Fatal("expected lockout")
	}

	if err := g.Clear(ctx, id); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	blocked, err := g.IsBlocked(ctx, id)
	if err != nil || blocked {
		t.Fatalf("expected clean state after Clear, blocked=%v err=%v", blocked, err)
	}
	count, _ := g.FailureCount(ctx, id)
	if count != 0 {
		t.Fatalf("expected count 0 after Clear, got %d", count)
	}
}

func TestGuardConcurrentFailuresDoNotUndercount(t *testing.T) {
	store := kv.NewMemoryStore()
	g := New(store, Config{MaxAttempts: 100, BaseWindow: time.Hour})
	ctx := context.Background()
	const id = "racy@example.com|10.0.0.7"
	const workers = 32

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = g.RecordFailure(ctx, id)
		}()
	}
	wg.Wait()

	count, err := g.FailureCount(ctx, id)
	if err != nil {
		t.Fatalf("FailureCount error: %v", err)
	}
	if count != workers {
		t.Fatalf("expected %d recorded failures, got %d", workers, count)
	}
}

func TestGuardCorruptRecordIsDropped(t *testing.T) {
	store := kv.NewMemoryStore()
	g := New(store, Config{MaxAttempts: 3, BaseWindow: time.Minute})
	ctx := context.Background()
	const id = "corrupt@example.com|10.0.0.8"

	if err := store.Set(ctx, "bf:"+id, []byte("garbage"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	blocked, err := g.IsBlocked(ctx, id)
	if err != nil || blocked {
		t.Fatalf("expected corrupt record to be dropped, blocked=%v err=%v", blocked, err)
	}
}
