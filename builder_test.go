package credcore

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresUserProvider(t *testing.T) {
	if _, err := New().WithConfig(testEngineConfig()).Build(); err == nil {
		t.Fatal("expected build failure without user provider")
	}
}

func TestBuildRequiresTokenKey(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Token.Keys = nil
	if _, err := New().WithConfig(cfg).WithUserProvider(newFakeProvider()).Build(); err == nil {
		t.Fatal("expected build failure without token keys")
	}
}

func TestBuildRejectsShortTokenKey(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Token.Keys = [][]byte{bytes.Repeat([]byte{0x01}, 16)}
	if _, err := New().WithConfig(cfg).WithUserProvider(newFakeProvider()).Build(); err == nil {
		t.Fatal("expected build failure for a short token key")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testEngineConfig()).WithUserProvider(newFakeProvider())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(e.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestEngineWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	provider := newFakeProvider()
	e, err := New().
		WithConfig(testEngineConfig()).
		WithUserProvider(provider).
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(e.Close)

	ctx := context.Background()
	user := seedUser(t, e, provider, "alice@example.com")
	client2 := ClientInfo{IP: "10.0.0.1"}

	if _, err := e.Authenticate(ctx, Credentials{Email: user.Email, Password: "wrong"}, client2); err == nil {
		t.Fatal("expected failure")
	}
	count, err := e.guard.FailureCount(ctx, loginIdentifier(user.Email, client2.IP))
	if err != nil {
		t.Fatalf("FailureCount error: %v", err)
	}
	if count != 1 {
		t.Fatalf("lockout state not in redis-backed store, count=%d", count)
	}
}

func TestSecurityReport(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)

	report := e.SecurityReport()
	if report.Argon2MemoryKB != 8*1024 || report.Argon2Time != 1 {
		t.Fatalf("unexpected argon2 params: %+v", report)
	}
	if report.GuardMaxAttempts != 5 || report.GuardBaseWindow != 15*time.Minute {
		t.Fatalf("unexpected guard params: %+v", report)
	}
	if report.TOTPDigits != 6 || report.TOTPPeriod != 30 || report.TOTPSkew != 2 {
		t.Fatalf("unexpected totp params: %+v", report)
	}
	if report.AccessTokenTTL != 30*time.Minute || report.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected token ttls: %+v", report)
	}
	if report.ActiveTokenKeys != 1 || report.BackupCodesPerBatch != 10 {
		t.Fatalf("unexpected key/backup params: %+v", report)
	}
}

func TestMetricsSnapshotCounts(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)
	ctx := context.Background()
	user := seedUser(t, e, provider, "metrics@example.com")
	client := ClientInfo{IP: "10.0.0.1"}

	_, _ = e.Authenticate(ctx, Credentials{Email: user.Email, Password: "wrong"}, client)
	if _, err := e.Authenticate(ctx, Credentials{Email: user.Email, Password: testPassword}, client); err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("login failures = %d", snap.Counters[MetricLoginFailure])
	}
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("login successes = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricTokenIssued] != 1 {
		t.Fatalf("tokens issued = %d", snap.Counters[MetricTokenIssued])
	}
}
