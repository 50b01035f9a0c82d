package credcore

import (
	"context"
	"errors"
	"testing"

	"github.com/avheli/credcore/password"
)

func TestChangePassword(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)
	ctx := context.Background()
	user := seedUser(t, e, provider, "alice@example.com")

	const next = "Another-Valid9!Password"
	if err := e.ChangePassword(ctx, user.ID, testPassword, next); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	// Old password no longer authenticates; new one does.
	if _, err := e.Authenticate(ctx, Credentials{Email: user.Email, Password: testPassword}, ClientInfo{IP: "10.0.0.1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := e.Authenticate(ctx, Credentials{Email: user.Email, Password: next}, ClientInfo{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)
	ctx := context.Background()
	user := seedUser(t, e, provider, "bob@example.com")

	err := e.ChangePassword(ctx, user.ID, "not-the-password", "Another-Valid9!Password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePasswordRejectsWeak(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)
	ctx := context.Background()
	user := seedUser(t, e, provider, "carol@example.com")

	err := e.ChangePassword(ctx, user.ID, testPassword, "short")
	var policyErr *password.PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected *password.PolicyError, got %v", err)
	}
	if len(policyErr.Violations) == 0 {
		t.Fatal("expected violation list")
	}
}

func TestChangePasswordRejectsReuse(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)
	ctx := context.Background()
	user := seedUser(t, e, provider, "dave@example.com")

	if err := e.ChangePassword(ctx, user.ID, testPassword, testPassword); !errors.Is(err, ErrPasswordReuse) {
		t.Fatalf("expected ErrPasswordReuse, got %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)

	if err := e.ChangePassword(context.Background(), "missing", testPassword, "Another-Valid9!Password"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordStrengthAndGenerate(t *testing.T) {
	provider := newFakeProvider()
	e := newTestEngine(t, provider, nil)

	if s := e.PasswordStrength("password", nil); s.Score != 0 {
		t.Fatalf("common password scored %d", s.Score)
	}

	generated, err := e.GeneratePassword(20)
	if err != nil {
		t.Fatalf("GeneratePassword error: %v", err)
	}
	if s := e.PasswordStrength(generated, nil); s.Score < 3 {
		t.Fatalf("generated password scored %d", s.Score)
	}
}
