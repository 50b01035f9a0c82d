package password

import (
	"strings"
	"testing"
)

func TestPolicyCheckReportsAllViolations(t *testing.T) {
	policy := DefaultPolicy()

	violations := policy.Check("short", nil)
	if len(violations) < 3 {
		t.Fatalf("expected multiple violations, got %v", violations)
	}

	joined := strings.Join(violations, "|")
	for _, want := range []string{"12 characters", "uppercase", "digit", "special"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected violation mentioning %q, got %v", want, violations)
		}
	}
}

func TestPolicyCheckAccepts(t *testing.T) {
	policy := DefaultPolicy()

	if v := policy.Check("Str0ng&Secure-Pass", nil); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestPolicyCheckRejectsCommon(t *testing.T) {
	policy := DefaultPolicy()

	violations := policy.Check("password123", nil)
	found := false
	for _, v := range violations {
		if strings.Contains(v, "too common") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected common-password violation, got %v", violations)
	}
}

func TestPolicyCheckRejectsUserInfo(t *testing.T) {
	policy := DefaultPolicy()

	violations := policy.Check("Alice!Wonder9x", []string{"alice@example.com"})
	found := false
	for _, v := range violations {
		if strings.Contains(v, "personal information") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected user-info violation, got %v", violations)
	}

	// Short fragments from the email must not trigger false positives.
	if v := policy.Check("Exem9!Plar-Word", []string{"a@b.io"}); len(v) != 0 {
		t.Fatalf("expected no violations for short fragments, got %v", v)
	}
}

func TestManagerHashEnforcesPolicy(t *testing.T) {
	mgr, err := NewManager(DefaultPolicy(), testHashConfig())
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	_, err = mgr.Hash("weak", nil)
	if err == nil {
		t.Fatal("expected policy rejection")
	}
	policyErr, ok := err.(*PolicyError)
	if !ok {
		t.Fatalf("expected *PolicyError, got %T", err)
	}
	if len(policyErr.Violations) == 0 {
		t.Fatal("expected violations to be listed")
	}

	hash, err := mgr.Hash("Str0ng&Secure-Pass", nil)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err = mgr.Verify("Str0ng&Secure-Pass", hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed: ok=%v err=%v", ok, err)
	}
}
