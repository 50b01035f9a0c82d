package password

import (
	"testing"
	"unicode"
)

func TestGenerateSatisfiesPolicy(t *testing.T) {
	policy := DefaultPolicy()

	for i := 0; i < 50; i++ {
		pw, err := policy.Generate(16)
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if len(pw) != 16 {
			t.Fatalf("unexpected length %d", len(pw))
		}
		if v := policy.Check(pw, nil); len(v) != 0 {
			t.Fatalf("generated password violates policy: %v (%q)", v, pw)
		}
	}
}

func TestGeneratePadsToMinLength(t *testing.T) {
	policy := DefaultPolicy()

	pw, err := policy.Generate(4)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(pw) != policy.MinLength {
		t.Fatalf("expected padding to MinLength %d, got %d", policy.MinLength, len(pw))
	}
}

func TestGenerateShufflesRequiredClasses(t *testing.T) {
	policy := DefaultPolicy()

	// With required classes inserted first and then shuffled, the first
	// character should not always be uppercase.
	firstUpper := 0
	const rounds = 64
	for i := 0; i < rounds; i++ {
		pw, err := policy.Generate(16)
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if unicode.IsUpper(rune(pw[0])) {
			firstUpper++
		}
	}
	if firstUpper == rounds {
		t.Fatal("first character was uppercase on every round; shuffle looks broken")
	}
}
