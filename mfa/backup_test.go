package mfa

import "testing"

func TestGenerateBackupCodes(t *testing.T) {
	codes, hashes, err := GenerateBackupCodes(10, 10)
	if err != nil {
		t.Fatalf("GenerateBackupCodes error: %v", err)
	}
	if len(codes) != 10 || len(hashes) != 10 {
		t.Fatalf("unexpected counts: %d codes, %d hashes", len(codes), len(hashes))
	}

	seen := make(map[string]struct{})
	for i, code := range codes {
		if len(code) != 10 {
			t.Fatalf("code %d has length %d", i, len(code))
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate backup code generated")
		}
		seen[code] = struct{}{}
		if HashCode(code) != hashes[i] {
			t.Fatalf("hash %d does not match its code", i)
		}
	}
}

func TestConsumeBackupCodeSingleUse(t *testing.T) {
	codes, hashes, err := GenerateBackupCodes(5, 10)
	if err != nil {
		t.Fatalf("GenerateBackupCodes error: %v", err)
	}

	remaining, ok := ConsumeBackupCode(codes[2], hashes)
	if !ok {
		t.Fatal("expected valid backup code to consume")
	}
	if len(remaining) != 4 {
		t.Fatalf("expected 4 remaining, got %d", len(remaining))
	}

	// The same code must not verify against the remaining set.
	if _, ok := ConsumeBackupCode(codes[2], remaining); ok {
		t.Fatal("consumed code verified a second time")
	}

	// Other codes still verify.
	if _, ok := ConsumeBackupCode(codes[0], remaining); !ok {
		t.Fatal("unconsumed code failed to verify")
	}
}

func TestConsumeBackupCodeNormalizesInput(t *testing.T) {
	codes, hashes, err := GenerateBackupCodes(1, 10)
	if err != nil {
		t.Fatalf("GenerateBackupCodes error: %v", err)
	}

	mangled := "  " + codes[0] + " \n"
	if _, ok := ConsumeBackupCode(mangled, hashes); !ok {
		t.Fatal("expected trimmed code to verify")
	}
}

func TestConsumeBackupCodeUnknown(t *testing.T) {
	_, hashes, err := GenerateBackupCodes(3, 10)
	if err != nil {
		t.Fatalf("GenerateBackupCodes error: %v", err)
	}

	remaining, ok := ConsumeBackupCode("NOTACODE42", hashes)
	if ok {
		t.Fatal("unknown code verified")
	}
	if len(remaining) != 3 {
		t.Fatalf("hash set changed on miss: %d", len(remaining))
	}
}
