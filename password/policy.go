package password

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy describes the rules a password must satisfy before it is hashed
// and stored.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
	// RejectCommon rejects passwords found in the embedded common-password
	// set (case-insensitive).
	RejectCommon bool
	// MinUserInfoLen is the shortest user-identifying substring considered a
	// violation when embedded in the password. Shorter fragments produce too
	// many false positives.
	MinUserInfoLen int
}

// DefaultPolicy returns the policy floor used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      12,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
		RejectCommon:   true,
		MinUserInfoLen: 4,
	}
}

// PolicyError lists every rule a candidate password violated so the caller
// can present complete feedback in one round trip.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password policy violation: " + strings.Join(e.Violations, "; ")
}

// Check evaluates password against the policy and returns all violations.
// userContext carries identifying strings (email, name) that must not be
// embedded in the password. An empty slice means the password passes.
func (p Policy) Check(password string, userContext []string) []string {
	var violations []string

	if len(password) < p.MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if p.RequireUpper && !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if p.RequireSpecial && !hasSpecial {
		violations = append(violations, "must contain a special character")
	}

	lower := strings.ToLower(password)
	if p.RejectCommon && isCommonPassword(lower) {
		violations = append(violations, "is too common")
	}

	minInfo := p.MinUserInfoLen
	if minInfo <= 0 {
		minInfo = 4
	}
	for _, info := range userContext {
		for _, fragment := range splitUserInfo(info) {
			if len(fragment) >= minInfo && strings.Contains(lower, fragment) {
				violations = append(violations, "must not contain personal information")
				return violations
			}
		}
	}

	return violations
}

// splitUserInfo breaks an identifying string into comparable fragments:
// the whole value lowercased plus the local part and labels of an email.
func splitUserInfo(info string) []string {
	info = strings.ToLower(strings.TrimSpace(info))
	if info == "" {
		return nil
	}

	fragments := []string{info}
	for _, sep := range []string{"@", ".", "_", "-", "+"} {
		if strings.Contains(info, sep) {
			fragments = append(fragments, strings.Split(info, sep)...)
		}
	}
	return fragments
}
