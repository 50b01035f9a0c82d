package password

import (
	"strings"
	"unicode"
)

// Strength is UI feedback for a candidate password. Score runs 0 (trivially
// guessable) to 4 (strong). It never gates storage; the Manager's policy
// check is the storage gate.
type Strength struct {
	Score       int
	Suggestions []string
}

// Rate scores a candidate password. userContext carries identifying strings
// that weaken the password when embedded in it.
func Rate(password string, userContext []string) Strength {
	if password == "" {
		return Strength{Score: 0, Suggestions: []string{"add more characters"}}
	}

	lower := strings.ToLower(password)
	var suggestions []string
	points := 0

	switch {
	case len(password) >= 16:
		points += 2
	case len(password) >= 12:
		points++
	default:
		suggestions = append(suggestions, "use at least 12 characters")
	}

	classes := 0
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
	for _, has := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if has {
			classes++
		}
	}
	if classes >= 4 {
		points += 2
	} else if classes == 3 {
		points++
	}
	if !hasSpecial {
		suggestions = append(suggestions, "add a special character")
	}
	if !hasDigit {
		suggestions = append(suggestions, "add a digit")
	}
	if !hasUpper || !hasLower {
		suggestions = append(suggestions, "mix uppercase and lowercase letters")
	}

	// Hard caps: common passwords and embedded personal information are
	// guessable no matter how long they are.
	if isCommonPassword(lower) {
		return Strength{Score: 0, Suggestions: []string{"avoid well-known passwords"}}
	}
	for _, info := range userContext {
		for _, fragment := range splitUserInfo(info) {
			if len(fragment) >= 4 && strings.Contains(lower, fragment) {
				suggestions = append(suggestions, "avoid personal information")
				if points > 1 {
					points = 1
				}
			}
		}
	}

	if hasRepeatRun(password, 4) {
		suggestions = append(suggestions, "avoid repeated characters")
		if points > 2 {
			points = 2
		}
	}

	if points > 4 {
		points = 4
	}
	return Strength{Score: points, Suggestions: suggestions}
}

func hasRepeatRun(s string, n int) bool {
	run := 1
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}
