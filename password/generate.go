package password

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	genUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	genLower   = "abcdefghijklmnopqrstuvwxyz"
	genDigits  = "0123456789"
	genSpecial = "!@#$%^&*()-_=+[]{}<>?"
)

// Generate produces a password that satisfies the policy by construction:
// one character from each required class, the remainder drawn from the full
// alphabet, then a Fisher-Yates shuffle so the required-class characters are
// not positionally predictable. All randomness comes from crypto/rand.
func (p Policy) Generate(length int) (string, error) {
	if length < p.MinLength {
		length = p.MinLength
	}
	if length < 4 {
		return "", errors.New("generated password length too short for required classes")
	}

	var required []string
	if p.RequireUpper {
		required = append(required, genUpper)
	}
	if p.RequireLower {
		required = append(required, genLower)
	}
	if p.RequireDigit {
		required = append(required, genDigits)
	}
	if p.RequireSpecial {
		required = append(required, genSpecial)
	}
	if len(required) > length {
		return "", errors.New("generated password length too short for required classes")
	}

	full := genUpper + genLower + genDigits + genSpecial
	out := make([]byte, 0, length)

	for _, class := range required {
		c, err := randomByte(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomByte(full)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randomByte(alphabet string) (byte, error) {
	i, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
