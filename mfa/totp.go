package mfa

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// totpSecretBytes gives 160 bits of seed entropy, the RFC 4226 minimum.
const totpSecretBytes = 20

// TOTPConfig holds time-step code parameters.
type TOTPConfig struct {
	Issuer    string
	Digits    int    // default 6
	Period    int    // seconds per step, default 30
	Algorithm string // SHA1 (default), SHA256, SHA512
	Skew      int    // accepted steps either side of now, default 2
}

func (c *TOTPConfig) applyDefaults() {
	if c.Digits <= 0 {
		c.Digits = 6
	}
	if c.Period <= 0 {
		c.Period = 30
	}
	if c.Algorithm == "" {
		c.Algorithm = "SHA1"
	}
	if c.Skew < 0 {
		c.Skew = 0
	}
}

// TOTP generates secrets and verifies time-step codes.
type TOTP struct {
	config TOTPConfig
}

// NewTOTP creates a TOTP verifier with defaults applied.
func NewTOTP(cfg TOTPConfig) *TOTP {
	cfg.applyDefaults()
	return &TOTP{config: cfg}
}

// Config returns the active configuration.
func (t *TOTP) Config() TOTPConfig {
	return t.config
}

// GenerateSecret returns a fresh random seed as raw bytes plus its
// unpadded base32 encoding for authenticator provisioning.
func (t *TOTP) GenerateSecret() ([]byte, string, error) {
	raw := make([]byte, totpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return raw, enc.EncodeToString(raw), nil
}

// ProvisionURI builds the otpauth:// URI that authenticator apps consume.
func (t *TOTP) ProvisionURI(secretBase32, account string) string {
	issuer := t.config.Issuer
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", issuer)
	v.Set("period", strconv.Itoa(t.config.Period))
	v.Set("digits", strconv.Itoa(t.config.Digits))
	v.Set("algorithm", strings.ToUpper(t.config.Algorithm))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// Code computes the code for the time step containing now, for
// provisioning checks and test fixtures.
func (t *TOTP) Code(secret []byte, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty totp secret")
	}
	counter := now.Unix() / int64(t.config.Period)
	return hotpCode(secret, counter, t.config.Digits, t.config.Algorithm)
}

// Verify checks code against the secret over the ±Skew step window and
// returns the matched time-step counter for replay tracking. The code
// comparison is constant-time per candidate step.
func (t *TOTP) Verify(secret []byte, code string, now time.Time) (bool, int64, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != t.config.Digits || !isDigits(trimmed) {
		return false, 0, nil
	}
	if len(secret) == 0 {
		return false, 0, errors.New("empty totp secret")
	}

	baseCounter := now.Unix() / int64(t.config.Period)
	for step := -t.config.Skew; step <= t.config.Skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		generated, err := hotpCode(secret, counter, t.config.Digits, t.config.Algorithm)
		if err != nil {
			return false, 0, err
		}
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, counter, nil
		}
	}

	return false, 0, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// hotpCode computes the RFC 4226 dynamic truncation for one counter value.
func hotpCode(secret []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported totp algorithm")
	}
}
