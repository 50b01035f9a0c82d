package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type distinguishes the two token kinds carried in the payload.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const (
	ivSize  = 16
	tagSize = 16

	minKeyLen = 32
)

// ErrInvalid is the generic validation failure. The specific cause is
// carried in InvalidError.Reason for logging; callers must not expose it.
var ErrInvalid = errors.New("invalid token")

// InvalidError wraps ErrInvalid with an internal reason.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string { return "invalid token" }

func (e *InvalidError) Unwrap() error { return ErrInvalid }

func invalid(reason string) error { return &InvalidError{Reason: reason} }

// Reason extracts the internal cause from a validation error, or "" when
// the error carries none.
func Reason(err error) string {
	var ie *InvalidError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}

// Payload is the plaintext token body. Field names are part of the wire
// format and must not change.
type Payload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Type   Type   `json:"type"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
	JTI    string `json:"jti"`
}

// Pair holds the two tokens minted by one Issue call.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Config holds keys and lifetimes for a Tokenizer.
type Config struct {
	// Keys is the active key list, newest first. Issue always uses
	// Keys[0]; Validate tries each in order, so an old key can stay in
	// the list while its tokens age out.
	Keys [][]byte

	AccessTTL  time.Duration // default 30 minutes
	RefreshTTL time.Duration // default 7 days
}

// Tokenizer seals and opens session tokens. Safe for concurrent use.
type Tokenizer struct {
	aeads      []cipher.AEAD
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// New builds a Tokenizer. It refuses keys shorter than 32 bytes so a weak
// deployment fails at startup rather than at first request.
func New(cfg Config) (*Tokenizer, error) {
	if len(cfg.Keys) == 0 {
		return nil, errors.New("token: at least one key required")
	}
	aeads := make([]cipher.AEAD, 0, len(cfg.Keys))
	for i, key := range cfg.Keys {
		if len(key) < minKeyLen {
			return nil, fmt.Errorf("token: key %d is %d bytes, need at least %d", i, len(key), minKeyLen)
		}
		block, err := aes.NewCipher(key[:minKeyLen])
		if err != nil {
			return nil, fmt.Errorf("token: key %d: %w", i, err)
		}
		aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
		if err != nil {
			return nil, fmt.Errorf("token: key %d: %w", i, err)
		}
		aeads = append(aeads, aead)
	}

	t := &Tokenizer{
		aeads:      aeads,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	if t.accessTTL <= 0 {
		t.accessTTL = 30 * time.Minute
	}
	if t.refreshTTL <= 0 {
		t.refreshTTL = 7 * 24 * time.Hour
	}
	return t, nil
}

// SetClock overrides the time source. Test use only.
func (t *Tokenizer) SetClock(now func() time.Time) {
	t.now = now
}

// Issue mints an access/refresh pair for the subject. Each token carries
// its own jti.
func (t *Tokenizer) Issue(userID, role string) (*Pair, error) {
	access, err := t.issueOne(userID, role, TypeAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.issueOne(userID, role, TypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *Tokenizer) issueOne(userID, role string, typ Type, ttl time.Duration) (string, error) {
	now := t.now()
	payload := Payload{
		UserID: userID,
		Role:   role,
		Type:   typ,
		Exp:    now.Add(ttl).Unix(),
		Iat:    now.Unix(),
		JTI:    uuid.NewString(),
	}
	return t.seal(&payload)
}

func (t *Tokenizer) seal(payload *Payload) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("token: marshal payload: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("token: read iv: %w", err)
	}

	// GCM appends the tag to the ciphertext; the wire format carries it
	// as a separate third field.
	sealed := t.aeads[0].Seal(nil, iv, plaintext, nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(iv) + "." + hex.EncodeToString(ct) + "." + hex.EncodeToString(tag), nil
}

// Validate opens a token and checks its expiry. Failures return an error
// wrapping ErrInvalid whose reason is for logs only.
func (t *Tokenizer) Validate(token string) (*Payload, error) {
	iv, ct, tag, err := splitWire(token)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	var plaintext []byte
	opened := false
	for _, aead := range t.aeads {
		if pt, err := aead.Open(nil, iv, sealed, nil); err == nil {
			plaintext = pt
			opened = true
			break
		}
	}
	if !opened {
		return nil, invalid("authentication tag mismatch")
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, invalid("malformed payload")
	}
	if payload.Type != TypeAccess && payload.Type != TypeRefresh {
		return nil, invalid("unknown token type")
	}
	if payload.Exp < t.now().Unix() {
		return nil, invalid("expired")
	}
	return &payload, nil
}

// Refresh exchanges a valid refresh token for a fresh access token.
func (t *Tokenizer) Refresh(refreshToken string) (string, error) {
	payload, err := t.Validate(refreshToken)
	if err != nil {
		return "", err
	}
	if payload.Type != TypeRefresh {
		return "", invalid("not a refresh token")
	}
	return t.issueOne(payload.UserID, payload.Role, TypeAccess, t.accessTTL)
}

// splitWire rejects anything that is not three dot-joined hex fields with
// a 16-byte iv and 16-byte tag, before any decryption is attempted.
func splitWire(token string) (iv, ct, tag []byte, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, nil, invalid("wire shape")
	}
	iv, err = hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return nil, nil, nil, invalid("bad iv field")
	}
	ct, err = hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, nil, invalid("bad ciphertext field")
	}
	tag, err = hex.DecodeString(parts[2])
	if err != nil || len(tag) != tagSize {
		return nil, nil, nil, invalid("bad tag field")
	}
	return iv, ct, tag, nil
}
