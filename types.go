package credcore

import (
	"context"
	"time"

	"github.com/avheli/credcore/internal/kv"
)

// Store is the key-value abstraction backing lockout records, pending
// codes, and replay counters. kv.MemoryStore and kv.RedisStore satisfy it;
// callers may supply their own implementation through Builder.WithStore.
type Store = kv.Store

// UserRecord is the engine's view of a stored user. Providers own the
// actual storage; the engine never issues raw storage calls.
type UserRecord struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string

	MFAEnabled       bool
	MFASecret        string // base32, empty unless TOTP is set up
	BackupCodeHashes [][32]byte

	LastLoginAt time.Time
}

// clone returns a deep copy so engine callers never share backing arrays
// with the provider.
func (u *UserRecord) clone() *UserRecord {
	if u == nil {
		return nil
	}
	out := *u
	if u.BackupCodeHashes != nil {
		out.BackupCodeHashes = make([][32]byte, len(u.BackupCodeHashes))
		copy(out.BackupCodeHashes, u.BackupCodeHashes)
	}
	return &out
}

// sanitized strips secret material before a record is handed back to the
// caller.
func (u *UserRecord) sanitized() *UserRecord {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.MFASecret = ""
	out.BackupCodeHashes = nil
	return &out
}

// UserProvider is the external user-record collaborator. Lookup misses
// must return ErrUserNotFound. Implementations own their timeout policy;
// the engine treats context errors as system failures, never as user
// failures.
type UserProvider interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateMFA(ctx context.Context, id string, enabled bool, secret string, backupCodeHashes [][32]byte) error
}

// Credentials is one login attempt. MFACode is empty on the first leg of
// an MFA login.
type Credentials struct {
	Email    string
	Password string
	MFACode  string
}

// ClientInfo describes the request origin, used for lockout scoping and
// audit context.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AuthResult is the outcome of one Authenticate call. When RequiresMFA is
// set no tokens are present and the caller must retry with an MFA code.
type AuthResult struct {
	Success      bool
	RequiresMFA  bool
	AccessToken  string
	RefreshToken string
	User         *UserRecord
}

// MFASetupResult carries the one-time plaintext material from SetupMFA.
// Backup codes are never recoverable afterwards.
type MFASetupResult struct {
	Secret       string
	ProvisionURI string
	BackupCodes  []string
}
