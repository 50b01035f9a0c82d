package mfa

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
)

// backupAlphabet avoids visually ambiguous characters (0/O, 1/I/L).
const backupAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateBackupCodes returns count single-use codes of the given length in
// plaintext together with their SHA-256 hashes. The plaintext is shown to
// the user exactly once; only the hashes are ever stored.
func GenerateBackupCodes(count, length int) ([]string, [][32]byte, error) {
	if count <= 0 || length < 6 {
		return nil, nil, errors.New("invalid backup code parameters")
	}

	codes := make([]string, 0, count)
	hashes := make([][32]byte, 0, count)
	for i := 0; i < count; i++ {
		code, err := randomCode(length)
		if err != nil {
			return nil, nil, err
		}
		codes = append(codes, code)
		hashes = append(hashes, HashCode(code))
	}
	return codes, hashes, nil
}

// HashCode hashes a code after normalization (trim + uppercase) so user
// input survives copy/paste mangling.
func HashCode(code string) [32]byte {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	return sha256.Sum256([]byte(normalized))
}

// ConsumeBackupCode matches submitted against storedHashes and, on a hit,
// returns the remaining hashes with the matched entry removed. Every stored
// hash is compared so timing does not reveal the match position.
func ConsumeBackupCode(submitted string, storedHashes [][32]byte) ([][32]byte, bool) {
	target := HashCode(submitted)

	matched := -1
	for i := range storedHashes {
		if subtle.ConstantTimeCompare(target[:], storedHashes[i][:]) == 1 && matched == -1 {
			matched = i
		}
	}
	if matched == -1 {
		return storedHashes, false
	}

	remaining := make([][32]byte, 0, len(storedHashes)-1)
	remaining = append(remaining, storedHashes[:matched]...)
	remaining = append(remaining, storedHashes[matched+1:]...)
	return remaining, true
}

func randomCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(backupAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(backupAlphabet[n.Int64()])
	}
	return b.String(), nil
}
