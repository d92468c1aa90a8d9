// Package otp issues and checks one-time email verification codes.
//
// Only the SHA-256 digest of a code is ever persisted; the plaintext exists
// just long enough to be handed to the notification gateway.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const (
	// Length is the number of digits in a code.
	Length = 6
	// TTL is how long an issued code stays valid.
	TTL = 10 * time.Minute

	minCode = 100000
	maxCode = 999999
)

var span = big.NewInt(maxCode - minCode + 1)

// Issued is a freshly generated code together with what gets stored for it.
type Issued struct {
	Code      string
	Digest    string
	ExpiresAt time.Time
}

// Generate returns a uniformly random code in [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()+minCode), nil
}

// Digest returns the hex-encoded SHA-256 of code.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether code hashes to digest, comparing in constant time.
func Matches(code, digest string) bool {
	if digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Digest(code)), []byte(digest)) == 1
}

// Issue generates a code that expires TTL after now.
func Issue(now time.Time) (Issued, error) {
	code, err := Generate()
	if err != nil {
		return Issued{}, err
	}
	return Issued{
		Code:      code,
		Digest:    Digest(code),
		ExpiresAt: now.Add(TTL).UTC(),
	}, nil
}

// Expired reports whether a code with the given expiry is no longer valid at now.
// A missing expiry counts as expired.
func Expired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || !now.Before(*expiresAt)
}
