// Package crypto implements password hashing and session token generation.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvolkov/notekeeper/internal/errs"
)

// BcryptCost is the bcrypt work factor applied to every stored credential.
const BcryptCost = 12

// Session tokens carry 256 bits of entropy.
const sessionTokenBytes = 32

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns a salted bcrypt digest of the plaintext. Two calls
// with the same plaintext produce different digests.
func HashPassword(plaintext string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCredential, err)
	}
	return digest, nil
}

// VerifyPassword reports whether plaintext matches the stored digest.
// Structural failures and mismatches are both reported as false; the
// distinction never reaches the caller.
func VerifyPassword(plaintext string, digest []byte) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(plaintext)) == nil
}

// NewSessionToken returns an opaque, unguessable session token.
func NewSessionToken() (string, error) {
	b, err := RandBytes(sessionTokenBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrCredential, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
