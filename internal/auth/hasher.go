// Package auth holds the authentication core: password hashing, signed session
// tokens and resolution of a bearer token into the current user.
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing a blank password.
var ErrEmptyPassword = errors.New("password is empty")

// Hasher hashes and verifies passwords with bcrypt.
//
// The plaintext is digested with SHA-256 first, so inputs of any length are
// accepted and none of their bytes are ignored (bcrypt alone stops at 72).
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// HashPassword returns a salted bcrypt hash of the plaintext.
func (h *Hasher) HashPassword(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(prehash(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
// Malformed hashes simply don't match.
func (h *Hasher) VerifyPassword(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plaintext)) == nil
}

func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
