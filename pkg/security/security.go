// Package security provides the cryptographic primitives shared by the
// OAuth flow engine and the session lifecycle manager: random token
// generation, PKCE verifier/challenge handling, and constant-time
// comparisons.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// DefaultTokenBytes is the number of random bytes used for state values,
// nonces, and session tokens (256 bits of entropy).
const DefaultTokenBytes = 32

// RandomToken returns a cryptographically random, URL-safe token.
// n is the number of random bytes; values <= 0 use DefaultTokenBytes.
func RandomToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("security: random source failed: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the base64url-encoded SHA-256 digest of s.
// Useful as a cache or log key that does not expose the raw token.
func HashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ConstantTimeEquals compares two strings in constant time.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
