package security

import (
	"crypto/sha256"
	"encoding/base64"
)

// PKCEMethodS256 is the only code challenge method this package produces.
const PKCEMethodS256 = "S256"

// GeneratePKCE generates a PKCE code verifier and its S256 code challenge.
// The verifier is 43 characters of base64url, satisfying RFC 7636's 43-128
// character requirement.
func GeneratePKCE() (verifier, challenge string, err error) {
	verifier, err = RandomToken(DefaultTokenBytes)
	if err != nil {
		return "", "", err
	}

	return verifier, ChallengeS256(verifier), nil
}

// ChallengeS256 computes the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)), no padding.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyPKCE reports whether challenge is the S256 challenge for verifier.
// The comparison is constant time.
func VerifyPKCE(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	return ConstantTimeEquals(ChallengeS256(verifier), challenge)
}
