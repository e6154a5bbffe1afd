package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// IdentityVerifier checks the shared secret presented by the identity
// provider bridge.
type IdentityVerifier struct {
	plain []byte
	hash  []byte
}

// NewIdentityVerifier prefers hash when it is non-empty.
func NewIdentityVerifier(plain, hash string) *IdentityVerifier {
	return &IdentityVerifier{plain: []byte(plain), hash: []byte(hash)}
}

// Verify reports whether presented matches the configured secret.
func (v *IdentityVerifier) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	if len(v.hash) > 0 {
		return bcrypt.CompareHashAndPassword(v.hash, []byte(presented)) == nil
	}
	if len(v.plain) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.plain, []byte(presented)) == 1
}

// HashSecret produces a value suitable for AUTH_IDENTITY_SECRET_HASH.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
