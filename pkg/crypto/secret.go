package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	DefaultSecretLength = 32 // 256 bits
	StateLength         = 16 // 128 bits
)

// Secret is a freshly generated opaque secret and its storage digest
type Secret struct {
	Value  string // returned to the client once
	Digest string // persisted
}

// RandomString returns byteLength random bytes encoded as unpadded base64url.
// A non-positive length falls back to DefaultSecretLength.
func RandomString(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultSecretLength
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSecret generates a URL-safe secret with no embedded structure.
func NewSecret(byteLength int) (*Secret, error) {
	value, err := RandomString(byteLength)
	if err != nil {
		return nil, err
	}

	return &Secret{
		Value:  value,
		Digest: Digest(value),
	}, nil
}

// Digest is the lowercase hex SHA-256 of the UTF-8 bytes of secret.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
