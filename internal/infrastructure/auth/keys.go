package auth

import "errors"

// MinSigningKeyLength is the smallest accepted HMAC-SHA256 secret, in bytes.
const MinSigningKeyLength = 32

// SigningKey is the process-wide HMAC secret. It is read-only after construction.
type SigningKey struct {
	b []byte
}

// NewSigningKey validates and copies the configured secret.
func NewSigningKey(secret string) (SigningKey, error) {
	if secret == "" {
		return SigningKey{}, errors.New("session signing secret is required")
	}
	if len(secret) < MinSigningKeyLength {
		return SigningKey{}, errors.New("session signing secret must be at least 32 bytes")
	}
	return SigningKey{b: []byte(secret)}, nil
}

// String never prints the key material.
func (k SigningKey) String() string { return "SigningKey(redacted)" }
