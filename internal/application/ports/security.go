package ports

import "github.com/amirhosseinghanipour/expensa/internal/domain"

// PasswordHasher hashes and verifies passwords (Argon2id).
// Verify fails closed: a malformed stored hash is a mismatch, not an error.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// SessionIssuer mints signed, time-bounded session credentials (HS256).
type SessionIssuer interface {
	Issue(principal domain.Principal) (domain.Credential, error)
}

// SessionVerifier validates a credential and returns its claims.
// Every failure is reported as errors.ErrTokenInvalid.
type SessionVerifier interface {
	Verify(token string) (domain.Principal, error)
}
