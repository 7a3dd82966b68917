package domain

import "time"

// Principal is the resolved identity a session credential proves: who, in which role,
// for which tenant. It is what request handlers read from context.
type Principal struct {
	IdentityID IdentityID
	Role       Role
	TenantID   TenantID
}

// Credential is a signed, time-bounded session token.
type Credential struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
