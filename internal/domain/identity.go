package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdentityID is a value object for account identity.
type IdentityID struct{ uuid.UUID }

// NewIdentityID creates a new IdentityID from uuid.
func NewIdentityID(id uuid.UUID) IdentityID { return IdentityID{UUID: id} }

// String returns the canonical string form.
func (i IdentityID) String() string { return i.UUID.String() }

// Identity is a human account. Email is unique system-wide; TenantID is fixed at creation.
type Identity struct {
	ID           IdentityID
	TenantID     TenantID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Principal returns the claims a session credential carries for this identity.
func (i *Identity) Principal() Principal {
	return Principal{IdentityID: i.ID, Role: i.Role, TenantID: i.TenantID}
}
