package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantID is a value object for tenant (company) identity.
type TenantID struct{ uuid.UUID }

// NewTenantID creates a new TenantID from uuid.
func NewTenantID(id uuid.UUID) TenantID { return TenantID{UUID: id} }

// String returns the canonical string form.
func (t TenantID) String() string { return t.UUID.String() }

// Tenant is one company. It is created once, by the bootstrap signup.
type Tenant struct {
	ID        TenantID
	Name      string
	Country   string
	Currency  string
	CreatedAt time.Time
}
