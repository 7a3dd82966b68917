package ports

import (
	"context"

	"github.com/amirhosseinghanipour/expensa/internal/domain"
)

// RegistryTx is the view of the tenant registry inside one isolated transaction.
type RegistryTx interface {
	CountTenants(ctx context.Context) (int64, error)
	CreateTenant(ctx context.Context, tenant *domain.Tenant) error
	// FirstTenant returns the oldest tenant, or nil if there is none.
	FirstTenant(ctx context.Context) (*domain.Tenant, error)
	// CreateIdentity returns errors.ErrEmailTaken on a duplicate email.
	CreateIdentity(ctx context.Context, identity *domain.Identity) error
}

// TenantRegistry is persistence for tenants and identities.
//
// RunInTx must isolate fn so that two concurrent callers can never both observe a
// zero tenant count and both create a tenant. When the store detects contention it
// returns errors.ErrTransactionConflict and nothing is committed.
type TenantRegistry interface {
	RunInTx(ctx context.Context, fn func(tx RegistryTx) error) error
	// GetIdentityByEmail returns nil, nil when no identity has the email.
	GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetIdentityByID(ctx context.Context, id domain.IdentityID) (*domain.Identity, error)
	GetTenantByID(ctx context.Context, id domain.TenantID) (*domain.Tenant, error)
}
