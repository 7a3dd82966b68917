package memory

import (
	"context"
	"sync"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
)

// TenantRegistry is an in-process ports.TenantRegistry for single-instance development
// and tests. RunInTx holds one write lock for the whole callback, which makes every
// transaction serial; writes are staged and applied only when fn returns nil.
type TenantRegistry struct {
	mu         sync.RWMutex
	tenants    []domain.Tenant
	identities []domain.Identity
	byEmail    map[string]int
}

func NewTenantRegistry() *TenantRegistry {
	return &TenantRegistry{byEmail: make(map[string]int)}
}

func (r *TenantRegistry) RunInTx(ctx context.Context, fn func(tx ports.RegistryTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &registryTx{r: r, pendingEmails: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}
	r.tenants = append(r.tenants, tx.tenants...)
	for _, id := range tx.identities {
		r.byEmail[id.Email] = len(r.identities)
		r.identities = append(r.identities, id)
	}
	return nil
}

func (r *TenantRegistry) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	out := r.identities[i]
	return &out, nil
}

func (r *TenantRegistry) GetIdentityByID(ctx context.Context, id domain.IdentityID) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ident := range r.identities {
		if ident.ID == id {
			out := ident
			return &out, nil
		}
	}
	return nil, nil
}

func (r *TenantRegistry) GetTenantByID(ctx context.Context, id domain.TenantID) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.ID == id {
			out := t
			return &out, nil
		}
	}
	return nil, nil
}

// Tenants returns a snapshot of all committed tenants.
func (r *TenantRegistry) Tenants() []domain.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Tenant(nil), r.tenants...)
}

// Identities returns a snapshot of all committed identities.
func (r *TenantRegistry) Identities() []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Identity(nil), r.identities...)
}

// registryTx runs with r.mu held for writing.
type registryTx struct {
	r             *TenantRegistry
	tenants       []domain.Tenant
	identities    []domain.Identity
	pendingEmails map[string]bool
}

func (t *registryTx) CountTenants(ctx context.Context) (int64, error) {
	return int64(len(t.r.tenants) + len(t.tenants)), nil
}

func (t *registryTx) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	t.tenants = append(t.tenants, *tenant)
	return nil
}

func (t *registryTx) FirstTenant(ctx context.Context) (*domain.Tenant, error) {
	switch {
	case len(t.r.tenants) > 0:
		out := t.r.tenants[0]
		return &out, nil
	case len(t.tenants) > 0:
		out := t.tenants[0]
		return &out, nil
	}
	return nil, nil
}

func (t *registryTx) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	if _, ok := t.r.byEmail[identity.Email]; ok || t.pendingEmails[identity.Email] {
		return domerrors.ErrEmailTaken
	}
	t.pendingEmails[identity.Email] = true
	t.identities = append(t.identities, *identity)
	return nil
}

var _ ports.TenantRegistry = (*TenantRegistry)(nil)
