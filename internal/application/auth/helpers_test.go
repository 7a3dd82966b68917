package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
	infraauth "github.com/amirhosseinghanipour/expensa/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/security"
)

func cheapHasher() *security.Argon2Hasher {
	return security.NewArgon2Hasher(security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1})
}

func testSigner(t *testing.T) *infraauth.SessionSigner {
	t.Helper()
	key, err := infraauth.NewSigningKey("application-test-secret-0123456789abcdef")
	require.NoError(t, err)
	s, err := infraauth.NewSessionSigner(infraauth.SessionConfig{Key: key, Issuer: "expensa"}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func newTestSignUp(t *testing.T, registry ports.TenantRegistry) *SignUp {
	t.Helper()
	uc := NewSignUp(registry, cheapHasher(), testSigner(t), zerolog.Nop())
	uc.backOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return uc
}

func validSignUp(email string) SignUpInput {
	return SignUpInput{
		CompanyName: "Acme",
		Country:     "US",
		Currency:    "USD",
		Name:        "Ann",
		Email:       email,
		Password:    "hunter22",
	}
}

// conflictRegistry fails the first `conflicts` transactions with ErrTransactionConflict.
type conflictRegistry struct {
	*memory.TenantRegistry
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (r *conflictRegistry) RunInTx(ctx context.Context, fn func(tx ports.RegistryTx) error) error {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.conflicts
	r.mu.Unlock()
	if fail {
		return domerrors.ErrTransactionConflict
	}
	return r.TenantRegistry.RunInTx(ctx, fn)
}

// countOnlyRegistry reports tenants exist but has none to return.
type countOnlyRegistry struct {
	*memory.TenantRegistry
}

func (r countOnlyRegistry) RunInTx(ctx context.Context, fn func(tx ports.RegistryTx) error) error {
	return r.TenantRegistry.RunInTx(ctx, func(tx ports.RegistryTx) error {
		return fn(brokenTx{tx})
	})
}

type brokenTx struct{ ports.RegistryTx }

func (brokenTx) CountTenants(context.Context) (int64, error) { return 1, nil }

type fakeLockout struct {
	mu         sync.Mutex
	locked     bool
	retryAfter int
	failures   map[string]int
	successes  map[string]int
}

func newFakeLockout() *fakeLockout {
	return &fakeLockout{failures: map[string]int{}, successes: map[string]int{}}
}

func (f *fakeLockout) IsLocked(context.Context, string) (bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked, f.retryAfter
}

func (f *fakeLockout) RecordFailure(_ context.Context, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[email]++
}

func (f *fakeLockout) RecordSuccess(_ context.Context, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes[email]++
}
