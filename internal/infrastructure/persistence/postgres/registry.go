package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/persistence/db"
)

// bootstrapLockKey names the transaction-scoped advisory lock that serialises
// every registry write transaction.
const bootstrapLockKey int64 = 0x6578_7065_6e73_61

const (
	setLockTimeoutSQL  = `SELECT set_config('lock_timeout', $1, true)`
	advisoryLockSQL    = `SELECT pg_advisory_xact_lock($1)`
	countTenantsSQL    = `SELECT count(*) FROM tenants`
	insertTenantSQL    = `INSERT INTO tenants (id, name, country, currency, created_at) VALUES ($1, $2, $3, $4, $5)`
	firstTenantSQL     = `SELECT ` + db.TenantColumns + ` FROM tenants ORDER BY created_at, id LIMIT 1`
	tenantByIDSQL      = `SELECT ` + db.TenantColumns + ` FROM tenants WHERE id = $1`
	insertIdentitySQL  = `INSERT INTO identities (id, tenant_id, name, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	identityByEmailSQL = `SELECT ` + db.IdentityColumns + ` FROM identities WHERE email = $1`
	identityByIDSQL    = `SELECT ` + db.IdentityColumns + ` FROM identities WHERE id = $1`
)

// SQLSTATE codes that mean "try again".
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
)

// DB is the subset of *pgxpool.Pool the registry needs (pgxmock.PgxPoolIface satisfies it).
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// writeTxOptions: statements after the advisory lock must see rows committed by the
// previous lock holder, so the snapshot is per statement.
var writeTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// TenantRegistry implements ports.TenantRegistry on PostgreSQL. Every write
// transaction takes pg_advisory_xact_lock first, so write transactions run one at a
// time and the tenant count a transaction reads cannot change before it commits.
type TenantRegistry struct {
	db        DB
	txTimeout time.Duration
	log       zerolog.Logger
}

func NewTenantRegistry(pool DB, txTimeout time.Duration, log zerolog.Logger) *TenantRegistry {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &TenantRegistry{
		db:        pool,
		txTimeout: txTimeout,
		log:       log.With().Str("component", "tenant_registry").Logger(),
	}
}

// RunInTx runs fn under the bootstrap lock. Conflicts are logged here with the
// SQLSTATE cause; callers only see ErrTransactionConflict.
func (r *TenantRegistry) RunInTx(ctx context.Context, fn func(tx ports.RegistryTx) error) error {
	err := r.runInTx(ctx, fn)
	if errors.Is(err, domerrors.ErrTransactionConflict) {
		r.log.Warn().Err(err).Dur("tx_timeout", r.txTimeout).Msg("registry write transaction conflict")
	}
	return err
}

func (r *TenantRegistry) runInTx(ctx context.Context, fn func(tx ports.RegistryTx) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, writeTxOptions)
	if err != nil {
		return mapErr("begin", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, setLockTimeoutSQL, fmt.Sprintf("%dms", r.txTimeout.Milliseconds())); err != nil {
		return mapErr("set lock timeout", err)
	}
	if _, err := tx.Exec(ctx, advisoryLockSQL, bootstrapLockKey); err != nil {
		return mapErr("acquire bootstrap lock", err)
	}
	if err := fn(&registryTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapErr("commit", err)
	}
	return nil
}

func (r *TenantRegistry) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getIdentity(ctx, identityByEmailSQL, email)
}

func (r *TenantRegistry) GetIdentityByID(ctx context.Context, id domain.IdentityID) (*domain.Identity, error) {
	return r.getIdentity(ctx, identityByIDSQL, id.UUID)
}

func (r *TenantRegistry) getIdentity(ctx context.Context, query string, arg any) (*domain.Identity, error) {
	row, err := db.ScanIdentity(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return dbIdentityToDomain(row)
}

func (r *TenantRegistry) GetTenantByID(ctx context.Context, id domain.TenantID) (*domain.Tenant, error) {
	row, err := db.ScanTenant(r.db.QueryRow(ctx, tenantByIDSQL, id.UUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return dbTenantToDomain(row), nil
}

type registryTx struct {
	tx pgx.Tx
}

func (t *registryTx) CountTenants(ctx context.Context) (int64, error) {
	var n int64
	if err := t.tx.QueryRow(ctx, countTenantsSQL).Scan(&n); err != nil {
		return 0, mapErr("count tenants", err)
	}
	return n, nil
}

func (t *registryTx) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	_, err := t.tx.Exec(ctx, insertTenantSQL,
		tenant.ID.UUID, tenant.Name, tenant.Country, tenant.Currency, tenant.CreatedAt)
	if err != nil {
		return mapErr("create tenant", err)
	}
	return nil
}

func (t *registryTx) FirstTenant(ctx context.Context) (*domain.Tenant, error) {
	row, err := db.ScanTenant(t.tx.QueryRow(ctx, firstTenantSQL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapErr("first tenant", err)
	}
	return dbTenantToDomain(row), nil
}

func (t *registryTx) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	_, err := t.tx.Exec(ctx, insertIdentitySQL,
		identity.ID.UUID, identity.TenantID.UUID, identity.Name, identity.Email,
		identity.PasswordHash, identity.Role.String(), identity.CreatedAt)
	if err != nil {
		return mapErr("create identity", err)
	}
	return nil
}

// mapErr translates SQLSTATE codes into domain errors, keeping the cause in the chain.
func mapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%s: %w: %w", op, domerrors.ErrTransactionConflict, err)
		case codeUniqueViolation:
			if pgErr.ConstraintName == db.IdentitiesEmailKey {
				return fmt.Errorf("%s: %w", op, domerrors.ErrEmailTaken)
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domerrors.ErrTransactionConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func dbTenantToDomain(t db.Tenant) *domain.Tenant {
	return &domain.Tenant{
		ID:        domain.NewTenantID(t.ID),
		Name:      t.Name,
		Country:   t.Country,
		Currency:  t.Currency,
		CreatedAt: t.CreatedAt,
	}
}

func dbIdentityToDomain(i db.Identity) (*domain.Identity, error) {
	role, err := domain.ParseRole(i.Role)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}
	return &domain.Identity{
		ID:           domain.NewIdentityID(i.ID),
		TenantID:     domain.NewTenantID(i.TenantID),
		Name:         i.Name,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		Role:         role,
		CreatedAt:    i.CreatedAt,
	}, nil
}

// Ensure TenantRegistry implements ports.TenantRegistry.
var _ ports.TenantRegistry = (*TenantRegistry)(nil)
