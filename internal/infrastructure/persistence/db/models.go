package db

import (
	"time"

	"github.com/google/uuid"
)

// Schema creates the tables the tenant registry reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	country    TEXT NOT NULL,
	currency   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS identities (
	id            UUID PRIMARY KEY,
	tenant_id     UUID NOT NULL REFERENCES tenants (id),
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('ADMINISTRATOR', 'MEMBER')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_email_key ON identities (email);
`

// IdentitiesEmailKey is the unique index whose violation means the email is taken.
const IdentitiesEmailKey = "identities_email_key"

type Tenant struct {
	ID        uuid.UUID
	Name      string
	Country   string
	Currency  string
	CreatedAt time.Time
}

type Identity struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Row is the subset of pgx.Row used by the scan helpers.
type Row interface {
	Scan(dest ...any) error
}

// TenantColumns is the select list matching ScanTenant.
const TenantColumns = "id, name, country, currency, created_at"

// IdentityColumns is the select list matching ScanIdentity.
const IdentityColumns = "id, tenant_id, name, email, password_hash, role, created_at"

func ScanTenant(row Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Country, &t.Currency, &t.CreatedAt)
	return t, err
}

func ScanIdentity(row Row) (Identity, error) {
	var i Identity
	err := row.Scan(&i.ID, &i.TenantID, &i.Name, &i.Email, &i.PasswordHash, &i.Role, &i.CreatedAt)
	return i, err
}
