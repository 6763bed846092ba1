package repository

import (
	"context"

	"github.com/google/uuid"
)

// Tenant types.
const (
	TypeGlobalAdmin = "GLOBAL_ADMIN"
	TypeStandard    = "STANDARD"
)

// Tenant represents one portal tenant.
type Tenant struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Type      string    `db:"type"`
	IsActive  bool      `db:"is_active"`
	CreatedAt string    `db:"created_at"`
	UpdatedAt string    `db:"updated_at"`
}

// CreateTenantParams contains parameters for creating a tenant.
type CreateTenantParams struct {
	Name string
	Type string
}

// TenantReader provides read operations for tenants.
type TenantReader interface {
	GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	// ListActiveTenantIDs feeds the allow-list cache.
	ListActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TenantWriter provides write operations for tenants.
type TenantWriter interface {
	CreateTenant(ctx context.Context, params CreateTenantParams) (Tenant, error)
	RenameTenant(ctx context.Context, id uuid.UUID, name string) (Tenant, error)
	DeactivateTenant(ctx context.Context, id uuid.UUID) error
}

// Repository combines all tenant repository operations.
type Repository interface {
	TenantReader
	TenantWriter
}
