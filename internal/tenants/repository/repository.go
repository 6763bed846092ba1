package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_portal_backend/platform/apperr"
)

const tenantNotFoundMessage = "tenant not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tenants repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateTenant inserts a new active tenant.
func (r *Repo) CreateTenant(ctx context.Context, params CreateTenantParams) (Tenant, error) {
	query := `
		INSERT INTO tenants (name, type)
		VALUES ($1, $2)
		RETURNING id, name, type, is_active, created_at, updated_at`

	return r.scanTenant(r.pool.QueryRow(ctx, query, params.Name, params.Type), "create tenant")
}

// GetTenant retrieves a tenant by id.
func (r *Repo) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	query := `
		SELECT id, name, type, is_active, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	return r.scanTenant(r.pool.QueryRow(ctx, query, id), "get tenant")
}

// ListTenants retrieves all tenants, newest first.
func (r *Repo) ListTenants(ctx context.Context) ([]Tenant, error) {
	query := `
		SELECT id, name, type, is_active, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var results []Tenant
	for rows.Next() {
		var tenant Tenant
		var createdAt, updatedAt time.Time

		err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Type, &tenant.IsActive, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}

		tenant.CreatedAt = createdAt.Format(time.RFC3339)
		tenant.UpdatedAt = updatedAt.Format(time.RFC3339)
		results = append(results, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}

	return results, nil
}

// ListActiveTenantIDs retrieves the ids of all active tenants.
func (r *Repo) ListActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tenants WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	defer rows.Close()

	var results []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		results = append(results, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant ids: %w", err)
	}

	return results, nil
}

// RenameTenant updates a tenant's display name.
func (r *Repo) RenameTenant(ctx context.Context, id uuid.UUID, name string) (Tenant, error) {
	query := `
		UPDATE tenants
		SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, type, is_active, created_at, updated_at`

	return r.scanTenant(r.pool.QueryRow(ctx, query, id, name), "rename tenant")
}

// DeactivateTenant soft-deletes a tenant. Requests scoped to it are
// rejected once the allow-list cache expires.
func (r *Repo) DeactivateTenant(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tenants SET is_active = false, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(tenantNotFoundMessage)
	}

	return nil
}

func (r *Repo) scanTenant(row pgx.Row, operation string) (Tenant, error) {
	var tenant Tenant
	var createdAt, updatedAt time.Time

	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Type, &tenant.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, apperr.NotFound(tenantNotFoundMessage)
		}
		return Tenant{}, fmt.Errorf("%s: %w", operation, err)
	}

	tenant.CreatedAt = createdAt.Format(time.RFC3339)
	tenant.UpdatedAt = updatedAt.Format(time.RFC3339)
	return tenant, nil
}
