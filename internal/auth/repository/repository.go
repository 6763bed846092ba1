package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_portal_backend/platform/apperr"
)

const userNotFoundMessage = "user not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new auth repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetUserByEmail retrieves a user by email address, case-insensitively.
// The tenant type rides along from the tenants table; users without a
// tenant are treated as global admin accounts.
func (r *Repo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT u.id, u.tenant_id, COALESCE(t.type, 'GLOBAL_ADMIN'),
		       u.email, u.name, u.password_hash, u.roles, u.is_active
		FROM users u
		LEFT JOIN tenants t ON t.id = u.tenant_id
		WHERE lower(u.email) = lower($1)`

	var user User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.TenantID,
		&user.TenantType,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Roles,
		&user.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// GetUserEmail resolves a user id to their email address.
func (r *Repo) GetUserEmail(ctx context.Context, id uuid.UUID) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, id).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound(userNotFoundMessage)
		}
		return "", fmt.Errorf("get user email: %w", err)
	}

	return email, nil
}
