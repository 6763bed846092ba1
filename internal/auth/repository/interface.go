package repository

import (
	"context"

	"github.com/google/uuid"
)

// User represents an account able to sign in to the portal.
type User struct {
	ID           uuid.UUID  `db:"id"`
	TenantID     *uuid.UUID `db:"tenant_id"`
	TenantType   string     `db:"tenant_type"`
	Email        string     `db:"email"`
	Name         string     `db:"name"`
	PasswordHash string     `db:"password_hash"`
	Roles        []string   `db:"roles"`
	IsActive     bool       `db:"is_active"`
}

// UserReader provides read operations for user accounts.
type UserReader interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// GetUserEmail resolves a user id to their email address, used when
	// fanning out notifications to internal participants.
	GetUserEmail(ctx context.Context, id uuid.UUID) (string, error)
}

// Repository combines all auth repository operations.
type Repository interface {
	UserReader
}
