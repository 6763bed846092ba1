package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crm_portal_backend/platform/apperr"
)

const cardConfigNotFoundMessage = "card config not found"

// CardConfig is a tenant's projection rule for kanban cards: which
// dynamic lead fields appear on a card, in which order.
type CardConfig struct {
	ID        uuid.UUID         `db:"id"`
	TenantID  uuid.UUID         `db:"tenant_id"`
	Fields    []CardConfigField `db:"-"`
	CreatedAt string            `db:"created_at"`
	UpdatedAt string            `db:"updated_at"`
}

// CardConfigField is one entry in a card config.
type CardConfigField struct {
	Label    string `db:"label"`
	Position int    `db:"position"`
	Visible  bool   `db:"visible"`
}

// CardConfigReader provides read access to tenant card configs.
type CardConfigReader interface {
	GetCardConfig(ctx context.Context, tenantID uuid.UUID) (CardConfig, error)
}

// CardConfigWriter provides write access to tenant card configs.
type CardConfigWriter interface {
	UpsertCardConfig(ctx context.Context, tenantID uuid.UUID, fields []CardConfigField) (CardConfig, error)
	DeleteCardConfig(ctx context.Context, tenantID uuid.UUID) error
}

// CardConfigRepository combines card config operations.
type CardConfigRepository interface {
	CardConfigReader
	CardConfigWriter
}

// Compile-time check that Repo implements CardConfigRepository.
var _ CardConfigRepository = (*Repo)(nil)

// GetCardConfig retrieves the tenant's card config with ordered fields.
func (r *Repo) GetCardConfig(ctx context.Context, tenantID uuid.UUID) (CardConfig, error) {
	query := `
		SELECT id, tenant_id, created_at, updated_at
		FROM card_configs
		WHERE tenant_id = $1`

	var cfg CardConfig
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, tenantID).Scan(&cfg.ID, &cfg.TenantID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CardConfig{}, apperr.NotFound(cardConfigNotFoundMessage)
		}
		return CardConfig{}, fmt.Errorf("get card config: %w", err)
	}

	cfg.CreatedAt = createdAt.Format(time.RFC3339)
	cfg.UpdatedAt = updatedAt.Format(time.RFC3339)

	fieldsQuery := `
		SELECT label, position, visible
		FROM card_config_fields
		WHERE config_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, fieldsQuery, cfg.ID)
	if err != nil {
		return CardConfig{}, fmt.Errorf("list card config fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f CardConfigField
		if err := rows.Scan(&f.Label, &f.Position, &f.Visible); err != nil {
			return CardConfig{}, fmt.Errorf("scan card config field: %w", err)
		}
		cfg.Fields = append(cfg.Fields, f)
	}

	if err := rows.Err(); err != nil {
		return CardConfig{}, fmt.Errorf("iterate card config fields: %w", err)
	}

	return cfg, nil
}

// UpsertCardConfig replaces the tenant's card config with the given fields.
func (r *Repo) UpsertCardConfig(ctx context.Context, tenantID uuid.UUID, fields []CardConfigField) (CardConfig, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CardConfig{}, fmt.Errorf("begin upsert card config: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO card_configs (tenant_id)
		VALUES ($1)
		ON CONFLICT (tenant_id) DO UPDATE SET updated_at = now()
		RETURNING id, tenant_id, created_at, updated_at`

	var cfg CardConfig
	var createdAt, updatedAt time.Time

	if err := tx.QueryRow(ctx, query, tenantID).Scan(&cfg.ID, &cfg.TenantID, &createdAt, &updatedAt); err != nil {
		return CardConfig{}, fmt.Errorf("upsert card config: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM card_config_fields WHERE config_id = $1`, cfg.ID); err != nil {
		return CardConfig{}, fmt.Errorf("clear card config fields: %w", err)
	}

	for _, f := range fields {
		fieldQuery := `
			INSERT INTO card_config_fields (config_id, label, position, visible)
			VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, fieldQuery, cfg.ID, f.Label, f.Position, f.Visible); err != nil {
			return CardConfig{}, fmt.Errorf("insert card config field: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return CardConfig{}, fmt.Errorf("commit upsert card config: %w", err)
	}

	cfg.CreatedAt = createdAt.Format(time.RFC3339)
	cfg.UpdatedAt = updatedAt.Format(time.RFC3339)
	cfg.Fields = fields

	return cfg, nil
}

// DeleteCardConfig removes the tenant's card config. Field rows cascade.
func (r *Repo) DeleteCardConfig(ctx context.Context, tenantID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM card_configs WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("delete card config: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(cardConfigNotFoundMessage)
	}

	return nil
}
