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

const (
	pipelineNotFoundMessage = "pipeline not found"
	stageNotFoundMessage    = "pipeline stage not found"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new pipelines repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreatePipeline inserts a new pipeline for a tenant.
func (r *Repo) CreatePipeline(ctx context.Context, params CreatePipelineParams) (Pipeline, error) {
	query := `
		INSERT INTO pipelines (tenant_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, tenant_id, name, description, is_active, created_at, updated_at`

	var p Pipeline
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, params.TenantID, params.Name, params.Description).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return Pipeline{}, fmt.Errorf("create pipeline: %w", err)
	}

	p.CreatedAt = createdAt.Format(time.RFC3339)
	p.UpdatedAt = updatedAt.Format(time.RFC3339)

	return p, nil
}

// GetPipeline retrieves a pipeline by its ID.
func (r *Repo) GetPipeline(ctx context.Context, id uuid.UUID) (Pipeline, error) {
	query := `
		SELECT id, tenant_id, name, description, is_active, created_at, updated_at
		FROM pipelines
		WHERE id = $1`

	var p Pipeline
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pipeline{}, apperr.NotFound(pipelineNotFoundMessage)
		}
		return Pipeline{}, fmt.Errorf("get pipeline: %w", err)
	}

	p.CreatedAt = createdAt.Format(time.RFC3339)
	p.UpdatedAt = updatedAt.Format(time.RFC3339)

	return p, nil
}

// ListPipelines retrieves pipelines, optionally filtered by tenant.
// A nil tenantID returns pipelines across all tenants.
func (r *Repo) ListPipelines(ctx context.Context, tenantID *uuid.UUID) ([]Pipeline, error) {
	query := `
		SELECT id, tenant_id, name, description, is_active, created_at, updated_at
		FROM pipelines
		WHERE ($1::uuid IS NULL OR tenant_id = $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var results []Pipeline
	for rows.Next() {
		var p Pipeline
		var createdAt, updatedAt time.Time

		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}

		p.CreatedAt = createdAt.Format(time.RFC3339)
		p.UpdatedAt = updatedAt.Format(time.RFC3339)
		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipelines: %w", err)
	}

	return results, nil
}

// DeactivatePipeline soft-deletes a pipeline. Pipelines are never hard deleted.
func (r *Repo) DeactivatePipeline(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE pipelines SET is_active = false, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate pipeline: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(pipelineNotFoundMessage)
	}

	return nil
}

// CreateStage inserts a new stage into a pipeline with the given sort order.
func (r *Repo) CreateStage(ctx context.Context, params CreateStageParams) (Stage, error) {
	query := `
		INSERT INTO pipeline_stages (pipeline_id, name, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, pipeline_id, name, sort_order, created_at, updated_at`

	var st Stage
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, params.PipelineID, params.Name, params.SortOrder).Scan(
		&st.ID, &st.PipelineID, &st.Name, &st.SortOrder, &createdAt, &updatedAt,
	)
	if err != nil {
		return Stage{}, fmt.Errorf("create stage: %w", err)
	}

	st.CreatedAt = createdAt.Format(time.RFC3339)
	st.UpdatedAt = updatedAt.Format(time.RFC3339)

	return st, nil
}

// GetStage retrieves a stage by its ID.
func (r *Repo) GetStage(ctx context.Context, id uuid.UUID) (Stage, error) {
	query := `
		SELECT id, pipeline_id, name, sort_order, created_at, updated_at
		FROM pipeline_stages
		WHERE id = $1`

	var st Stage
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.PipelineID, &st.Name, &st.SortOrder, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, apperr.NotFound(stageNotFoundMessage)
		}
		return Stage{}, fmt.Errorf("get stage: %w", err)
	}

	st.CreatedAt = createdAt.Format(time.RFC3339)
	st.UpdatedAt = updatedAt.Format(time.RFC3339)

	return st, nil
}

// ListStages retrieves a pipeline's stages in display order.
func (r *Repo) ListStages(ctx context.Context, pipelineID uuid.UUID) ([]Stage, error) {
	query := `
		SELECT id, pipeline_id, name, sort_order, created_at, updated_at
		FROM pipeline_stages
		WHERE pipeline_id = $1
		ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var results []Stage
	for rows.Next() {
		var st Stage
		var createdAt, updatedAt time.Time

		if err := rows.Scan(&st.ID, &st.PipelineID, &st.Name, &st.SortOrder, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}

		st.CreatedAt = createdAt.Format(time.RFC3339)
		st.UpdatedAt = updatedAt.Format(time.RFC3339)
		results = append(results, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}

	return results, nil
}

// UpdateStage applies a partial update to a single stage.
func (r *Repo) UpdateStage(ctx context.Context, params UpdateStageParams) (Stage, error) {
	query := `
		UPDATE pipeline_stages SET
			name = COALESCE($2, name),
			sort_order = COALESCE($3, sort_order),
			updated_at = now()
		WHERE id = $1
		RETURNING id, pipeline_id, name, sort_order, created_at, updated_at`

	var st Stage
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, params.ID, params.Name, params.SortOrder).Scan(
		&st.ID, &st.PipelineID, &st.Name, &st.SortOrder, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, apperr.NotFound(stageNotFoundMessage)
		}
		return Stage{}, fmt.Errorf("update stage: %w", err)
	}

	st.CreatedAt = createdAt.Format(time.RFC3339)
	st.UpdatedAt = updatedAt.Format(time.RFC3339)

	return st, nil
}
