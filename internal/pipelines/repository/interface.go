package repository

import (
	"context"

	"github.com/google/uuid"
)

// Pipeline represents a tenant-owned kanban pipeline.
type Pipeline struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   string    `db:"created_at"`
	UpdatedAt   string    `db:"updated_at"`
}

// Stage represents one ordered position within a pipeline.
// Sort order values need not be contiguous or unique; display order is
// sort_order ascending with ties broken by insertion order.
type Stage struct {
	ID         uuid.UUID `db:"id"`
	PipelineID uuid.UUID `db:"pipeline_id"`
	Name       string    `db:"name"`
	SortOrder  int       `db:"sort_order"`
	CreatedAt  string    `db:"created_at"`
	UpdatedAt  string    `db:"updated_at"`
}

// CreatePipelineParams contains parameters for creating a pipeline.
type CreatePipelineParams struct {
	TenantID    uuid.UUID
	Name        string
	Description *string
}

// CreateStageParams contains parameters for creating a pipeline stage.
type CreateStageParams struct {
	PipelineID uuid.UUID
	Name       string
	SortOrder  int
}

// UpdateStageParams contains parameters for a partial stage update.
// Nil fields are left unchanged.
type UpdateStageParams struct {
	ID        uuid.UUID
	Name      *string
	SortOrder *int
}

// PipelineReader provides read operations for pipelines and stages.
type PipelineReader interface {
	GetPipeline(ctx context.Context, id uuid.UUID) (Pipeline, error)
	ListPipelines(ctx context.Context, tenantID *uuid.UUID) ([]Pipeline, error)
	GetStage(ctx context.Context, id uuid.UUID) (Stage, error)
	ListStages(ctx context.Context, pipelineID uuid.UUID) ([]Stage, error)
}

// PipelineWriter provides write operations for pipelines and stages.
type PipelineWriter interface {
	CreatePipeline(ctx context.Context, params CreatePipelineParams) (Pipeline, error)
	DeactivatePipeline(ctx context.Context, id uuid.UUID) error
	CreateStage(ctx context.Context, params CreateStageParams) (Stage, error)
	UpdateStage(ctx context.Context, params UpdateStageParams) (Stage, error)
}

// Repository combines all pipeline repository operations.
type Repository interface {
	PipelineReader
	PipelineWriter
}
