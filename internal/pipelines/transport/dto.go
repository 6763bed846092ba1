package transport

import "github.com/google/uuid"

// CreatePipelineRequest is the payload for creating a pipeline.
// TenantID is only honored for global admin callers; standard callers
// always create pipelines in their own tenant.
type CreatePipelineRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	TenantID    *uuid.UUID `json:"tenantId,omitempty"`
}

// CreateStageRequest is the payload for adding a stage to a pipeline.
type CreateStageRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Order int    `json:"order" validate:"gte=0"`
}

// StageUpdateItem is one entry in a stage reorder batch.
// Name and Order are both optional; at least one must be present.
type StageUpdateItem struct {
	ID    uuid.UUID `json:"id" validate:"required"`
	Name  *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Order *int      `json:"order,omitempty" validate:"omitempty,gte=0"`
}

// ReorderStagesRequest is the payload for the batch stage update endpoint.
type ReorderStagesRequest struct {
	Updates []StageUpdateItem `json:"updates" validate:"required,min=1,dive"`
}

// StageResponse is the API representation of a pipeline stage.
type StageResponse struct {
	ID         uuid.UUID `json:"id"`
	PipelineID uuid.UUID `json:"pipelineId"`
	Name       string    `json:"name"`
	Order      int       `json:"order"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

// PipelineResponse is the API representation of a pipeline.
type PipelineResponse struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenantId"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
	Stages      []StageResponse `json:"stages,omitempty"`
}

// PipelineListResponse wraps a list of pipelines.
type PipelineListResponse struct {
	Items []PipelineResponse `json:"items"`
	Total int                `json:"total"`
}

// StageUpdateResult reports the outcome of one item in a reorder batch.
type StageUpdateResult struct {
	StageID uuid.UUID `json:"stageId"`
	Status  string    `json:"status"` // "updated" or "failed"
	Error   string    `json:"error,omitempty"`
}

// ReorderStagesResponse reports per-item outcomes for a reorder batch.
// Items are independent units of work; failed items never roll back
// their siblings.
type ReorderStagesResponse struct {
	Results []StageUpdateResult `json:"results"`
	Failed  int                 `json:"failed"`
}
