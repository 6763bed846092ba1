package transport

import "github.com/google/uuid"

// FieldInput is one dynamic field submitted with a lead.
type FieldInput struct {
	Label string `json:"label" validate:"required,min=1,max=200"`
	Value string `json:"value" validate:"max=4000"`
}

// CaptureLeadRequest is the payload for capturing a new lead.
// TenantID is only honored for global admin callers.
type CaptureLeadRequest struct {
	TenantID *uuid.UUID   `json:"tenantId,omitempty"`
	Source   *string      `json:"source,omitempty" validate:"omitempty,max=200"`
	Fields   []FieldInput `json:"fields" validate:"required,min=1,dive"`
}

// UpdateFieldsRequest replaces a lead's dynamic fields.
type UpdateFieldsRequest struct {
	Fields []FieldInput `json:"fields" validate:"required,min=1,dive"`
}

// MoveLeadRequest moves a lead to a new pipeline stage.
type MoveLeadRequest struct {
	StageID uuid.UUID `json:"stageId" validate:"required"`
}

// FieldResponse is the API representation of a dynamic lead field.
type FieldResponse struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Position int    `json:"position"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenantId"`
	CurrentStageID *uuid.UUID      `json:"currentStageId,omitempty"`
	Source         *string         `json:"source,omitempty"`
	SubmittedAt    string          `json:"submittedAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Fields         []FieldResponse `json:"fields"`
}

// LeadListResponse wraps a paginated list of leads.
type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// StageAssignmentResponse is one stage history entry, most recent first.
type StageAssignmentResponse struct {
	ID         uuid.UUID  `json:"id"`
	StageID    uuid.UUID  `json:"stageId"`
	MovedByID  *uuid.UUID `json:"movedById,omitempty"`
	AssignedAt string     `json:"assignedAt"`
}

// StageHistoryResponse wraps a lead's stage history.
type StageHistoryResponse struct {
	LeadID uuid.UUID                 `json:"leadId"`
	Items  []StageAssignmentResponse `json:"items"`
}

// =============================================================================
// Kanban board
// =============================================================================

// BoardRequest holds the query parameters for the kanban board endpoint.
type BoardRequest struct {
	PipelineID        uuid.UUID  `form:"pipelineId" validate:"required"`
	TenantID          *uuid.UUID `form:"tenantId"`
	StageID           *uuid.UUID `form:"stageId"`
	IncludeUnassigned bool       `form:"includeUnassigned"`
	Page              int        `form:"page"`
	PageSize          int        `form:"pageSize"`
}

// BoardCard is one lead projected onto the kanban board. Info contains
// only the field values the tenant's card config marks visible.
type BoardCard struct {
	ID          uuid.UUID         `json:"id"`
	StageID     *uuid.UUID        `json:"stageId,omitempty"`
	SubmittedAt string            `json:"submittedAt"`
	Info        map[string]string `json:"info"`
}

// BoardStage is one stage in the board's pipeline metadata.
type BoardStage struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Order int       `json:"order"`
}

// BoardPipelineMeta describes the board's pipeline. It is nil in the
// response when the requested pipeline does not exist.
type BoardPipelineMeta struct {
	ID     uuid.UUID    `json:"id"`
	Name   string       `json:"name"`
	Stages []BoardStage `json:"stages"`
}

// BoardResponse is the paginated kanban board view.
type BoardResponse struct {
	Leads    []BoardCard        `json:"leads"`
	Pipeline *BoardPipelineMeta `json:"pipelineDetails"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// =============================================================================
// Card config
// =============================================================================

// CardConfigFieldInput is one entry in a card config update.
type CardConfigFieldInput struct {
	Label   string `json:"label" validate:"required,min=1,max=200"`
	Visible bool   `json:"visible"`
}

// UpdateCardConfigRequest replaces the tenant's card config.
type UpdateCardConfigRequest struct {
	Fields []CardConfigFieldInput `json:"fields" validate:"required,min=1,dive"`
}

// CardConfigFieldResponse is one entry in a card config.
type CardConfigFieldResponse struct {
	Label    string `json:"label"`
	Position int    `json:"position"`
	Visible  bool   `json:"visible"`
}

// CardConfigResponse is the API representation of a tenant card config.
type CardConfigResponse struct {
	TenantID uuid.UUID                 `json:"tenantId"`
	Fields   []CardConfigFieldResponse `json:"fields"`
}
