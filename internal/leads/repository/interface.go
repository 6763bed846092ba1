package repository

import (
	"context"

	"github.com/google/uuid"
)

// Lead represents a captured lead. CurrentStageID is a denormalized
// pointer kept in sync with the most recent stage assignment row.
type Lead struct {
	ID             uuid.UUID  `db:"id"`
	TenantID       uuid.UUID  `db:"tenant_id"`
	CurrentStageID *uuid.UUID `db:"current_stage_id"`
	Source         *string    `db:"source"`
	SubmittedAt    string     `db:"submitted_at"`
	UpdatedAt      string     `db:"updated_at"`
	Fields         []Field    `db:"-"`
}

// Field is one dynamic key/value pair captured with a lead.
// Position records the order of first capture.
type Field struct {
	ID       uuid.UUID `db:"id"`
	LeadID   uuid.UUID `db:"lead_id"`
	Label    string    `db:"label"`
	Value    string    `db:"value"`
	Position int       `db:"position"`
}

// StageAssignment is one append-only stage history row.
type StageAssignment struct {
	ID         uuid.UUID  `db:"id"`
	LeadID     uuid.UUID  `db:"lead_id"`
	StageID    uuid.UUID  `db:"stage_id"`
	MovedByID  *uuid.UUID `db:"moved_by_id"`
	AssignedAt string     `db:"assigned_at"`
}

// FieldInput is one dynamic field supplied at capture or update time.
type FieldInput struct {
	Label string
	Value string
}

// CreateLeadParams contains parameters for capturing a lead.
type CreateLeadParams struct {
	TenantID uuid.UUID
	Source   *string
	Fields   []FieldInput
}

// ListLeadsParams filters and paginates the lead list.
type ListLeadsParams struct {
	TenantID *uuid.UUID
	Offset   int
	Limit    int
}

// BoardLeadsParams selects the leads shown on a kanban board.
// StageID restricts to one stage; IncludeUnassigned additionally pulls
// in leads with no stage so untriaged leads stay visible.
type BoardLeadsParams struct {
	TenantID          uuid.UUID
	PipelineID        uuid.UUID
	StageID           *uuid.UUID
	IncludeUnassigned bool
	Offset            int
	Limit             int
}

// MoveLeadParams contains parameters for a stage transition.
type MoveLeadParams struct {
	LeadID    uuid.UUID
	StageID   uuid.UUID
	MovedByID uuid.UUID
}

// LeadReader provides read operations for leads.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)
	ListLeads(ctx context.Context, params ListLeadsParams) ([]Lead, int, error)
	ListBoardLeads(ctx context.Context, params BoardLeadsParams) ([]Lead, int, error)
	ListStageHistory(ctx context.Context, leadID uuid.UUID) ([]StageAssignment, error)
}

// LeadWriter provides write operations for leads.
type LeadWriter interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	ReplaceFields(ctx context.Context, leadID uuid.UUID, fields []FieldInput) error
	// MoveLead appends a stage assignment row and updates the lead's
	// current-stage pointer in one transaction.
	MoveLead(ctx context.Context, params MoveLeadParams) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
}

// Repository combines all lead repository operations.
type Repository interface {
	LeadReader
	LeadWriter
}
