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

const leadNotFoundMessage = "lead not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateLead inserts a lead and its dynamic fields in one transaction.
func (r *Repo) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, fmt.Errorf("begin create lead: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO leads (tenant_id, source)
		VALUES ($1, $2)
		RETURNING id, tenant_id, current_stage_id, source, submitted_at, updated_at`

	var lead Lead
	var submittedAt, updatedAt time.Time

	err = tx.QueryRow(ctx, query, params.TenantID, params.Source).Scan(
		&lead.ID, &lead.TenantID, &lead.CurrentStageID, &lead.Source, &submittedAt, &updatedAt,
	)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}

	for i, field := range params.Fields {
		fieldQuery := `
			INSERT INTO lead_fields (lead_id, label, value, position)
			VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, fieldQuery, lead.ID, field.Label, field.Value, i); err != nil {
			return Lead{}, fmt.Errorf("create lead field: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("commit create lead: %w", err)
	}

	lead.SubmittedAt = submittedAt.Format(time.RFC3339)
	lead.UpdatedAt = updatedAt.Format(time.RFC3339)

	fields, err := r.listFields(ctx, []uuid.UUID{lead.ID})
	if err != nil {
		return Lead{}, err
	}
	lead.Fields = fields[lead.ID]

	return lead, nil
}

// GetLead retrieves a lead with its dynamic fields.
func (r *Repo) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `
		SELECT id, tenant_id, current_stage_id, source, submitted_at, updated_at
		FROM leads
		WHERE id = $1`

	var lead Lead
	var submittedAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lead.ID, &lead.TenantID, &lead.CurrentStageID, &lead.Source, &submittedAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}

	lead.SubmittedAt = submittedAt.Format(time.RFC3339)
	lead.UpdatedAt = updatedAt.Format(time.RFC3339)

	fields, err := r.listFields(ctx, []uuid.UUID{lead.ID})
	if err != nil {
		return Lead{}, err
	}
	lead.Fields = fields[lead.ID]

	return lead, nil
}

// ListLeads retrieves leads newest first with offset pagination.
// A nil tenant filter returns leads across all tenants.
func (r *Repo) ListLeads(ctx context.Context, params ListLeadsParams) ([]Lead, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM leads
		WHERE ($1::uuid IS NULL OR tenant_id = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, params.TenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `
		SELECT id, tenant_id, current_stage_id, source, submitted_at, updated_at
		FROM leads
		WHERE ($1::uuid IS NULL OR tenant_id = $1)
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, params.TenantID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachFields(ctx, leads); err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// ListBoardLeads retrieves leads for a kanban board, newest first.
// Pipeline membership is resolved through the lead's current stage;
// unassigned leads are optionally included.
func (r *Repo) ListBoardLeads(ctx context.Context, params BoardLeadsParams) ([]Lead, int, error) {
	filter := `
		FROM leads l
		LEFT JOIN pipeline_stages ps ON ps.id = l.current_stage_id
		WHERE l.tenant_id = $1
			AND (
				ps.pipeline_id = $2
				OR ($3::boolean AND l.current_stage_id IS NULL)
			)
			AND ($4::uuid IS NULL OR l.current_stage_id = $4)`

	var total int
	countQuery := `SELECT COUNT(*) ` + filter
	err := r.pool.QueryRow(ctx, countQuery,
		params.TenantID, params.PipelineID, params.IncludeUnassigned, params.StageID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count board leads: %w", err)
	}

	query := `
		SELECT l.id, l.tenant_id, l.current_stage_id, l.source, l.submitted_at, l.updated_at ` +
		filter + `
		ORDER BY l.submitted_at DESC
		LIMIT $5 OFFSET $6`

	rows, err := r.pool.Query(ctx, query,
		params.TenantID, params.PipelineID, params.IncludeUnassigned, params.StageID,
		params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list board leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachFields(ctx, leads); err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// ListStageHistory retrieves a lead's stage assignments, most recent first.
func (r *Repo) ListStageHistory(ctx context.Context, leadID uuid.UUID) ([]StageAssignment, error) {
	query := `
		SELECT id, lead_id, stage_id, moved_by_id, assigned_at
		FROM lead_stage_assignments
		WHERE lead_id = $1
		ORDER BY assigned_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	var results []StageAssignment
	for rows.Next() {
		var sa StageAssignment
		var assignedAt time.Time

		if err := rows.Scan(&sa.ID, &sa.LeadID, &sa.StageID, &sa.MovedByID, &assignedAt); err != nil {
			return nil, fmt.Errorf("scan stage assignment: %w", err)
		}

		sa.AssignedAt = assignedAt.Format(time.RFC3339)
		results = append(results, sa)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage history: %w", err)
	}

	return results, nil
}

// ReplaceFields replaces a lead's dynamic fields in one transaction.
func (r *Repo) ReplaceFields(ctx context.Context, leadID uuid.UUID, fields []FieldInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace fields: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM lead_fields WHERE lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("clear lead fields: %w", err)
	}

	for i, field := range fields {
		query := `
			INSERT INTO lead_fields (lead_id, label, value, position)
			VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, query, leadID, field.Label, field.Value, i); err != nil {
			return fmt.Errorf("insert lead field: %w", err)
		}
	}

	result, err := tx.Exec(ctx, `UPDATE leads SET updated_at = now() WHERE id = $1`, leadID)
	if err != nil {
		return fmt.Errorf("touch lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace fields: %w", err)
	}

	return nil
}

// MoveLead appends a stage assignment history row and updates the lead's
// denormalized current-stage pointer. Both writes commit together; the
// history and the pointer can never diverge.
func (r *Repo) MoveLead(ctx context.Context, params MoveLeadParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin move lead: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	historyQuery := `
		INSERT INTO lead_stage_assignments (lead_id, stage_id, moved_by_id)
		VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, historyQuery, params.LeadID, params.StageID, params.MovedByID); err != nil {
		return fmt.Errorf("append stage assignment: %w", err)
	}

	pointerQuery := `UPDATE leads SET current_stage_id = $2, updated_at = now() WHERE id = $1`
	result, err := tx.Exec(ctx, pointerQuery, params.LeadID, params.StageID)
	if err != nil {
		return fmt.Errorf("update current stage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit move lead: %w", err)
	}

	return nil
}

// DeleteLead removes a lead. Fields, history, and activities cascade.
func (r *Repo) DeleteLead(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	return nil
}

// attachFields loads the dynamic fields for a batch of leads.
func (r *Repo) attachFields(ctx context.Context, leads []Lead) error {
	if len(leads) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(leads))
	for i, lead := range leads {
		ids[i] = lead.ID
	}

	fieldsByLead, err := r.listFields(ctx, ids)
	if err != nil {
		return err
	}

	for i := range leads {
		leads[i].Fields = fieldsByLead[leads[i].ID]
	}

	return nil
}

func (r *Repo) listFields(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]Field, error) {
	query := `
		SELECT id, lead_id, label, value, position
		FROM lead_fields
		WHERE lead_id = ANY($1)
		ORDER BY lead_id, position ASC`

	rows, err := r.pool.Query(ctx, query, leadIDs)
	if err != nil {
		return nil, fmt.Errorf("list lead fields: %w", err)
	}
	defer rows.Close()

	results := make(map[uuid.UUID][]Field)
	for rows.Next() {
		var f Field
		if err := rows.Scan(&f.ID, &f.LeadID, &f.Label, &f.Value, &f.Position); err != nil {
			return nil, fmt.Errorf("scan lead field: %w", err)
		}
		results[f.LeadID] = append(results[f.LeadID], f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead fields: %w", err)
	}

	return results, nil
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var results []Lead

	for rows.Next() {
		var lead Lead
		var submittedAt, updatedAt time.Time

		err := rows.Scan(&lead.ID, &lead.TenantID, &lead.CurrentStageID, &lead.Source, &submittedAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}

		lead.SubmittedAt = submittedAt.Format(time.RFC3339)
		lead.UpdatedAt = updatedAt.Format(time.RFC3339)
		results = append(results, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return results, nil
}
