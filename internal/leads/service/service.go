package service

import (
	"context"
	"strings"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/leads/repository"
	"crm_portal_backend/internal/leads/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// StageRef resolves a stage to its pipeline and owning tenant.
// Backed by the pipelines module through an adapter.
type StageRef struct {
	StageID    uuid.UUID
	PipelineID uuid.UUID
	TenantID   uuid.UUID
}

// StageResolver looks up the pipeline and tenant owning a stage.
type StageResolver interface {
	ResolveStage(ctx context.Context, stageID uuid.UUID) (StageRef, error)
}

// Service provides business logic for leads.
type Service struct {
	repo        repository.Repository
	stages      StageResolver
	bus         events.Bus
	log         *logger.Logger
	phoneRegion string
}

// New creates a new leads service.
func New(repo repository.Repository, stages StageResolver, bus events.Bus, cfg config.LeadCaptureConfig, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		stages:      stages,
		bus:         bus,
		log:         log,
		phoneRegion: cfg.GetDefaultPhoneRegion(),
	}
}

// Capture stores a new lead with its dynamic fields. Phone-like field
// values are normalized to E.164 best-effort before persisting.
func (s *Service) Capture(ctx context.Context, sc scope.Scope, req transport.CaptureLeadRequest) (transport.LeadResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.LeadResponse{}, err
	}

	tenantID := resolveTargetTenant(sc, req.TenantID)
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	fields := make([]repository.FieldInput, len(req.Fields))
	for i, f := range req.Fields {
		value := f.Value
		if isPhoneLabel(f.Label) {
			value = phone.NormalizeE164Region(value, s.phoneRegion)
		}
		fields[i] = repository.FieldInput{Label: f.Label, Value: value}
	}

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		TenantID: tenantID,
		Source:   req.Source,
		Fields:   fields,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	source := ""
	if req.Source != nil {
		source = *req.Source
	}
	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  lead.TenantID,
		Source:    source,
	})

	s.log.Info("lead captured", "id", lead.ID, "tenantId", lead.TenantID, "fields", len(fields))
	return toLeadResponse(lead), nil
}

// Get retrieves a lead with its fields.
func (s *Service) Get(ctx context.Context, sc scope.Scope, id uuid.UUID) (transport.LeadResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, lead.TenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	return toLeadResponse(lead), nil
}

// List retrieves leads visible to the caller, newest first.
func (s *Service) List(ctx context.Context, sc scope.Scope, requestedTenantID *uuid.UUID, page, pageSize int) (transport.LeadListResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.LeadListResponse{}, err
	}

	page, pageSize = normalizePagination(page, pageSize)
	filter := scope.EffectiveTenantFilter(sc, requestedTenantID)

	items, total, err := s.repo.ListLeads(ctx, repository.ListLeadsParams{
		TenantID: filter,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	responses := make([]transport.LeadResponse, len(items))
	for i, item := range items {
		responses[i] = toLeadResponse(item)
	}

	return transport.LeadListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// UpdateFields replaces a lead's dynamic fields.
func (s *Service) UpdateFields(ctx context.Context, sc scope.Scope, id uuid.UUID, req transport.UpdateFieldsRequest) (transport.LeadResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, lead.TenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	fields := make([]repository.FieldInput, len(req.Fields))
	for i, f := range req.Fields {
		value := f.Value
		if isPhoneLabel(f.Label) {
			value = phone.NormalizeE164Region(value, s.phoneRegion)
		}
		fields[i] = repository.FieldInput{Label: f.Label, Value: value}
	}

	if err := s.repo.ReplaceFields(ctx, id, fields); err != nil {
		return transport.LeadResponse{}, err
	}

	updated, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return toLeadResponse(updated), nil
}

// Delete removes a lead and its dependent records.
func (s *Service) Delete(ctx context.Context, sc scope.Scope, id uuid.UUID) error {
	if err := scope.Require(sc); err != nil {
		return err
	}

	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.CheckTenantAccess(sc, lead.TenantID); err != nil {
		return err
	}

	if err := s.repo.DeleteLead(ctx, id); err != nil {
		return err
	}

	s.log.Info("lead deleted", "id", id, "tenantId", lead.TenantID)
	return nil
}

// Move transitions a lead to a new stage. The target stage's pipeline
// resolves the tenant to authorize against; the history append and the
// current-stage pointer update commit atomically in the repository.
func (s *Service) Move(ctx context.Context, sc scope.Scope, leadID uuid.UUID, req transport.MoveLeadRequest) (transport.LeadResponse, error) {
	if err := scope.RequireFull(sc); err != nil {
		return transport.LeadResponse{}, err
	}

	ref, err := s.stages.ResolveStage(ctx, req.StageID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, ref.TenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.TenantID != ref.TenantID {
		return transport.LeadResponse{}, apperr.Invariant("lead and stage belong to different tenants")
	}

	oldStageID := lead.CurrentStageID

	if err := s.repo.MoveLead(ctx, repository.MoveLeadParams{
		LeadID:    leadID,
		StageID:   req.StageID,
		MovedByID: *sc.UserID,
	}); err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		TenantID:   lead.TenantID,
		PipelineID: ref.PipelineID,
		OldStageID: oldStageID,
		NewStageID: req.StageID,
		MovedByID:  sc.UserID,
	})

	s.log.Info("lead moved", "id", leadID, "stageId", req.StageID, "movedBy", *sc.UserID)

	moved, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(moved), nil
}

// StageHistory retrieves a lead's stage assignments, most recent first.
func (s *Service) StageHistory(ctx context.Context, sc scope.Scope, leadID uuid.UUID) (transport.StageHistoryResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.StageHistoryResponse{}, err
	}

	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return transport.StageHistoryResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, lead.TenantID); err != nil {
		return transport.StageHistoryResponse{}, err
	}

	history, err := s.repo.ListStageHistory(ctx, leadID)
	if err != nil {
		return transport.StageHistoryResponse{}, err
	}

	items := make([]transport.StageAssignmentResponse, len(history))
	for i, sa := range history {
		items[i] = transport.StageAssignmentResponse{
			ID:         sa.ID,
			StageID:    sa.StageID,
			MovedByID:  sa.MovedByID,
			AssignedAt: sa.AssignedAt,
		}
	}

	return transport.StageHistoryResponse{LeadID: leadID, Items: items}, nil
}

var phoneLabelHints = []string{"phone", "telefone", "celular", "whatsapp", "mobile", "tel"}

// isPhoneLabel reports whether a dynamic field label looks like a phone
// number field worth normalizing.
func isPhoneLabel(label string) bool {
	lowered := strings.ToLower(label)
	for _, hint := range phoneLabelHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func resolveTargetTenant(sc scope.Scope, requested *uuid.UUID) uuid.UUID {
	if sc.IsGlobalAdmin() && requested != nil {
		return *requested
	}
	if sc.TenantID != nil {
		return *sc.TenantID
	}
	if requested != nil {
		return *requested
	}
	return uuid.Nil
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	fields := make([]transport.FieldResponse, len(lead.Fields))
	for i, f := range lead.Fields {
		fields[i] = transport.FieldResponse{Label: f.Label, Value: f.Value, Position: f.Position}
	}
	return transport.LeadResponse{
		ID:             lead.ID,
		TenantID:       lead.TenantID,
		CurrentStageID: lead.CurrentStageID,
		Source:         lead.Source,
		SubmittedAt:    lead.SubmittedAt,
		UpdatedAt:      lead.UpdatedAt,
		Fields:         fields,
	}
}
