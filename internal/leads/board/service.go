// Package board assembles the paginated kanban view of a pipeline's
// leads and manages the per-tenant card projection config.
package board

import (
	"context"

	"crm_portal_backend/internal/leads/repository"
	"crm_portal_backend/internal/leads/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// defaultCardFieldCount is how many distinct field labels the
// synthesized card config exposes when a tenant has none.
const defaultCardFieldCount = 3

// StageMeta is one stage in the board's pipeline metadata.
type StageMeta struct {
	ID    uuid.UUID
	Name  string
	Order int
}

// PipelineMeta describes the board's pipeline with its ordered stages.
type PipelineMeta struct {
	ID     uuid.UUID
	Name   string
	Stages []StageMeta
}

// PipelineMetaReader resolves pipeline metadata for the board.
// Backed by the pipelines module through an adapter.
type PipelineMetaReader interface {
	GetPipelineMeta(ctx context.Context, pipelineID uuid.UUID) (PipelineMeta, error)
}

// LeadSource is the slice of the leads repository the board needs.
type LeadSource interface {
	ListBoardLeads(ctx context.Context, params repository.BoardLeadsParams) ([]repository.Lead, int, error)
	ListLeads(ctx context.Context, params repository.ListLeadsParams) ([]repository.Lead, int, error)
	repository.CardConfigRepository
}

// Service assembles kanban board views.
type Service struct {
	leads     LeadSource
	pipelines PipelineMetaReader
	log       *logger.Logger
}

// New creates a new board service.
func New(leads LeadSource, pipelines PipelineMetaReader, log *logger.Logger) *Service {
	return &Service{leads: leads, pipelines: pipelines, log: log}
}

// GetBoard builds the paginated board view for one pipeline.
// Leads are ordered by submission time descending. When the requested
// pipeline does not exist the board is still returned with nil pipeline
// metadata; the lead data is useful without pipeline context.
func (s *Service) GetBoard(ctx context.Context, sc scope.Scope, req transport.BoardRequest) (transport.BoardResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.BoardResponse{}, err
	}

	tenantID := resolveBoardTenant(sc, req.TenantID)
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.BoardResponse{}, err
	}

	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	leads, total, err := s.leads.ListBoardLeads(ctx, repository.BoardLeadsParams{
		TenantID:          tenantID,
		PipelineID:        req.PipelineID,
		StageID:           req.StageID,
		IncludeUnassigned: req.IncludeUnassigned,
		Offset:            (page - 1) * pageSize,
		Limit:             pageSize,
	})
	if err != nil {
		return transport.BoardResponse{}, err
	}

	visible, err := s.resolveVisibleFields(ctx, tenantID, leads)
	if err != nil {
		return transport.BoardResponse{}, err
	}

	cards := make([]transport.BoardCard, len(leads))
	for i, lead := range leads {
		cards[i] = transport.BoardCard{
			ID:          lead.ID,
			StageID:     lead.CurrentStageID,
			SubmittedAt: lead.SubmittedAt,
			Info:        projectFields(lead.Fields, visible),
		}
	}

	meta, err := s.resolvePipelineMeta(ctx, req.PipelineID)
	if err != nil {
		return transport.BoardResponse{}, err
	}

	return transport.BoardResponse{
		Leads:    cards,
		Pipeline: meta,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// resolveVisibleFields returns the ordered set of field labels shown on
// cards. Without an explicit config it synthesizes one from the first
// three distinct labels observed across the fetched leads, in
// first-seen order.
func (s *Service) resolveVisibleFields(ctx context.Context, tenantID uuid.UUID, leads []repository.Lead) ([]string, error) {
	cfg, err := s.leads.GetCardConfig(ctx, tenantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return synthesizeVisibleFields(leads), nil
		}
		return nil, err
	}

	var visible []string
	for _, f := range cfg.Fields {
		if f.Visible {
			visible = append(visible, f.Label)
		}
	}
	return visible, nil
}

func synthesizeVisibleFields(leads []repository.Lead) []string {
	seen := make(map[string]bool)
	var visible []string
	for _, lead := range leads {
		for _, f := range lead.Fields {
			if seen[f.Label] {
				continue
			}
			seen[f.Label] = true
			visible = append(visible, f.Label)
			if len(visible) == defaultCardFieldCount {
				return visible
			}
		}
	}
	return visible
}

// projectFields keeps only the configured-and-visible fields; all other
// captured data is withheld from the board view.
func projectFields(fields []repository.Field, visible []string) map[string]string {
	byLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, exists := byLabel[f.Label]; !exists {
			byLabel[f.Label] = f.Value
		}
	}

	info := make(map[string]string, len(visible))
	for _, label := range visible {
		if value, ok := byLabel[label]; ok {
			info[label] = value
		}
	}
	return info
}

func (s *Service) resolvePipelineMeta(ctx context.Context, pipelineID uuid.UUID) (*transport.BoardPipelineMeta, error) {
	meta, err := s.pipelines.GetPipelineMeta(ctx, pipelineID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}

	stages := make([]transport.BoardStage, len(meta.Stages))
	for i, st := range meta.Stages {
		stages[i] = transport.BoardStage{ID: st.ID, Name: st.Name, Order: st.Order}
	}
	return &transport.BoardPipelineMeta{ID: meta.ID, Name: meta.Name, Stages: stages}, nil
}

// GetCardConfig retrieves the tenant's card config.
func (s *Service) GetCardConfig(ctx context.Context, sc scope.Scope, requestedTenantID *uuid.UUID) (transport.CardConfigResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.CardConfigResponse{}, err
	}

	tenantID := resolveBoardTenant(sc, requestedTenantID)
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.CardConfigResponse{}, err
	}

	cfg, err := s.leads.GetCardConfig(ctx, tenantID)
	if err != nil {
		return transport.CardConfigResponse{}, err
	}

	return toCardConfigResponse(cfg), nil
}

// UpdateCardConfig replaces the tenant's card config. Field positions
// follow the submitted order.
func (s *Service) UpdateCardConfig(ctx context.Context, sc scope.Scope, requestedTenantID *uuid.UUID, req transport.UpdateCardConfigRequest) (transport.CardConfigResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.CardConfigResponse{}, err
	}

	tenantID := resolveBoardTenant(sc, requestedTenantID)
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.CardConfigResponse{}, err
	}

	fields := make([]repository.CardConfigField, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = repository.CardConfigField{Label: f.Label, Position: i, Visible: f.Visible}
	}

	cfg, err := s.leads.UpsertCardConfig(ctx, tenantID, fields)
	if err != nil {
		return transport.CardConfigResponse{}, err
	}

	s.log.Info("card config updated", "tenantId", tenantID, "fields", len(fields))
	return toCardConfigResponse(cfg), nil
}

// DeleteCardConfig removes the tenant's card config, falling back to
// synthesized defaults on the next board call.
func (s *Service) DeleteCardConfig(ctx context.Context, sc scope.Scope, requestedTenantID *uuid.UUID) error {
	if err := scope.Require(sc); err != nil {
		return err
	}

	tenantID := resolveBoardTenant(sc, requestedTenantID)
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return err
	}

	return s.leads.DeleteCardConfig(ctx, tenantID)
}

func resolveBoardTenant(sc scope.Scope, requested *uuid.UUID) uuid.UUID {
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

func toCardConfigResponse(cfg repository.CardConfig) transport.CardConfigResponse {
	fields := make([]transport.CardConfigFieldResponse, len(cfg.Fields))
	for i, f := range cfg.Fields {
		fields[i] = transport.CardConfigFieldResponse{Label: f.Label, Position: f.Position, Visible: f.Visible}
	}
	return transport.CardConfigResponse{TenantID: cfg.TenantID, Fields: fields}
}
