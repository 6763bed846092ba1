package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"crm_portal_backend/internal/pipelines/repository"
	"crm_portal_backend/internal/pipelines/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// reorderConcurrency bounds how many stage updates run in parallel
// within a single reorder batch.
const reorderConcurrency = 8

// Service provides business logic for pipelines and their stages.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new pipelines service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreatePipeline creates a pipeline owned by the resolved tenant.
// Duplicate names are allowed.
func (s *Service) CreatePipeline(ctx context.Context, sc scope.Scope, req transport.CreatePipelineRequest) (transport.PipelineResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.PipelineResponse{}, err
	}

	tenantID := resolveTargetTenant(sc, req.TenantID)
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.PipelineResponse{}, err
	}

	p, err := s.repo.CreatePipeline(ctx, repository.CreatePipelineParams{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return transport.PipelineResponse{}, err
	}

	s.log.Info("pipeline created", "id", p.ID, "tenantId", p.TenantID, "name", p.Name)
	return toPipelineResponse(p, nil), nil
}

// ListPipelines lists pipelines visible to the caller.
// Standard callers always see their own tenant regardless of the
// requested filter; global admins may request any tenant or all.
func (s *Service) ListPipelines(ctx context.Context, sc scope.Scope, requestedTenantID *uuid.UUID) (transport.PipelineListResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.PipelineListResponse{}, err
	}

	filter := scope.EffectiveTenantFilter(sc, requestedTenantID)
	items, err := s.repo.ListPipelines(ctx, filter)
	if err != nil {
		return transport.PipelineListResponse{}, err
	}

	responses := make([]transport.PipelineResponse, len(items))
	for i, item := range items {
		responses[i] = toPipelineResponse(item, nil)
	}

	return transport.PipelineListResponse{Items: responses, Total: len(responses)}, nil
}

// GetPipeline retrieves a pipeline with its ordered stages.
func (s *Service) GetPipeline(ctx context.Context, sc scope.Scope, id uuid.UUID) (transport.PipelineResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.PipelineResponse{}, err
	}

	p, err := s.repo.GetPipeline(ctx, id)
	if err != nil {
		return transport.PipelineResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, p.TenantID); err != nil {
		return transport.PipelineResponse{}, err
	}

	stages, err := s.repo.ListStages(ctx, p.ID)
	if err != nil {
		return transport.PipelineResponse{}, err
	}

	return toPipelineResponse(p, stages), nil
}

// DeactivatePipeline soft-deletes a pipeline.
func (s *Service) DeactivatePipeline(ctx context.Context, sc scope.Scope, id uuid.UUID) error {
	if err := scope.Require(sc); err != nil {
		return err
	}

	p, err := s.repo.GetPipeline(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.CheckTenantAccess(sc, p.TenantID); err != nil {
		return err
	}

	if err := s.repo.DeactivatePipeline(ctx, id); err != nil {
		return err
	}

	s.log.Info("pipeline deactivated", "id", id, "tenantId", p.TenantID)
	return nil
}

// CreateStage adds a stage to a pipeline at the given order position.
// Multiple stages may share an order value.
func (s *Service) CreateStage(ctx context.Context, sc scope.Scope, pipelineID uuid.UUID, req transport.CreateStageRequest) (transport.StageResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.StageResponse{}, err
	}

	p, err := s.repo.GetPipeline(ctx, pipelineID)
	if err != nil {
		return transport.StageResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, p.TenantID); err != nil {
		return transport.StageResponse{}, err
	}

	st, err := s.repo.CreateStage(ctx, repository.CreateStageParams{
		PipelineID: pipelineID,
		Name:       req.Name,
		SortOrder:  req.Order,
	})
	if err != nil {
		return transport.StageResponse{}, err
	}

	s.log.Info("pipeline stage created", "id", st.ID, "pipelineId", pipelineID, "order", st.SortOrder)
	return toStageResponse(st), nil
}

// ReorderStages applies a batch of partial stage updates.
// The batch is authorized once against the pipeline's tenant, then each
// item is applied concurrently as an independent unit of work. A failed
// item is reported in the response but never rolls back its siblings.
func (s *Service) ReorderStages(ctx context.Context, sc scope.Scope, pipelineID uuid.UUID, req transport.ReorderStagesRequest) (transport.ReorderStagesResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.ReorderStagesResponse{}, err
	}

	p, err := s.repo.GetPipeline(ctx, pipelineID)
	if err != nil {
		return transport.ReorderStagesResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, p.TenantID); err != nil {
		return transport.ReorderStagesResponse{}, err
	}

	results := make([]transport.StageUpdateResult, len(req.Updates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reorderConcurrency)

	for i, item := range req.Updates {
		i, item := i, item
		g.Go(func() error {
			results[i] = s.applyStageUpdate(gctx, pipelineID, item)
			return nil
		})
	}
	// Workers never return errors; failures are collected per item.
	_ = g.Wait()

	failed := 0
	for _, result := range results {
		if result.Status == "failed" {
			failed++
		}
	}

	s.log.Info("pipeline stages reordered",
		"pipelineId", pipelineID, "items", len(results), "failed", failed)

	return transport.ReorderStagesResponse{Results: results, Failed: failed}, nil
}

func (s *Service) applyStageUpdate(ctx context.Context, pipelineID uuid.UUID, item transport.StageUpdateItem) transport.StageUpdateResult {
	if item.Name == nil && item.Order == nil {
		return transport.StageUpdateResult{
			StageID: item.ID,
			Status:  "failed",
			Error:   "nothing to update",
		}
	}

	st, err := s.repo.GetStage(ctx, item.ID)
	if err != nil {
		return failedUpdate(item.ID, err)
	}
	if st.PipelineID != pipelineID {
		return transport.StageUpdateResult{
			StageID: item.ID,
			Status:  "failed",
			Error:   "stage does not belong to this pipeline",
		}
	}

	if _, err := s.repo.UpdateStage(ctx, repository.UpdateStageParams{
		ID:        item.ID,
		Name:      item.Name,
		SortOrder: item.Order,
	}); err != nil {
		return failedUpdate(item.ID, err)
	}

	return transport.StageUpdateResult{StageID: item.ID, Status: "updated"}
}

func failedUpdate(stageID uuid.UUID, err error) transport.StageUpdateResult {
	message := "internal error"
	if domainErr, ok := err.(*apperr.Error); ok {
		message = domainErr.Message
	}
	return transport.StageUpdateResult{StageID: stageID, Status: "failed", Error: message}
}

// resolveTargetTenant picks the tenant a mutation applies to. Standard
// callers always act on their own tenant; global admins may target any.
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

func toPipelineResponse(p repository.Pipeline, stages []repository.Stage) transport.PipelineResponse {
	resp := transport.PipelineResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if stages != nil {
		resp.Stages = make([]transport.StageResponse, len(stages))
		for i, st := range stages {
			resp.Stages[i] = toStageResponse(st)
		}
	}
	return resp
}

func toStageResponse(st repository.Stage) transport.StageResponse {
	return transport.StageResponse{
		ID:         st.ID,
		PipelineID: st.PipelineID,
		Name:       st.Name,
		Order:      st.SortOrder,
		CreatedAt:  st.CreatedAt,
		UpdatedAt:  st.UpdatedAt,
	}
}
