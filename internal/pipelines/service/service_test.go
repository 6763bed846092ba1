package service

import (
	"context"
	"sync"
	"testing"

	"crm_portal_backend/internal/pipelines/repository"
	"crm_portal_backend/internal/pipelines/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu        sync.Mutex
	pipelines map[uuid.UUID]repository.Pipeline
	stages    map[uuid.UUID]repository.Stage
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pipelines: make(map[uuid.UUID]repository.Pipeline),
		stages:    make(map[uuid.UUID]repository.Stage),
	}
}

func (f *fakeRepo) addPipeline(tenantID uuid.UUID) repository.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := repository.Pipeline{ID: uuid.New(), TenantID: tenantID, Name: "Sales", IsActive: true}
	f.pipelines[p.ID] = p
	return p
}

func (f *fakeRepo) addStage(pipelineID uuid.UUID, name string, order int) repository.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := repository.Stage{ID: uuid.New(), PipelineID: pipelineID, Name: name, SortOrder: order}
	f.stages[st.ID] = st
	return st
}

func (f *fakeRepo) CreatePipeline(_ context.Context, params repository.CreatePipelineParams) (repository.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := repository.Pipeline{
		ID:          uuid.New(),
		TenantID:    params.TenantID,
		Name:        params.Name,
		Description: params.Description,
		IsActive:    true,
	}
	f.pipelines[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetPipeline(_ context.Context, id uuid.UUID) (repository.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pipelines[id]
	if !ok {
		return repository.Pipeline{}, apperr.NotFound("pipeline not found")
	}
	return p, nil
}

func (f *fakeRepo) ListPipelines(_ context.Context, tenantID *uuid.UUID) ([]repository.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var results []repository.Pipeline
	for _, p := range f.pipelines {
		if tenantID == nil || p.TenantID == *tenantID {
			results = append(results, p)
		}
	}
	return results, nil
}

func (f *fakeRepo) DeactivatePipeline(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pipelines[id]
	if !ok {
		return apperr.NotFound("pipeline not found")
	}
	p.IsActive = false
	f.pipelines[id] = p
	return nil
}

func (f *fakeRepo) CreateStage(_ context.Context, params repository.CreateStageParams) (repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := repository.Stage{
		ID:         uuid.New(),
		PipelineID: params.PipelineID,
		Name:       params.Name,
		SortOrder:  params.SortOrder,
	}
	f.stages[st.ID] = st
	return st, nil
}

func (f *fakeRepo) GetStage(_ context.Context, id uuid.UUID) (repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[id]
	if !ok {
		return repository.Stage{}, apperr.NotFound("pipeline stage not found")
	}
	return st, nil
}

func (f *fakeRepo) ListStages(_ context.Context, pipelineID uuid.UUID) ([]repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var results []repository.Stage
	for _, st := range f.stages {
		if st.PipelineID == pipelineID {
			results = append(results, st)
		}
	}
	return results, nil
}

func (f *fakeRepo) UpdateStage(_ context.Context, params repository.UpdateStageParams) (repository.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stages[params.ID]
	if !ok {
		return repository.Stage{}, apperr.NotFound("pipeline stage not found")
	}
	if params.Name != nil {
		st.Name = *params.Name
	}
	if params.SortOrder != nil {
		st.SortOrder = *params.SortOrder
	}
	f.stages[params.ID] = st
	return st, nil
}

func newTestService(repo repository.Repository) *Service {
	return New(repo, logger.New("development"))
}

func standardScope(tenantID uuid.UUID) scope.Scope {
	userID := uuid.New()
	return scope.Scope{TenantID: &tenantID, TenantType: scope.TenantTypeStandard, UserID: &userID}
}

func adminScope(tenantID uuid.UUID) scope.Scope {
	userID := uuid.New()
	return scope.Scope{TenantID: &tenantID, TenantType: scope.TenantTypeGlobalAdmin, UserID: &userID}
}

func TestCreatePipelineOwnTenant(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	tenantID := uuid.New()

	resp, err := svc.CreatePipeline(context.Background(), standardScope(tenantID), transport.CreatePipelineRequest{Name: "Sales"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.TenantID != tenantID {
		t.Fatalf("expected pipeline in tenant %s, got %s", tenantID, resp.TenantID)
	}
}

func TestCreatePipelineStandardIgnoresRequestedTenant(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	tenantID := uuid.New()
	other := uuid.New()

	resp, err := svc.CreatePipeline(context.Background(), standardScope(tenantID), transport.CreatePipelineRequest{
		Name:     "Sales",
		TenantID: &other,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.TenantID != tenantID {
		t.Fatalf("expected own tenant %s, got %s", tenantID, resp.TenantID)
	}
}

func TestCreatePipelineAdminTargetsOtherTenant(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	other := uuid.New()

	resp, err := svc.CreatePipeline(context.Background(), adminScope(uuid.New()), transport.CreatePipelineRequest{
		Name:     "Sales",
		TenantID: &other,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.TenantID != other {
		t.Fatalf("expected target tenant %s, got %s", other, resp.TenantID)
	}
}

func TestCreatePipelineUndefinedScope(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.CreatePipeline(context.Background(), scope.Scope{}, transport.CreatePipelineRequest{Name: "Sales"})
	if !apperr.Is(err, apperr.KindUndefinedScope) {
		t.Fatalf("expected undefined scope error, got %v", err)
	}
}

func TestGetPipelineCrossTenantDenied(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	p := repo.addPipeline(uuid.New())

	_, err := svc.GetPipeline(context.Background(), standardScope(uuid.New()), p.ID)
	if !apperr.Is(err, apperr.KindPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestCreateStageUnknownPipeline(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.CreateStage(context.Background(), standardScope(uuid.New()), uuid.New(), transport.CreateStageRequest{Name: "New"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReorderStagesAppliesAllItems(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	tenantID := uuid.New()
	p := repo.addPipeline(tenantID)
	s1 := repo.addStage(p.ID, "New", 0)
	s2 := repo.addStage(p.ID, "Contacted", 1)

	order1, order2 := 1, 0
	resp, err := svc.ReorderStages(context.Background(), standardScope(tenantID), p.ID, transport.ReorderStagesRequest{
		Updates: []transport.StageUpdateItem{
			{ID: s1.ID, Order: &order1},
			{ID: s2.ID, Order: &order2},
		},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Failed != 0 {
		t.Fatalf("expected no failed items, got %d", resp.Failed)
	}

	updated1, _ := repo.GetStage(context.Background(), s1.ID)
	updated2, _ := repo.GetStage(context.Background(), s2.ID)
	if updated1.SortOrder != 1 || updated2.SortOrder != 0 {
		t.Fatalf("expected orders swapped, got %d and %d", updated1.SortOrder, updated2.SortOrder)
	}
}

func TestReorderStagesPartialFailureDoesNotRollBack(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	tenantID := uuid.New()
	p := repo.addPipeline(tenantID)
	s1 := repo.addStage(p.ID, "New", 0)
	s2 := repo.addStage(p.ID, "Contacted", 1)

	order1, order2, order3 := 2, 3, 4
	resp, err := svc.ReorderStages(context.Background(), standardScope(tenantID), p.ID, transport.ReorderStagesRequest{
		Updates: []transport.StageUpdateItem{
			{ID: s1.ID, Order: &order1},
			{ID: uuid.New(), Order: &order3}, // nonexistent stage
			{ID: s2.ID, Order: &order2},
		},
	})
	if err != nil {
		t.Fatalf("expected batch to succeed with partial failure, got %v", err)
	}
	if resp.Failed != 1 {
		t.Fatalf("expected exactly 1 failed item, got %d", resp.Failed)
	}

	updated1, _ := repo.GetStage(context.Background(), s1.ID)
	updated2, _ := repo.GetStage(context.Background(), s2.ID)
	if updated1.SortOrder != 2 || updated2.SortOrder != 3 {
		t.Fatalf("expected sibling updates applied, got %d and %d", updated1.SortOrder, updated2.SortOrder)
	}
}

func TestReorderStagesRejectsForeignStage(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	tenantID := uuid.New()
	p := repo.addPipeline(tenantID)
	otherPipeline := repo.addPipeline(tenantID)
	foreign := repo.addStage(otherPipeline.ID, "Other", 0)

	order := 5
	resp, err := svc.ReorderStages(context.Background(), standardScope(tenantID), p.ID, transport.ReorderStagesRequest{
		Updates: []transport.StageUpdateItem{{ID: foreign.ID, Order: &order}},
	})
	if err != nil {
		t.Fatalf("expected batch to succeed, got %v", err)
	}
	if resp.Failed != 1 {
		t.Fatalf("expected foreign stage to fail, got %d failed", resp.Failed)
	}

	unchanged, _ := repo.GetStage(context.Background(), foreign.ID)
	if unchanged.SortOrder != 0 {
		t.Fatalf("expected foreign stage untouched, got order %d", unchanged.SortOrder)
	}
}

func TestReorderStagesCrossTenantDenied(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	p := repo.addPipeline(uuid.New())
	st := repo.addStage(p.ID, "New", 0)

	order := 1
	_, err := svc.ReorderStages(context.Background(), standardScope(uuid.New()), p.ID, transport.ReorderStagesRequest{
		Updates: []transport.StageUpdateItem{{ID: st.ID, Order: &order}},
	})
	if !apperr.Is(err, apperr.KindPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
