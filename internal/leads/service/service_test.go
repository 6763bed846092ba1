package service

import (
	"context"
	"testing"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/leads/repository"
	"crm_portal_backend/internal/leads/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	leads   map[uuid.UUID]repository.Lead
	history map[uuid.UUID][]repository.StageAssignment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:   make(map[uuid.UUID]repository.Lead),
		history: make(map[uuid.UUID][]repository.StageAssignment),
	}
}

func (f *fakeRepo) addLead(tenantID uuid.UUID) repository.Lead {
	lead := repository.Lead{ID: uuid.New(), TenantID: tenantID, SubmittedAt: "2026-08-01T10:00:00Z"}
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{ID: uuid.New(), TenantID: params.TenantID, Source: params.Source}
	for i, field := range params.Fields {
		lead.Fields = append(lead.Fields, repository.Field{
			LeadID: lead.ID, Label: field.Label, Value: field.Value, Position: i,
		})
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetLead(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, params repository.ListLeadsParams) ([]repository.Lead, int, error) {
	var results []repository.Lead
	for _, lead := range f.leads {
		if params.TenantID == nil || lead.TenantID == *params.TenantID {
			results = append(results, lead)
		}
	}
	return results, len(results), nil
}

func (f *fakeRepo) ListBoardLeads(_ context.Context, _ repository.BoardLeadsParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListStageHistory(_ context.Context, leadID uuid.UUID) ([]repository.StageAssignment, error) {
	return f.history[leadID], nil
}

func (f *fakeRepo) ReplaceFields(_ context.Context, leadID uuid.UUID, fields []repository.FieldInput) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	lead.Fields = nil
	for i, field := range fields {
		lead.Fields = append(lead.Fields, repository.Field{
			LeadID: leadID, Label: field.Label, Value: field.Value, Position: i,
		})
	}
	f.leads[leadID] = lead
	return nil
}

func (f *fakeRepo) MoveLead(_ context.Context, params repository.MoveLeadParams) error {
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	movedBy := params.MovedByID
	f.history[params.LeadID] = append([]repository.StageAssignment{{
		ID: uuid.New(), LeadID: params.LeadID, StageID: params.StageID, MovedByID: &movedBy,
	}}, f.history[params.LeadID]...)
	stageID := params.StageID
	lead.CurrentStageID = &stageID
	f.leads[params.LeadID] = lead
	return nil
}

func (f *fakeRepo) DeleteLead(_ context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return apperr.NotFound("lead not found")
	}
	delete(f.leads, id)
	return nil
}

type fakeStageResolver struct {
	refs map[uuid.UUID]StageRef
}

func (f *fakeStageResolver) ResolveStage(_ context.Context, stageID uuid.UUID) (StageRef, error) {
	ref, ok := f.refs[stageID]
	if !ok {
		return StageRef{}, apperr.NotFound("pipeline stage not found")
	}
	return ref, nil
}

func (f *fakeStageResolver) addStage(tenantID uuid.UUID) StageRef {
	ref := StageRef{StageID: uuid.New(), PipelineID: uuid.New(), TenantID: tenantID}
	if f.refs == nil {
		f.refs = make(map[uuid.UUID]StageRef)
	}
	f.refs[ref.StageID] = ref
	return ref
}

type captureConfig struct{}

func (captureConfig) GetDefaultPhoneRegion() string { return "BR" }

func newTestService(repo repository.Repository, stages StageResolver) *Service {
	log := logger.New("development")
	return New(repo, stages, events.NewInMemoryBus(log), captureConfig{}, log)
}

func standardScope(tenantID uuid.UUID) scope.Scope {
	userID := uuid.New()
	return scope.Scope{TenantID: &tenantID, TenantType: scope.TenantTypeStandard, UserID: &userID}
}

func TestCaptureStoresFieldsInOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStageResolver{})
	tenantID := uuid.New()

	resp, err := svc.Capture(context.Background(), standardScope(tenantID), transport.CaptureLeadRequest{
		Fields: []transport.FieldInput{
			{Label: "Name", Value: "Ana"},
			{Label: "Email", Value: "ana@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.TenantID != tenantID {
		t.Fatalf("expected tenant %s, got %s", tenantID, resp.TenantID)
	}
	if len(resp.Fields) != 2 || resp.Fields[0].Label != "Name" || resp.Fields[1].Position != 1 {
		t.Fatalf("expected ordered fields, got %+v", resp.Fields)
	}
}

func TestCaptureNormalizesPhoneFields(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStageResolver{})

	resp, err := svc.Capture(context.Background(), standardScope(uuid.New()), transport.CaptureLeadRequest{
		Fields: []transport.FieldInput{
			{Label: "Phone", Value: "+5511912345678"},
			{Label: "Name", Value: "Ana (11)"},
		},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Fields[0].Value != "+5511912345678" {
		t.Fatalf("expected E.164 phone preserved, got %q", resp.Fields[0].Value)
	}
	if resp.Fields[1].Value != "Ana (11)" {
		t.Fatalf("expected non-phone field untouched, got %q", resp.Fields[1].Value)
	}
}

func TestMoveUpdatesPointerAndHistoryTogether(t *testing.T) {
	repo := newFakeRepo()
	stages := &fakeStageResolver{}
	svc := newTestService(repo, stages)
	tenantID := uuid.New()
	lead := repo.addLead(tenantID)
	ref := stages.addStage(tenantID)

	resp, err := svc.Move(context.Background(), standardScope(tenantID), lead.ID, transport.MoveLeadRequest{StageID: ref.StageID})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.CurrentStageID == nil || *resp.CurrentStageID != ref.StageID {
		t.Fatalf("expected current stage %s, got %v", ref.StageID, resp.CurrentStageID)
	}

	history := repo.history[lead.ID]
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}
	if history[0].StageID != *resp.CurrentStageID {
		t.Fatalf("expected history and pointer to agree, got %s vs %s", history[0].StageID, *resp.CurrentStageID)
	}
}

func TestMoveCrossTenantDenied(t *testing.T) {
	repo := newFakeRepo()
	stages := &fakeStageResolver{}
	svc := newTestService(repo, stages)
	ownerTenant := uuid.New()
	lead := repo.addLead(ownerTenant)
	ref := stages.addStage(ownerTenant)

	_, err := svc.Move(context.Background(), standardScope(uuid.New()), lead.ID, transport.MoveLeadRequest{StageID: ref.StageID})
	if !apperr.Is(err, apperr.KindPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if len(repo.history[lead.ID]) != 0 {
		t.Fatalf("expected no history written, got %d rows", len(repo.history[lead.ID]))
	}
}

func TestMoveRequiresCallerUser(t *testing.T) {
	repo := newFakeRepo()
	stages := &fakeStageResolver{}
	svc := newTestService(repo, stages)
	tenantID := uuid.New()
	lead := repo.addLead(tenantID)
	ref := stages.addStage(tenantID)

	sc := scope.Scope{TenantID: &tenantID, TenantType: scope.TenantTypeStandard}
	_, err := svc.Move(context.Background(), sc, lead.ID, transport.MoveLeadRequest{StageID: ref.StageID})
	if !apperr.Is(err, apperr.KindUndefinedScope) {
		t.Fatalf("expected undefined scope, got %v", err)
	}
}

func TestMoveUnknownStage(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStageResolver{})
	tenantID := uuid.New()
	lead := repo.addLead(tenantID)

	_, err := svc.Move(context.Background(), standardScope(tenantID), lead.ID, transport.MoveLeadRequest{StageID: uuid.New()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMoveTenantMismatchRejected(t *testing.T) {
	repo := newFakeRepo()
	stages := &fakeStageResolver{}
	svc := newTestService(repo, stages)
	adminTenant := uuid.New()
	leadTenant := uuid.New()
	stageTenant := uuid.New()
	lead := repo.addLead(leadTenant)
	ref := stages.addStage(stageTenant)

	userID := uuid.New()
	sc := scope.Scope{TenantID: &adminTenant, TenantType: scope.TenantTypeGlobalAdmin, UserID: &userID}
	_, err := svc.Move(context.Background(), sc, lead.ID, transport.MoveLeadRequest{StageID: ref.StageID})
	if !apperr.Is(err, apperr.KindInvariant) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}
