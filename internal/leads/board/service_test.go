package board

import (
	"context"
	"testing"

	"crm_portal_backend/internal/leads/repository"
	"crm_portal_backend/internal/leads/transport"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadSource struct {
	leads      []repository.Lead
	lastParams repository.BoardLeadsParams
	config     *repository.CardConfig
	upserted   *repository.CardConfig
}

func (f *fakeLeadSource) ListBoardLeads(_ context.Context, params repository.BoardLeadsParams) ([]repository.Lead, int, error) {
	f.lastParams = params
	return f.leads, len(f.leads), nil
}

func (f *fakeLeadSource) ListLeads(_ context.Context, _ repository.ListLeadsParams) ([]repository.Lead, int, error) {
	return f.leads, len(f.leads), nil
}

func (f *fakeLeadSource) GetCardConfig(_ context.Context, _ uuid.UUID) (repository.CardConfig, error) {
	if f.config == nil {
		return repository.CardConfig{}, apperr.NotFound("card config not found")
	}
	return *f.config, nil
}

func (f *fakeLeadSource) UpsertCardConfig(_ context.Context, tenantID uuid.UUID, fields []repository.CardConfigField) (repository.CardConfig, error) {
	cfg := repository.CardConfig{ID: uuid.New(), TenantID: tenantID, Fields: fields}
	f.upserted = &cfg
	return cfg, nil
}

func (f *fakeLeadSource) DeleteCardConfig(_ context.Context, _ uuid.UUID) error {
	if f.config == nil {
		return apperr.NotFound("card config not found")
	}
	f.config = nil
	return nil
}

type fakePipelineReader struct {
	meta  *PipelineMeta
	calls int
}

func (f *fakePipelineReader) GetPipelineMeta(_ context.Context, _ uuid.UUID) (PipelineMeta, error) {
	f.calls++
	if f.meta == nil {
		return PipelineMeta{}, apperr.NotFound("pipeline not found")
	}
	return *f.meta, nil
}

func leadWithFields(labels ...string) repository.Lead {
	lead := repository.Lead{ID: uuid.New(), TenantID: uuid.New(), SubmittedAt: "2026-08-01T10:00:00Z"}
	for i, label := range labels {
		lead.Fields = append(lead.Fields, repository.Field{
			LeadID: lead.ID, Label: label, Value: label + "-value", Position: i,
		})
	}
	return lead
}

func standardScope(tenantID uuid.UUID) scope.Scope {
	userID := uuid.New()
	return scope.Scope{TenantID: &tenantID, TenantType: scope.TenantTypeStandard, UserID: &userID}
}

func newTestService(leads *fakeLeadSource, pipelines *fakePipelineReader) *Service {
	return New(leads, pipelines, logger.New("development"))
}

func TestGetBoardSynthesizesDefaultConfig(t *testing.T) {
	leads := &fakeLeadSource{leads: []repository.Lead{
		leadWithFields("Name", "Email", "Phone", "Company"),
	}}
	pipelines := &fakePipelineReader{meta: &PipelineMeta{ID: uuid.New(), Name: "Sales"}}
	svc := newTestService(leads, pipelines)
	tenantID := uuid.New()

	resp, err := svc.GetBoard(context.Background(), standardScope(tenantID), transport.BoardRequest{
		PipelineID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(resp.Leads) != 1 {
		t.Fatalf("expected 1 card, got %d", len(resp.Leads))
	}

	info := resp.Leads[0].Info
	if len(info) != 3 {
		t.Fatalf("expected 3 projected fields, got %d: %v", len(info), info)
	}
	for _, label := range []string{"Name", "Email", "Phone"} {
		if _, ok := info[label]; !ok {
			t.Fatalf("expected field %q in card info, got %v", label, info)
		}
	}
	if _, ok := info["Company"]; ok {
		t.Fatalf("expected fourth field withheld, got %v", info)
	}
}

func TestGetBoardSynthesisFirstSeenAcrossLeads(t *testing.T) {
	leads := &fakeLeadSource{leads: []repository.Lead{
		leadWithFields("Name"),
		leadWithFields("Email", "Name"),
		leadWithFields("Phone", "City"),
	}}
	pipelines := &fakePipelineReader{}
	svc := newTestService(leads, pipelines)

	resp, err := svc.GetBoard(context.Background(), standardScope(uuid.New()), transport.BoardRequest{
		PipelineID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	third := resp.Leads[2].Info
	if _, ok := third["Phone"]; !ok {
		t.Fatalf("expected Phone as third distinct label, got %v", third)
	}
	if _, ok := third["City"]; ok {
		t.Fatalf("expected City beyond the default three, got %v", third)
	}
}

func TestGetBoardUsesExplicitConfig(t *testing.T) {
	tenantID := uuid.New()
	leads := &fakeLeadSource{
		leads: []repository.Lead{leadWithFields("Name", "Email", "Secret")},
		config: &repository.CardConfig{
			ID:       uuid.New(),
			TenantID: tenantID,
			Fields: []repository.CardConfigField{
				{Label: "Email", Position: 0, Visible: true},
				{Label: "Secret", Position: 1, Visible: false},
			},
		},
	}
	svc := newTestService(leads, &fakePipelineReader{})

	resp, err := svc.GetBoard(context.Background(), standardScope(tenantID), transport.BoardRequest{
		PipelineID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	info := resp.Leads[0].Info
	if len(info) != 1 {
		t.Fatalf("expected only visible configured field, got %v", info)
	}
	if _, ok := info["Email"]; !ok {
		t.Fatalf("expected Email projected, got %v", info)
	}
}

func TestGetBoardMissingPipelineReturnsNilMeta(t *testing.T) {
	leads := &fakeLeadSource{leads: []repository.Lead{leadWithFields("Name")}}
	svc := newTestService(leads, &fakePipelineReader{})

	resp, err := svc.GetBoard(context.Background(), standardScope(uuid.New()), transport.BoardRequest{
		PipelineID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected board without pipeline meta, got %v", err)
	}
	if resp.Pipeline != nil {
		t.Fatalf("expected nil pipeline metadata, got %+v", resp.Pipeline)
	}
	if len(resp.Leads) != 1 {
		t.Fatalf("expected lead data preserved, got %d cards", len(resp.Leads))
	}
}

func TestGetBoardPaginationOffset(t *testing.T) {
	leads := &fakeLeadSource{}
	svc := newTestService(leads, &fakePipelineReader{})

	_, err := svc.GetBoard(context.Background(), standardScope(uuid.New()), transport.BoardRequest{
		PipelineID: uuid.New(),
		Page:       3,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if leads.lastParams.Offset != 20 || leads.lastParams.Limit != 10 {
		t.Fatalf("expected offset 20 limit 10, got offset %d limit %d", leads.lastParams.Offset, leads.lastParams.Limit)
	}
}

func TestGetBoardStandardIgnoresRequestedTenant(t *testing.T) {
	leads := &fakeLeadSource{}
	svc := newTestService(leads, &fakePipelineReader{})
	tenantID := uuid.New()
	other := uuid.New()

	_, err := svc.GetBoard(context.Background(), standardScope(tenantID), transport.BoardRequest{
		PipelineID: uuid.New(),
		TenantID:   &other,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if leads.lastParams.TenantID != tenantID {
		t.Fatalf("expected own tenant %s, got %s", tenantID, leads.lastParams.TenantID)
	}
}

func TestUpdateCardConfigPositionsFollowOrder(t *testing.T) {
	leads := &fakeLeadSource{}
	svc := newTestService(leads, &fakePipelineReader{})
	tenantID := uuid.New()

	resp, err := svc.UpdateCardConfig(context.Background(), standardScope(tenantID), nil, transport.UpdateCardConfigRequest{
		Fields: []transport.CardConfigFieldInput{
			{Label: "Email", Visible: true},
			{Label: "Name", Visible: true},
		},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Fields[0].Label != "Email" || resp.Fields[0].Position != 0 {
		t.Fatalf("expected Email at position 0, got %+v", resp.Fields[0])
	}
	if resp.Fields[1].Position != 1 {
		t.Fatalf("expected Name at position 1, got %+v", resp.Fields[1])
	}
}
