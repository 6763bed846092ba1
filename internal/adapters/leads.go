package adapters

import (
	"context"

	activitysvc "crm_portal_backend/internal/activities/service"
	leadrepo "crm_portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// LeadTenantAdapter implements the activities service's
// LeadTenantResolver port on top of the leads repository.
type LeadTenantAdapter struct {
	leads leadrepo.LeadReader
}

// NewLeadTenantAdapter creates a lead tenant resolver backed by the
// leads repository.
func NewLeadTenantAdapter(leads leadrepo.LeadReader) *LeadTenantAdapter {
	return &LeadTenantAdapter{leads: leads}
}

// ResolveLeadTenant looks up a lead's owning tenant.
func (a *LeadTenantAdapter) ResolveLeadTenant(ctx context.Context, leadID uuid.UUID) (uuid.UUID, error) {
	lead, err := a.leads.GetLead(ctx, leadID)
	if err != nil {
		return uuid.Nil, err
	}
	return lead.TenantID, nil
}

var _ activitysvc.LeadTenantResolver = (*LeadTenantAdapter)(nil)
