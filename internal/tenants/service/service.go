package service

import (
	"context"

	"crm_portal_backend/internal/scope"
	"crm_portal_backend/internal/tenants/repository"
	"crm_portal_backend/internal/tenants/transport"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides tenant administration. Every operation is reserved
// for global admin scopes.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new tenants service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create registers a new active tenant.
func (s *Service) Create(ctx context.Context, sc scope.Scope, req transport.CreateTenantRequest) (transport.TenantResponse, error) {
	if err := requireGlobalAdmin(sc); err != nil {
		return transport.TenantResponse{}, err
	}

	tenantType := req.Type
	if tenantType == "" {
		tenantType = repository.TypeStandard
	}

	tenant, err := s.repo.CreateTenant(ctx, repository.CreateTenantParams{
		Name: req.Name,
		Type: tenantType,
	})
	if err != nil {
		return transport.TenantResponse{}, err
	}

	s.log.Info("tenant created", "id", tenant.ID, "name", tenant.Name)
	return toTenantResponse(tenant), nil
}

// Get retrieves one tenant.
func (s *Service) Get(ctx context.Context, sc scope.Scope, id uuid.UUID) (transport.TenantResponse, error) {
	if err := requireGlobalAdmin(sc); err != nil {
		return transport.TenantResponse{}, err
	}

	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return transport.TenantResponse{}, err
	}

	return toTenantResponse(tenant), nil
}

// List retrieves all tenants, newest first.
func (s *Service) List(ctx context.Context, sc scope.Scope) (transport.TenantListResponse, error) {
	if err := requireGlobalAdmin(sc); err != nil {
		return transport.TenantListResponse{}, err
	}

	tenants, err := s.repo.ListTenants(ctx)
	if err != nil {
		return transport.TenantListResponse{}, err
	}

	items := make([]transport.TenantResponse, len(tenants))
	for i, tenant := range tenants {
		items[i] = toTenantResponse(tenant)
	}

	return transport.TenantListResponse{Items: items}, nil
}

// Rename updates a tenant's display name.
func (s *Service) Rename(ctx context.Context, sc scope.Scope, id uuid.UUID, req transport.RenameTenantRequest) (transport.TenantResponse, error) {
	if err := requireGlobalAdmin(sc); err != nil {
		return transport.TenantResponse{}, err
	}

	tenant, err := s.repo.RenameTenant(ctx, id, req.Name)
	if err != nil {
		return transport.TenantResponse{}, err
	}

	return toTenantResponse(tenant), nil
}

// Deactivate soft-deletes a tenant. Its requests are rejected once the
// allow-list cache expires.
func (s *Service) Deactivate(ctx context.Context, sc scope.Scope, id uuid.UUID) error {
	if err := requireGlobalAdmin(sc); err != nil {
		return err
	}

	if err := s.repo.DeactivateTenant(ctx, id); err != nil {
		return err
	}

	s.log.Info("tenant deactivated", "id", id)
	return nil
}

func requireGlobalAdmin(sc scope.Scope) error {
	if err := scope.Require(sc); err != nil {
		return err
	}
	if !sc.IsGlobalAdmin() {
		return apperr.PermissionDenied("tenant administration requires a global admin scope")
	}
	return nil
}

func toTenantResponse(tenant repository.Tenant) transport.TenantResponse {
	return transport.TenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Type:      tenant.Type,
		IsActive:  tenant.IsActive,
		CreatedAt: tenant.CreatedAt,
		UpdatedAt: tenant.UpdatedAt,
	}
}
