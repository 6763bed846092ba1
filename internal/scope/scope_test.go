package scope

import (
	"testing"

	"crm_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func standardScope(tenantID, userID uuid.UUID) Scope {
	return Scope{TenantID: &tenantID, TenantType: TenantTypeStandard, UserID: &userID}
}

func adminScope(tenantID, userID uuid.UUID) Scope {
	return Scope{TenantID: &tenantID, TenantType: TenantTypeGlobalAdmin, UserID: &userID}
}

func TestRequireMissingTenant(t *testing.T) {
	err := Require(Scope{TenantType: TenantTypeStandard})
	if !apperr.Is(err, apperr.KindUndefinedScope) {
		t.Fatalf("expected undefined scope error, got %v", err)
	}
}

func TestRequireMissingType(t *testing.T) {
	tenantID := uuid.New()
	err := Require(Scope{TenantID: &tenantID})
	if !apperr.Is(err, apperr.KindUndefinedScope) {
		t.Fatalf("expected undefined scope error, got %v", err)
	}
}

func TestRequireValid(t *testing.T) {
	if err := Require(standardScope(uuid.New(), uuid.New())); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRequireFullMissingUser(t *testing.T) {
	tenantID := uuid.New()
	err := RequireFull(Scope{TenantID: &tenantID, TenantType: TenantTypeStandard})
	if !apperr.Is(err, apperr.KindUndefinedScope) {
		t.Fatalf("expected undefined scope error, got %v", err)
	}
}

func TestRequireFullValid(t *testing.T) {
	if err := RequireFull(adminScope(uuid.New(), uuid.New())); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestCheckTenantAccessStandardOwnTenant(t *testing.T) {
	tenantID := uuid.New()
	s := standardScope(tenantID, uuid.New())
	if err := CheckTenantAccess(s, tenantID); err != nil {
		t.Fatalf("expected access to own tenant, got %v", err)
	}
}

func TestCheckTenantAccessStandardCrossTenant(t *testing.T) {
	s := standardScope(uuid.New(), uuid.New())
	err := CheckTenantAccess(s, uuid.New())
	if !apperr.Is(err, apperr.KindPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestCheckTenantAccessGlobalAdminCrossTenant(t *testing.T) {
	s := adminScope(uuid.New(), uuid.New())
	if err := CheckTenantAccess(s, uuid.New()); err != nil {
		t.Fatalf("expected global admin to pass, got %v", err)
	}
}

func TestEffectiveTenantFilterStandardIgnoresRequested(t *testing.T) {
	tenantID := uuid.New()
	requested := uuid.New()
	s := standardScope(tenantID, uuid.New())

	filter := EffectiveTenantFilter(s, &requested)
	if filter == nil || *filter != tenantID {
		t.Fatalf("expected own tenant filter %s, got %v", tenantID, filter)
	}
}

func TestEffectiveTenantFilterAdminPassesRequested(t *testing.T) {
	requested := uuid.New()
	s := adminScope(uuid.New(), uuid.New())

	filter := EffectiveTenantFilter(s, &requested)
	if filter == nil || *filter != requested {
		t.Fatalf("expected requested filter %s, got %v", requested, filter)
	}
}

func TestEffectiveTenantFilterAdminAllTenants(t *testing.T) {
	s := adminScope(uuid.New(), uuid.New())
	if filter := EffectiveTenantFilter(s, nil); filter != nil {
		t.Fatalf("expected nil filter for all tenants, got %v", filter)
	}
}
