// Package scope implements the tenant scope authorization predicate
// evaluated before every operation in the system.
package scope

import (
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/httpkit"

	"github.com/google/uuid"
)

// TenantType distinguishes cross-tenant administrators from regular tenants.
type TenantType string

const (
	// TenantTypeGlobalAdmin may act across all tenants.
	TenantTypeGlobalAdmin TenantType = "GLOBAL_ADMIN"
	// TenantTypeStandard may only read and write its own tenant's data.
	TenantTypeStandard TenantType = "STANDARD"
)

// Scope is the caller's resolved tenant scope, produced by the
// authentication layer and carried through every service call.
type Scope struct {
	TenantID   *uuid.UUID
	TenantType TenantType
	UserID     *uuid.UUID
}

// FromIdentity builds a Scope from the authenticated request identity.
func FromIdentity(id httpkit.Identity) Scope {
	userID := id.UserID()
	s := Scope{
		TenantID:   id.TenantID(),
		TenantType: TenantType(id.TenantType()),
	}
	if userID != uuid.Nil {
		s.UserID = &userID
	}
	return s
}

// IsGlobalAdmin reports whether the scope belongs to a cross-tenant administrator.
func (s Scope) IsGlobalAdmin() bool {
	return s.TenantType == TenantTypeGlobalAdmin
}

// Require fails when the tenant id or tenant type is absent.
func Require(s Scope) error {
	if s.TenantID == nil || s.TenantType == "" {
		return apperr.UndefinedScope("tenant scope is not defined")
	}
	if s.TenantType != TenantTypeGlobalAdmin && s.TenantType != TenantTypeStandard {
		return apperr.UndefinedScope("unknown tenant type")
	}
	return nil
}

// RequireFull is Require plus a caller user id, needed wherever actions
// are attributed to a user (e.g. stage-move history).
func RequireFull(s Scope) error {
	if err := Require(s); err != nil {
		return err
	}
	if s.UserID == nil {
		return apperr.UndefinedScope("caller user is not defined")
	}
	return nil
}

// CheckTenantAccess fails when a STANDARD scope targets a tenant other
// than its own. GLOBAL_ADMIN always passes.
func CheckTenantAccess(s Scope, targetTenantID uuid.UUID) error {
	if s.IsGlobalAdmin() {
		return nil
	}
	if s.TenantID == nil {
		return apperr.UndefinedScope("tenant scope is not defined")
	}
	if *s.TenantID != targetTenantID {
		return apperr.PermissionDenied("access to this tenant is not allowed")
	}
	return nil
}

// EffectiveTenantFilter resolves the tenant filter for list and read queries.
// STANDARD scopes always get their own tenant id regardless of what was
// requested, preventing cross-tenant enumeration. GLOBAL_ADMIN gets the
// requested filter as-is; nil means all tenants.
func EffectiveTenantFilter(s Scope, requestedTenantID *uuid.UUID) *uuid.UUID {
	if s.IsGlobalAdmin() {
		return requestedTenantID
	}
	return s.TenantID
}
