package transport

import "github.com/google/uuid"

// CreateTenantRequest is the payload for creating a tenant.
// Type defaults to STANDARD when omitted.
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Type string `json:"type,omitempty" validate:"omitempty,oneof=GLOBAL_ADMIN STANDARD"`
}

// RenameTenantRequest updates a tenant's display name.
type RenameTenantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"isActive"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// TenantListResponse wraps all tenants.
type TenantListResponse struct {
	Items []TenantResponse `json:"items"`
}
