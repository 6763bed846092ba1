// Package tenants provides the tenant administration bounded context:
// global-admin CRUD over tenants plus the request-path gate that keeps
// deactivated tenants out.
package tenants

import (
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/internal/tenants/handler"
	"crm_portal_backend/internal/tenants/repository"
	"crm_portal_backend/internal/tenants/service"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tenants bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	allowlist *service.Allowlist
	repo      *repository.Repo
}

// NewModule creates and initializes the tenants module.
func NewModule(pool *pgxpool.Pool, cfg config.TenantGateConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	allowlist := service.NewAllowlist(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler:   h,
		service:   svc,
		allowlist: allowlist,
		repo:      repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tenants"
}

// Allowlist returns the active-tenant cache backing the gate middleware.
func (m *Module) Allowlist() *service.Allowlist {
	return m.allowlist
}

// RegisterRoutes mounts tenant administration routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/tenants")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id", m.handler.Rename)
	group.DELETE("/:id", m.handler.Deactivate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
