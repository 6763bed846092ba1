// Package pipelines provides the pipeline bounded context module.
// It manages tenant-owned kanban pipelines and their ordered stages.
package pipelines

import (
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/internal/pipelines/handler"
	"crm_portal_backend/internal/pipelines/repository"
	"crm_portal_backend/internal/pipelines/service"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipelines bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the pipelines module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipelines"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/pipelines")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.DELETE("/:id", m.handler.Deactivate)
	group.POST("/:id/stages", m.handler.CreateStage)
	group.PATCH("/:id/stages/reorder", m.handler.ReorderStages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
