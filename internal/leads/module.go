// Package leads provides the lead bounded context module. It covers
// lead capture with dynamic fields, stage movement with history, and
// the kanban board projection.
package leads

import (
	"crm_portal_backend/internal/events"
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/internal/leads/board"
	"crm_portal_backend/internal/leads/handler"
	"crm_portal_backend/internal/leads/repository"
	"crm_portal_backend/internal/leads/service"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	board   *board.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the leads module. Stage resolution
// and pipeline metadata come from the pipelines module through the
// provided adapters.
func NewModule(
	pool *pgxpool.Pool,
	stages service.StageResolver,
	pipelines board.PipelineMetaReader,
	bus events.Bus,
	cfg config.LeadCaptureConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, stages, bus, cfg, log)
	boardSvc := board.New(repo, pipelines, log)
	h := handler.New(svc, boardSvc, val)

	return &Module{
		handler: h,
		service: svc,
		board:   boardSvc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead and board routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	leads.POST("", m.handler.Capture)
	leads.GET("", m.handler.List)
	leads.GET("/:id", m.handler.Get)
	leads.PUT("/:id/fields", m.handler.UpdateFields)
	leads.DELETE("/:id", m.handler.Delete)
	leads.POST("/:id/move", m.handler.Move)
	leads.GET("/:id/stage-history", m.handler.StageHistory)

	boardGroup := ctx.Protected.Group("/board")
	boardGroup.GET("", m.handler.GetBoard)
	boardGroup.GET("/card-config", m.handler.GetCardConfig)
	boardGroup.PUT("/card-config", m.handler.UpdateCardConfig)
	boardGroup.DELETE("/card-config", m.handler.DeleteCardConfig)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
