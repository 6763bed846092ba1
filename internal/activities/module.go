// Package activities provides the activity bounded context module.
// It covers follow-up activities on leads, meeting scheduling with
// participants, and the notification hand-off to the scheduler.
package activities

import (
	"crm_portal_backend/internal/activities/handler"
	"crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/internal/activities/service"
	"crm_portal_backend/internal/events"
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activities bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the activities module. Lead tenant
// resolution comes from the leads module through an adapter; reminders
// may be nil when no durable task backend is configured.
func NewModule(
	pool *pgxpool.Pool,
	leads service.LeadTenantResolver,
	reminders service.ReminderScheduler,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, reminders, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activities"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for the scheduler binary.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts activity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/activities")
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id/done", m.handler.MarkDone)
	group.DELETE("/:id", m.handler.Delete)

	ctx.Protected.GET("/leads/:id/activities", m.handler.ListByLead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
