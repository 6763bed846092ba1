// Package auth provides the authentication bounded context: password
// login and HS256 access token issuance. Its user reader also feeds
// notification fan-out with participant email addresses.
package auth

import (
	"crm_portal_backend/internal/auth/handler"
	"crm_portal_backend/internal/auth/repository"
	"crm_portal_backend/internal/auth/service"
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repo
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Users returns the user reader for cross-module consumers.
func (m *Module) Users() repository.UserReader {
	return m.repo
}

// RegisterRoutes mounts auth routes with the stricter auth rate limit.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/auth/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
