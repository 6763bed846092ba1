package service

import (
	"context"
	"sync"
	"time"

	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// ActiveTenantLister is the slice of the tenants repository the
// allow-list needs.
type ActiveTenantLister interface {
	ListActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Allowlist is a TTL-bounded, lazily refreshed cache of active tenant
// ids. It spares the request path a per-request tenant lookup; a
// deactivated tenant keeps passing until the cache expires, which the
// TTL keeps short.
type Allowlist struct {
	repo ActiveTenantLister
	ttl  time.Duration
	log  *logger.Logger
	now  func() time.Time

	mu      sync.RWMutex
	ids     map[uuid.UUID]struct{}
	expires time.Time
}

// NewAllowlist creates the allow-list cache.
func NewAllowlist(repo ActiveTenantLister, cfg config.TenantGateConfig, log *logger.Logger) *Allowlist {
	ttl := cfg.GetTenantAllowlistTTL()
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Allowlist{
		repo: repo,
		ttl:  ttl,
		log:  log,
		now:  time.Now,
	}
}

// IsAllowed reports whether the tenant is active, reading through the
// cache. When a refresh fails the previous snapshot keeps serving so a
// storage blip does not lock every tenant out.
func (a *Allowlist) IsAllowed(ctx context.Context, tenantID uuid.UUID) bool {
	a.mu.RLock()
	if a.ids != nil && a.now().Before(a.expires) {
		_, ok := a.ids[tenantID]
		a.mu.RUnlock()
		return ok
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if a.ids != nil && a.now().Before(a.expires) {
		_, ok := a.ids[tenantID]
		return ok
	}

	active, err := a.repo.ListActiveTenantIDs(ctx)
	if err != nil {
		a.log.Warn("tenant allowlist refresh failed", "error", err)
		if a.ids != nil {
			_, ok := a.ids[tenantID]
			return ok
		}
		return false
	}

	ids := make(map[uuid.UUID]struct{}, len(active))
	for _, id := range active {
		ids[id] = struct{}{}
	}
	a.ids = ids
	a.expires = a.now().Add(a.ttl)

	_, ok := a.ids[tenantID]
	return ok
}
