package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLister struct {
	ids   []uuid.UUID
	err   error
	calls int
}

func (f *fakeLister) ListActiveTenantIDs(_ context.Context) ([]uuid.UUID, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

type gateConfig struct{}

func (gateConfig) GetTenantAllowlistTTL() time.Duration { return 30 * time.Second }

func newTestAllowlist(lister *fakeLister, now *time.Time) *Allowlist {
	a := NewAllowlist(lister, gateConfig{}, logger.New("development"))
	a.now = func() time.Time { return *now }
	return a
}

func TestAllowlistServesFromCacheWithinTTL(t *testing.T) {
	active := uuid.New()
	lister := &fakeLister{ids: []uuid.UUID{active}}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAllowlist(lister, &now)

	for i := 0; i < 5; i++ {
		if !a.IsAllowed(context.Background(), active) {
			t.Fatalf("expected active tenant allowed")
		}
	}
	if lister.calls != 1 {
		t.Fatalf("expected a single refresh within the TTL, got %d", lister.calls)
	}
	if a.IsAllowed(context.Background(), uuid.New()) {
		t.Fatalf("expected unknown tenant denied")
	}
}

func TestAllowlistRefreshesAfterExpiry(t *testing.T) {
	tenant := uuid.New()
	lister := &fakeLister{ids: []uuid.UUID{tenant}}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAllowlist(lister, &now)

	if !a.IsAllowed(context.Background(), tenant) {
		t.Fatalf("expected tenant allowed before deactivation")
	}

	// Deactivation shows up once the snapshot expires.
	lister.ids = nil
	now = now.Add(31 * time.Second)

	if a.IsAllowed(context.Background(), tenant) {
		t.Fatalf("expected deactivated tenant denied after refresh")
	}
	if lister.calls != 2 {
		t.Fatalf("expected 2 refreshes, got %d", lister.calls)
	}
}

func TestAllowlistKeepsStaleSnapshotOnRefreshFailure(t *testing.T) {
	tenant := uuid.New()
	lister := &fakeLister{ids: []uuid.UUID{tenant}}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAllowlist(lister, &now)

	if !a.IsAllowed(context.Background(), tenant) {
		t.Fatalf("expected tenant allowed")
	}

	lister.err = errors.New("storage down")
	now = now.Add(time.Minute)

	if !a.IsAllowed(context.Background(), tenant) {
		t.Fatalf("expected stale snapshot to keep serving on refresh failure")
	}
}

func TestAllowlistDeniesWithoutAnySnapshot(t *testing.T) {
	lister := &fakeLister{err: errors.New("storage down")}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAllowlist(lister, &now)

	if a.IsAllowed(context.Background(), uuid.New()) {
		t.Fatalf("expected denial when no snapshot was ever loaded")
	}
}
