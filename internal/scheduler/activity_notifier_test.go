package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeActivityStore struct {
	activities []repository.Activity
	suppressed []uuid.UUID
	queries    int
	queryErr   error
}

func (f *fakeActivityStore) ListDueForNotification(_ context.Context, horizon time.Time) ([]repository.Activity, error) {
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var results []repository.Activity
	for _, a := range f.activities {
		if a.SendNotification && a.DueDate != nil && !a.DueDate.After(horizon) {
			results = append(results, a)
		}
	}
	return results, nil
}

func (f *fakeActivityStore) SuppressNotification(_ context.Context, id uuid.UUID) error {
	for i := range f.activities {
		if f.activities[i].ID == id {
			f.activities[i].SendNotification = false
		}
	}
	f.suppressed = append(f.suppressed, id)
	return nil
}

type dispatchedNotice struct {
	activityID uuid.UUID
	class      NoticeClass
	diff       int
}

type fakeDispatcher struct {
	notices []dispatchedNotice
	failFor map[uuid.UUID]error
}

func (f *fakeDispatcher) DispatchNotice(_ context.Context, activity repository.Activity, class NoticeClass, diff int) error {
	if err := f.failFor[activity.ID]; err != nil {
		return err
	}
	f.notices = append(f.notices, dispatchedNotice{activityID: activity.ID, class: class, diff: diff})
	return nil
}

type notifierConfig struct{}

func (notifierConfig) GetNotifyTimezone() string                { return "UTC" }
func (notifierConfig) GetActivityNotifyInterval() time.Duration { return 15 * time.Minute }

func pendingActivity(due time.Time) repository.Activity {
	return repository.Activity{
		ID:               uuid.New(),
		LeadID:           uuid.New(),
		TenantID:         uuid.New(),
		OwnerID:          uuid.New(),
		Type:             repository.TypeTask,
		Title:            "Follow up",
		DueDate:          &due,
		SendNotification: true,
	}
}

func newTestNotifier(t *testing.T, store *fakeActivityStore, dispatcher *fakeDispatcher, now time.Time) *ActivityNotifier {
	t.Helper()
	n, err := NewActivityNotifier(store, dispatcher, notifierConfig{}, logger.New("development"))
	if err != nil {
		t.Fatalf("notifier construction failed: %v", err)
	}
	n.now = func() time.Time { return now }
	return n
}

func TestClassifyWindowBoundaries(t *testing.T) {
	cases := []struct {
		diff      int
		wantClass NoticeClass
		wantMatch bool
	}{
		{61, "", false},
		{60, NoticeUpcoming, true},
		{2, NoticeUpcoming, true},
		{1, NoticeUpcoming, true},
		{0, NoticeDueNow, true},
		{-1, NoticeDueNow, true},
		{-2, NoticeOverdue, true},
		{-60, NoticeOverdue, true},
		{-61, "", false},
		{-89, "", false},
		{-90, NoticeOverdue, true},
		{-91, NoticeSuppressing, true},
	}

	for _, tc := range cases {
		class, ok := classify(tc.diff)
		if ok != tc.wantMatch || class != tc.wantClass {
			t.Fatalf("classify(%d) = (%q, %v), want (%q, %v)",
				tc.diff, class, ok, tc.wantClass, tc.wantMatch)
		}
	}
}

func TestTickEmitsOneNoticePerWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	upcoming := pendingActivity(now.Add(45 * time.Minute))
	dueNow := pendingActivity(now)
	overdue := pendingActivity(now.Add(-30 * time.Minute))
	deadZone := pendingActivity(now.Add(-75 * time.Minute))

	store := &fakeActivityStore{activities: []repository.Activity{upcoming, dueNow, overdue, deadZone}}
	dispatcher := &fakeDispatcher{}
	n := newTestNotifier(t, store, dispatcher, now)

	processed, failed := n.tick(context.Background())
	if processed != 3 || failed != 0 {
		t.Fatalf("expected 3 processed 0 failed, got %d/%d", processed, failed)
	}

	got := make(map[uuid.UUID]NoticeClass)
	for _, notice := range dispatcher.notices {
		got[notice.activityID] = notice.class
	}
	if got[upcoming.ID] != NoticeUpcoming || got[dueNow.ID] != NoticeDueNow || got[overdue.ID] != NoticeOverdue {
		t.Fatalf("unexpected classes: %v", got)
	}
	if _, ok := got[deadZone.ID]; ok {
		t.Fatalf("expected no action inside the dead zone, got %v", got[deadZone.ID])
	}
	if len(store.suppressed) != 0 {
		t.Fatalf("expected no suppression, got %v", store.suppressed)
	}
}

func TestTickSuppressionIsOneWay(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	stale := pendingActivity(now.Add(-91 * time.Minute))

	store := &fakeActivityStore{activities: []repository.Activity{stale}}
	dispatcher := &fakeDispatcher{}
	n := newTestNotifier(t, store, dispatcher, now)

	processed, failed := n.tick(context.Background())
	if processed != 1 || failed != 0 {
		t.Fatalf("expected 1 processed 0 failed, got %d/%d", processed, failed)
	}
	if len(dispatcher.notices) != 1 || dispatcher.notices[0].class != NoticeSuppressing {
		t.Fatalf("expected one suppressing notice, got %v", dispatcher.notices)
	}
	if len(store.suppressed) != 1 || store.suppressed[0] != stale.ID {
		t.Fatalf("expected suppression of %s, got %v", stale.ID, store.suppressed)
	}

	// Suppressed activities drop out of the candidate set; the next
	// tick does nothing with them.
	processed, failed = n.tick(context.Background())
	if processed != 0 || failed != 0 {
		t.Fatalf("expected idle second tick, got %d/%d", processed, failed)
	}
	if len(dispatcher.notices) != 1 {
		t.Fatalf("expected no repeat notice, got %v", dispatcher.notices)
	}
}

func TestTickBoundaryNinetyNotSuppressed(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	edge := pendingActivity(now.Add(-90 * time.Minute))

	store := &fakeActivityStore{activities: []repository.Activity{edge}}
	dispatcher := &fakeDispatcher{}
	n := newTestNotifier(t, store, dispatcher, now)

	processed, failed := n.tick(context.Background())
	if processed != 1 || failed != 0 {
		t.Fatalf("expected 1 processed 0 failed, got %d/%d", processed, failed)
	}
	if len(store.suppressed) != 0 {
		t.Fatalf("expected -90 to stay unsuppressed, got %v", store.suppressed)
	}
	if len(dispatcher.notices) != 1 || dispatcher.notices[0].class != NoticeOverdue {
		t.Fatalf("expected one overdue notice at -90, got %v", dispatcher.notices)
	}
}

func TestTickDispatchFailureDoesNotSuppress(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	stale := pendingActivity(now.Add(-2 * time.Hour))
	healthy := pendingActivity(now.Add(-30 * time.Minute))

	store := &fakeActivityStore{activities: []repository.Activity{stale, healthy}}
	dispatcher := &fakeDispatcher{failFor: map[uuid.UUID]error{stale.ID: errors.New("smtp down")}}
	n := newTestNotifier(t, store, dispatcher, now)

	processed, failed := n.tick(context.Background())
	if processed != 1 || failed != 1 {
		t.Fatalf("expected 1 processed 1 failed, got %d/%d", processed, failed)
	}
	if len(store.suppressed) != 0 {
		t.Fatalf("expected no suppression after dispatch failure, got %v", store.suppressed)
	}
	if len(dispatcher.notices) != 1 || dispatcher.notices[0].activityID != healthy.ID {
		t.Fatalf("expected the healthy activity still notified, got %v", dispatcher.notices)
	}
}

func TestTickCandidateQueryFailureLeavesCountersZero(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := &fakeActivityStore{
		activities: []repository.Activity{pendingActivity(now)},
		queryErr:   errors.New("storage down"),
	}
	dispatcher := &fakeDispatcher{}
	n := newTestNotifier(t, store, dispatcher, now)

	processed, failed := n.tick(context.Background())
	if processed != 0 || failed != 0 {
		t.Fatalf("expected a dead query to report 0/0, got %d/%d", processed, failed)
	}
	if len(dispatcher.notices) != 0 {
		t.Fatalf("expected no dispatches after query failure, got %v", dispatcher.notices)
	}
}

func TestTickSkipsWhenPreviousInFlight(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := &fakeActivityStore{activities: []repository.Activity{pendingActivity(now)}}
	n := newTestNotifier(t, store, &fakeDispatcher{}, now)

	n.inFlight.Store(true)
	processed, failed := n.tick(context.Background())
	if processed != 0 || failed != 0 {
		t.Fatalf("expected skipped tick, got %d/%d", processed, failed)
	}
	if store.queries != 0 {
		t.Fatalf("expected no candidate query during skipped tick, got %d", store.queries)
	}
}
