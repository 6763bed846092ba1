package scheduler

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// NoticeClass names the notification window an activity falls into.
type NoticeClass string

const (
	NoticeUpcoming    NoticeClass = "upcoming"
	NoticeDueNow      NoticeClass = "due_now"
	NoticeOverdue     NoticeClass = "overdue"
	NoticeSuppressing NoticeClass = "suppressing"
)

// notifyLookahead bounds the candidate query so the upcoming window has
// activities to classify.
const notifyLookahead = time.Hour

// NoticeDispatcher delivers one window notice for an activity.
type NoticeDispatcher interface {
	DispatchNotice(ctx context.Context, activity repository.Activity, class NoticeClass, diffMinutes int) error
}

// ActivityStore is the slice of the activities repository the notifier
// needs.
type ActivityStore interface {
	ListDueForNotification(ctx context.Context, horizon time.Time) ([]repository.Activity, error)
	SuppressNotification(ctx context.Context, id uuid.UUID) error
}

// ActivityNotifier periodically classifies pending activities into
// due-date-relative notification windows. Classification is stateless
// and re-evaluated every tick; the only mutation is the one-way
// send_notification suppression. Missed ticks are not replayed.
type ActivityNotifier struct {
	store      ActivityStore
	dispatcher NoticeDispatcher
	log        *logger.Logger
	interval   time.Duration
	loc        *time.Location
	now        func() time.Time
	inFlight   atomic.Bool
}

// NewActivityNotifier creates the notifier with the configured tick
// interval and tenant-facing time zone.
func NewActivityNotifier(store ActivityStore, dispatcher NoticeDispatcher, cfg config.NotificationConfig, log *logger.Logger) (*ActivityNotifier, error) {
	loc, err := time.LoadLocation(cfg.GetNotifyTimezone())
	if err != nil {
		return nil, fmt.Errorf("load notify timezone: %w", err)
	}

	interval := cfg.GetActivityNotifyInterval()
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &ActivityNotifier{
		store:      store,
		dispatcher: dispatcher,
		log:        log,
		interval:   interval,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// Run executes ticks on the configured interval until the context is
// canceled.
func (n *ActivityNotifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		processed, failed := n.tick(ctx)
		n.log.SchedulerTick("activity_notifier", processed, failed)
	}
}

// tick loads the candidate activities and classifies each one. A tick
// already in flight is skipped rather than overlapped; per-activity
// failures are logged and the tick moves on.
func (n *ActivityNotifier) tick(ctx context.Context) (processed, failed int) {
	if !n.inFlight.CompareAndSwap(false, true) {
		n.log.Warn("notifier tick skipped, previous tick still running")
		return 0, 0
	}
	defer n.inFlight.Store(false)

	now := n.now().In(n.loc)

	// A dead candidate query is its own failure mode; it never counts
	// against the per-activity failed total.
	candidates, err := n.store.ListDueForNotification(ctx, now.Add(notifyLookahead))
	if err != nil {
		n.log.Error("notifier candidate query failed", "error", err)
		return 0, 0
	}

	for _, activity := range candidates {
		if activity.DueDate == nil {
			continue
		}

		diff := diffMinutes(*activity.DueDate, now)
		class, ok := classify(diff)
		if !ok {
			continue
		}

		if err := n.dispatcher.DispatchNotice(ctx, activity, class, diff); err != nil {
			n.log.Error("notice dispatch failed",
				"activityId", activity.ID, "class", string(class), "error", err)
			failed++
			continue
		}

		if class == NoticeSuppressing {
			if err := n.store.SuppressNotification(ctx, activity.ID); err != nil {
				n.log.Error("notification suppression failed", "activityId", activity.ID, "error", err)
				failed++
				continue
			}
		}

		processed++
	}

	return processed, failed
}

func diffMinutes(due, now time.Time) int {
	return int(math.Round(due.Sub(now).Minutes()))
}

// classify maps a due-date distance in minutes onto a notification
// window, first match wins. Distances between -89 and -61 minutes fall
// into a deliberate gap and get no action on that tick; -90 itself is
// still overdue, suppression starts strictly below it.
func classify(diff int) (NoticeClass, bool) {
	switch {
	case diff > 0 && diff <= 60:
		return NoticeUpcoming, true
	case diff >= -1 && diff <= 1:
		return NoticeDueNow, true
	case diff >= -60 && diff < 0:
		return NoticeOverdue, true
	case diff == -90:
		return NoticeOverdue, true
	case diff < -90:
		return NoticeSuppressing, true
	default:
		return "", false
	}
}
