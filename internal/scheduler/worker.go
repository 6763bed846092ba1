package scheduler

import (
	"context"
	"fmt"

	"crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes scheduled tasks from the asynq queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskMeetingReminder, w.handleMeetingReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleMeetingReminder fires a reminder for an activity that is still
// pending when the task runs. Deleted, completed, and suppressed
// activities are skipped without retry.
func (w *Worker) handleMeetingReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMeetingReminderPayload(task)
	if err != nil {
		return err
	}

	activityID, err := uuid.Parse(payload.ActivityID)
	if err != nil {
		return err
	}

	activity, err := w.repo.GetActivity(ctx, activityID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	if activity.DoneAt != nil || !activity.SendNotification || activity.DueDate == nil {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.ActivityReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		ActivityID:   activity.ID,
		LeadID:       activity.LeadID,
		TenantID:     activity.TenantID,
		OwnerID:      activity.OwnerID,
		ActivityType: activity.Type,
		Title:        activity.Title,
		DueDate:      *activity.DueDate,
	})

	return nil
}
