package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	activityrepo "crm_portal_backend/internal/activities/repository"
	authrepo "crm_portal_backend/internal/auth/repository"
	"crm_portal_backend/internal/email"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/notification"
	"crm_portal_backend/internal/scheduler"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/db"
	"crm_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	notificationModule, err := notification.NewModule(sender, authrepo.New(pool), cfg, log)
	if err != nil {
		log.Error("failed to initialize notification module", "error", err)
		panic("failed to initialize notification module: " + err.Error())
	}
	notificationModule.RegisterHandlers(eventBus)

	// Polling notifier for due-date windows; notices go out through the
	// notification module directly.
	activities := activityrepo.New(pool)
	notifier, err := scheduler.NewActivityNotifier(activities, notificationModule, cfg, log)
	if err != nil {
		log.Error("failed to initialize activity notifier", "error", err)
		panic("failed to initialize activity notifier: " + err.Error())
	}
	go notifier.Run(ctx)

	// Durable meeting reminders consumed from the asynq queue. Without
	// redis only the polling notifier runs.
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; meeting reminder worker disabled")
		<-ctx.Done()
		return
	}

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
