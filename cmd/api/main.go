package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_portal_backend/internal/activities"
	activitysvc "crm_portal_backend/internal/activities/service"
	"crm_portal_backend/internal/adapters"
	"crm_portal_backend/internal/auth"
	"crm_portal_backend/internal/email"
	"crm_portal_backend/internal/events"
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/internal/http/router"
	"crm_portal_backend/internal/leads"
	"crm_portal_backend/internal/notification"
	"crm_portal_backend/internal/pipelines"
	"crm_portal_backend/internal/scheduler"
	"crm_portal_backend/internal/tenants"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/db"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	tenantsModule := tenants.NewModule(pool, cfg, val, log)
	authModule := auth.NewModule(pool, cfg, val, log)
	pipelinesModule := pipelines.NewModule(pool, val, log)

	// Leads resolve stages and board metadata through the pipelines module
	stageResolver := adapters.NewPipelineStageResolver(pipelinesModule.Repository())
	pipelineMeta := adapters.NewPipelineMetaAdapter(pipelinesModule.Repository())
	leadsModule := leads.NewModule(pool, stageResolver, pipelineMeta, eventBus, cfg, val, log)

	// Activities authorize against the owning lead's tenant
	leadTenants := adapters.NewLeadTenantAdapter(leadsModule.Repository())
	activitiesModule := activities.NewModule(pool, leadTenants, reminderScheduler, eventBus, val, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule, err := notification.NewModule(sender, authModule.Users(), cfg, log)
	if err != nil {
		log.Error("failed to initialize notification module", "error", err)
		panic("failed to initialize notification module: " + err.Error())
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:     cfg,
		Logger:     log,
		Health:     db.NewPoolAdapter(pool),
		EventBus:   eventBus,
		TenantGate: tenants.Gate(tenantsModule.Allowlist()),
		Modules: []apphttp.Module{
			authModule,
			tenantsModule,
			pipelinesModule,
			leadsModule,
			activitiesModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (activitysvc.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; meeting reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
