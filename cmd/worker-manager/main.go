// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"interview-workers/internal/api"
	awsclients "interview-workers/internal/common/aws"
	"interview-workers/internal/common/camunda"
	"interview-workers/internal/common/config"
	"interview-workers/internal/common/database"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/observability"
	"interview-workers/internal/interview"
	"interview-workers/internal/maintenance"
	"interview-workers/internal/notify"
	"interview-workers/internal/scheduler"

	ev "interview-workers/internal/workers/interview/expire-videos"
	no "interview-workers/internal/workers/interview/notify-overdue"
	rv "interview-workers/internal/workers/interview/request-video"
	sf "interview-workers/internal/workers/interview/submit-feedback"
	sv "interview-workers/internal/workers/interview/submit-video"
	oc "interview-workers/internal/workers/maintenance/orphan-cleanup"
)

// startupRetry is generous: the database and broker may come up after us.
var startupRetry = &camunda.RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console", "stderr")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name, log)

	ctx := context.Background()

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres setup failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.RetryWithBackoff(ctx, "postgres connection", startupRetry, log, pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	log.Info("postgres connected", nil)

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis setup failed", zap.Error(err))
	}
	defer rdb.Close()
	if err := camunda.RetryWithBackoff(ctx, "redis connection", startupRetry, log, rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	log.Info("redis connected", nil)

	// --- AWS / notifications ---
	aws, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws setup failed", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		SenderID:     cfg.Notifications.SMS.SenderID,
		PortalURL:    cfg.Notifications.PortalURL,
	}, aws.SES, aws.SNS, log)

	// --- Domain ---
	service := interview.NewService(
		interview.NewRepository(pg.DB),
		dispatcher,
		database.NewLocker(rdb.Client, "interview:"),
		interview.Config{
			VideoWindow:   cfg.Interview.VideoWindow(),
			SweepLockTTL:  cfg.Interview.SweepLockTTL(),
			BatchSize:     cfg.Interview.SweepBatchSize,
			PurgeReviewed: cfg.Interview.PurgeReviewed,
		},
		log,
	)
	cleaner := maintenance.NewCleaner(pg.DB, log)

	checks := []api.Check{
		{Name: "postgres", Fn: pg.Ping},
		{Name: "redis", Fn: rdb.Ping},
	}

	// --- Zeebe workers ---
	var (
		publisher api.Publisher
		zeebe     *camunda.Client
		workers   *camunda.Registry
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClientWithConfig(ctx, camunda.FromConfig(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe connection failed", zap.Error(err))
		}
		publisher = zeebe
		checks = append(checks, api.Check{Name: "zeebe", Fn: zeebe.HealthCheck})

		workers = camunda.NewRegistry(zeebe.Raw(), obs, log)
		registerWorkers(workers, cfg, service, cleaner, log)
		log.Info("workers registered", map[string]interface{}{"taskTypes": workers.Registered()})
	} else {
		log.Info("camunda disabled, running API and scheduler only", nil)
	}

	// --- HTTP ---
	router := api.NewRouter(service, api.Options{
		Mode:           cfg.HTTP.Mode,
		CronSecret:     cfg.HTTP.CronSecret,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Checks:         checks,
		Publisher:      publisher,
	}, obs, log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Scheduler ---
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log, obs, 30*time.Minute)
		if err := registerTasks(sched, cfg.Scheduler, service, cleaner); err != nil {
			zapLog.Fatal("scheduler setup failed", zap.Error(err))
		}
		sched.Start()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", map[string]interface{}{"error": err})
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if workers != nil {
		workers.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("error closing zeebe client", map[string]interface{}{"error": err})
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", map[string]interface{}{"error": err})
	}

	log.Info("worker manager stopped", nil)
}

func registerWorkers(reg *camunda.Registry, cfg *config.Config, service *interview.Service, cleaner *maintenance.Cleaner, log logger.Logger) {
	if wcfg := config.GetWorkerConfig(cfg, rv.TaskType); wcfg.Enabled {
		reg.Register(rv.TaskType, wcfg, rv.NewHandler(rv.LoadConfig(wcfg), service, log))
	}
	if wcfg := config.GetWorkerConfig(cfg, sv.TaskType); wcfg.Enabled {
		reg.Register(sv.TaskType, wcfg, sv.NewHandler(sv.LoadConfig(wcfg), service, log))
	}
	if wcfg := config.GetWorkerConfig(cfg, sf.TaskType); wcfg.Enabled {
		reg.Register(sf.TaskType, wcfg, sf.NewHandler(sf.LoadConfig(wcfg), service, log))
	}
	if wcfg := config.GetWorkerConfig(cfg, ev.TaskType); wcfg.Enabled {
		reg.Register(ev.TaskType, wcfg, ev.NewHandler(ev.LoadConfig(wcfg), service, log))
	}
	if wcfg := config.GetWorkerConfig(cfg, no.TaskType); wcfg.Enabled {
		reg.Register(no.TaskType, wcfg, no.NewHandler(no.LoadConfig(wcfg), service, log))
	}
	if wcfg := config.GetWorkerConfig(cfg, oc.TaskType); wcfg.Enabled {
		reg.Register(oc.TaskType, wcfg, oc.NewHandler(oc.LoadConfig(wcfg), cleaner, log))
	}
}

func registerTasks(sched *scheduler.Scheduler, cfg config.SchedulerConfig, service *interview.Service, cleaner *maintenance.Cleaner) error {
	tasks := []scheduler.Task{
		{
			Name:     interview.SweepVideoExpiration,
			Schedule: cfg.VideoExpiration,
			Run: func(ctx context.Context) error {
				_, err := service.ExpireSweep(ctx)
				return err
			},
		},
		{
			Name:     interview.SweepReviewedPurge,
			Schedule: cfg.ReviewedPurge,
			Run: func(ctx context.Context) error {
				_, err := service.PurgeReviewedMedia(ctx)
				return err
			},
		},
		{
			Name:     interview.SweepVideoOverdue,
			Schedule: cfg.VideoOverdue,
			Run: func(ctx context.Context) error {
				_, err := service.NotifyOverdue(ctx)
				return err
			},
		},
		{
			Name:     oc.TaskType,
			Schedule: cfg.OrphanCleanup,
			Run: func(ctx context.Context) error {
				_, err := cleaner.DeleteOrphans(ctx, false)
				return err
			},
		},
	}

	for _, task := range tasks {
		if err := sched.Add(task); err != nil {
			return err
		}
	}
	return nil
}
