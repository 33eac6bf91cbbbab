package main

import (
	"errors"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/internal/utils"
	"github.com/devboardhq/devboard/pkg/logger"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	cfg                 *config.Config
	bus                 services.NotificationBus
	deliveryQueue       services.DeliveryQueue
	deliveryWorker      *services.DeliveryWorker
	pushService         *services.PushService
	notificationService *services.NotificationService
	reportService       *services.E2EReportService
	manualRunService    *services.ManualRunService
	scheduler           *services.SchedulerService
}

// bootstrap initializes all application dependencies: database, bus, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data and configured API keys
	if err := models.SeedDefaultData(cfg.Auth.APIKeys); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	// Without at least one API key nothing can authenticate
	authService := services.NewAuthService(db, cfg.Auth.TokenTTLHours)
	if err := authService.RequireSeedKeys(); err != nil {
		if errors.Is(err, services.ErrNoKeys) {
			logger.Fatalf("No API keys configured. Set auth.api_keys in the config file or the API_KEY environment variable.")
		}
		logger.Fatalf("Failed to verify api keys: %v", err)
	}

	// Push delivery queue (uses Redis/asynq if enabled, otherwise sync mode)
	pushService := services.NewPushService(db, &cfg.Push)
	deliveryQueue := services.InitDeliveryQueue(cfg)
	if syncQueue, ok := deliveryQueue.(*services.SyncDeliveryQueue); ok {
		syncQueue.SetProcessor(pushService.Deliver)
	}

	var deliveryWorker *services.DeliveryWorker
	if cfg.Redis.Enabled && deliveryQueue.IsAsync() {
		deliveryWorker = services.InitDeliveryWorker(&cfg.Redis)
		if deliveryWorker != nil {
			deliveryWorker.SetProcessor(pushService.Deliver)
			if err := deliveryWorker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start delivery worker")
			}
		}
	}

	// Notification pipeline: bus -> persist -> SSE broadcast -> push queue
	notificationService := services.NewNotificationService(db, services.GetSSEHub(), deliveryQueue)
	bus := services.InitNotificationBus(cfg)
	switch b := bus.(type) {
	case *services.RedisBus:
		b.StartConsumer(notificationService.HandleCreate)
	case *services.SyncBus:
		b.SetHandler(notificationService.HandleCreate)
	}

	pipeline := services.NewPipelineClient()
	reportService := services.NewE2EReportService(db, services.NewAppService(db), pipeline, bus)
	manualRunService := services.NewManualRunService(db, pipeline, bus)

	// Cron jobs
	scheduler := services.NewSchedulerService(
		db,
		&cfg.Cron,
		reportService,
		services.NewTodoService(db),
		services.NewPullRequestService(db, services.NewGitHubClient(&cfg.GitHub)),
		manualRunService,
		notificationService,
		services.NewSystemLogService(db),
		bus,
	)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	return &appServices{
		cfg:                 cfg,
		bus:                 bus,
		deliveryQueue:       deliveryQueue,
		deliveryWorker:      deliveryWorker,
		pushService:         pushService,
		notificationService: notificationService,
		reportService:       reportService,
		manualRunService:    manualRunService,
		scheduler:           scheduler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("Scheduler stopped")

	if s.deliveryWorker != nil {
		s.deliveryWorker.Stop()
	}
	if s.deliveryQueue != nil {
		s.deliveryQueue.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}
}
