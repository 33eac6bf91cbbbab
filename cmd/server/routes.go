package main

import (
	"github.com/devboardhq/devboard/internal/handlers"
	"github.com/devboardhq/devboard/internal/middleware"
	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	db := models.GetDB()
	cfg := svc.cfg

	// Pipeline triggers hit an external CI, keep them throttled
	triggerLimiter := middleware.NewRateLimiter(1, 5)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Token exchange (public)
		authHandler := handlers.NewAuthHandler(db, cfg.Auth.TokenTTLHours)
		api.POST("/auth/token", authHandler.Token)

		// SSE events (public route with internal token validation)
		sseHandler := handlers.NewSSEHandler(services.GetSSEHub())
		api.GET("/events/notifications", sseHandler.StreamNotifications)

		// Browser push bootstrap (public, the key is not a secret)
		pushHandler := handlers.NewPushHandler(svc.pushService)
		api.GET("/push/vapid-public-key", pushHandler.VAPIDPublicKey)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(db), middleware.AuditLog())
		{
			// API keys
			protected.GET("/auth/keys", authHandler.ListKeys)
			protected.POST("/auth/keys", authHandler.CreateKey)
			protected.DELETE("/auth/keys/:id", authHandler.RevokeKey)

			// Todos
			todoHandler := handlers.NewTodoHandler(db)
			protected.GET("/todos", todoHandler.List)
			protected.GET("/todos/:id", todoHandler.GetByID)
			protected.POST("/todos", todoHandler.Create)
			protected.PUT("/todos/:id", todoHandler.Update)
			protected.DELETE("/todos/:id", todoHandler.Delete)

			// Applications
			appHandler := handlers.NewAppHandler(db)
			protected.GET("/apps", appHandler.List)
			protected.GET("/apps/:id", appHandler.GetByID)
			protected.POST("/apps", appHandler.Create)
			protected.PUT("/apps/:id", appHandler.Update)
			protected.PATCH("/apps/:id/watching", appHandler.SetWatching)
			protected.DELETE("/apps/:id", appHandler.Delete)

			// Manual E2E runs
			manualRunHandler := handlers.NewManualRunHandler(svc.manualRunService)
			protected.POST("/e2e/apps/:id/runs", triggerLimiter.Middleware(), manualRunHandler.Trigger)
			protected.GET("/e2e/apps/:id/runs", manualRunHandler.List)

			// E2E reports
			reportHandler := handlers.NewE2EReportHandler(svc.reportService)
			protected.GET("/e2e/reports", reportHandler.Get)
			protected.GET("/e2e/reports/latest", reportHandler.Latest)
			protected.POST("/e2e/reports", triggerLimiter.Middleware(), reportHandler.Generate)

			// Pull requests
			prHandler := handlers.NewPullRequestHandler(db, &cfg.GitHub)
			protected.GET("/pull-requests", prHandler.List)
			protected.GET("/pull-requests/:id", prHandler.GetByID)
			protected.POST("/pull-requests", prHandler.Create)
			protected.DELETE("/pull-requests/:id", prHandler.Delete)

			// Jira
			jiraHandler := handlers.NewJiraHandler(&cfg.Jira)
			protected.GET("/jira/issues", jiraHandler.Search)
			protected.GET("/jira/issues/:key", jiraHandler.GetIssue)

			// Notifications
			notificationHandler := handlers.NewNotificationHandler(svc.notificationService, svc.bus)
			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			protected.POST("/notifications", notificationHandler.Create)
			protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
			protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
			protected.DELETE("/notifications/:id", notificationHandler.Delete)

			// Push subscriptions
			protected.POST("/push/subscriptions", pushHandler.Subscribe)
			protected.DELETE("/push/subscriptions", pushHandler.Unsubscribe)

			// Files
			fileHandler := handlers.NewFileHandler(cfg.Files.DataDir)
			protected.GET("/files", fileHandler.List)
			protected.GET("/files/content", fileHandler.Content)

			// System Logs
			systemLogHandler := handlers.NewSystemLogHandler(db)
			protected.GET("/logs", systemLogHandler.List)
			protected.GET("/logs/modules", systemLogHandler.Modules)
			protected.GET("/logs/retention", systemLogHandler.GetRetention)
			protected.PUT("/logs/retention", systemLogHandler.SetRetention)
		}
	}
}
