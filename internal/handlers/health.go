package handlers

import (
	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Notification bus mode
	bus := services.GetNotificationBus()
	busMode := "sync"
	if bus != nil && bus.IsAsync() {
		busMode = "async (Redis)"
	}

	// Push delivery mode
	queue := services.GetDeliveryQueue()
	deliveryMode := "sync"
	if queue != nil && queue.IsAsync() {
		deliveryMode = "async (Redis)"
	}

	// SSE connections
	sseClients := services.GetSSEHub().ClientCount()

	// Reports still being generated
	var pendingReports int64
	models.GetDB().Model(&models.E2EReportSummary{}).
		Where("status = ?", models.ReportStatusPending).
		Count(&pendingReports)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "devboard",
		"components": gin.H{
			"database":        dbStatus,
			"bus_mode":        busMode,
			"push_delivery":   deliveryMode,
			"sse_clients":     sseClients,
			"pending_reports": pendingReports,
		},
	})
}
