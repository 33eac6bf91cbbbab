package handlers

import (
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SystemLogHandler struct {
	logService *services.SystemLogService
}

func NewSystemLogHandler(db *gorm.DB) *SystemLogHandler {
	return &SystemLogHandler{
		logService: services.NewSystemLogService(db),
	}
}

// List returns paginated system logs with filters
// GET /api/logs
func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.logService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// Modules returns the distinct module names present in the logs
// GET /api/logs/modules
func (h *SystemLogHandler) Modules(c *gin.Context) {
	modules, err := h.logService.Modules()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"modules": modules})
}

// GetRetention returns the log retention window in days
// GET /api/logs/retention
func (h *SystemLogHandler) GetRetention(c *gin.Context) {
	response.Success(c, gin.H{"retention_days": h.logService.RetentionDays()})
}

type setRetentionRequest struct {
	RetentionDays int `json:"retention_days" binding:"required,min=1,max=365"`
}

// SetRetention updates the log retention window
// PUT /api/logs/retention
func (h *SystemLogHandler) SetRetention(c *gin.Context) {
	var req setRetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.logService.SetRetentionDays(req.RetentionDays); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"retention_days": req.RetentionDays})
}
