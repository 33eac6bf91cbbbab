package handlers

import (
	"strconv"

	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AppHandler struct {
	appService *services.AppService
}

func NewAppHandler(db *gorm.DB) *AppHandler {
	return &AppHandler{
		appService: services.NewAppService(db),
	}
}

// List returns paginated applications
// GET /api/apps
func (h *AppHandler) List(c *gin.Context) {
	var req services.AppListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.appService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns an application by ID
// GET /api/apps/:id
func (h *AppHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	app, err := h.appService.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, app)
}

// Create registers a new application
// POST /api/apps
func (h *AppHandler) Create(c *gin.Context) {
	var req services.CreateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.appService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, app)
}

// Update updates an application
// PUT /api/apps/:id
func (h *AppHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	var req services.UpdateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.appService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, app)
}

type setWatchingRequest struct {
	Watching *bool `json:"watching" binding:"required"`
}

// SetWatching toggles the watch flag for an application
// PATCH /api/apps/:id/watching
func (h *AppHandler) SetWatching(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	var req setWatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.appService.SetWatching(uint(id), *req.Watching)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, app)
}

// Delete removes an application
// DELETE /api/apps/:id
func (h *AppHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	if err := h.appService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "application deleted successfully"})
}
