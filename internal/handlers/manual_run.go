package handlers

import (
	"strconv"

	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
)

type ManualRunHandler struct {
	runService *services.ManualRunService
}

func NewManualRunHandler(runService *services.ManualRunService) *ManualRunHandler {
	return &ManualRunHandler{runService: runService}
}

// Trigger starts a new E2E pipeline run for an application. Returns 409 when
// a previous run triggered from here is still in flight.
// POST /api/e2e/apps/:id/runs
func (h *ManualRunHandler) Trigger(c *gin.Context) {
	appID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	run, err := h.runService.Trigger(c.Request.Context(), uint(appID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, run)
}

// List returns recent manual runs for an application with live status
// GET /api/e2e/apps/:id/runs?limit=10
func (h *ManualRunHandler) List(c *gin.Context) {
	appID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	runs, err := h.runService.List(c.Request.Context(), uint(appID), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, runs)
}
