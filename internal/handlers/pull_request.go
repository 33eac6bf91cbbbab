package handlers

import (
	"strconv"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PullRequestHandler struct {
	prService *services.PullRequestService
}

func NewPullRequestHandler(db *gorm.DB, cfg *config.GitHubConfig) *PullRequestHandler {
	return &PullRequestHandler{
		prService: services.NewPullRequestService(db, services.NewGitHubClient(cfg)),
	}
}

// List returns all tracked pull requests with live GitHub detail
// GET /api/pull-requests
func (h *PullRequestHandler) List(c *gin.Context) {
	views, err := h.prService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, views)
}

// GetByID returns one tracked pull request with live detail
// GET /api/pull-requests/:id
func (h *PullRequestHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid pull request id")
		return
	}

	view, err := h.prService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// Create starts tracking a pull request
// POST /api/pull-requests
func (h *PullRequestHandler) Create(c *gin.Context) {
	var req services.CreatePullRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pr, err := h.prService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, pr)
}

// Delete stops tracking a pull request
// DELETE /api/pull-requests/:id
func (h *PullRequestHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid pull request id")
		return
	}

	if err := h.prService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "pull request removed"})
}
