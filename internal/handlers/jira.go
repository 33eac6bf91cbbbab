package handlers

import (
	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
)

type JiraHandler struct {
	jiraService *services.JiraService
}

func NewJiraHandler(cfg *config.JiraConfig) *JiraHandler {
	return &JiraHandler{
		jiraService: services.NewJiraService(cfg),
	}
}

// Search returns issues matching a JQL query, defaulting to the configured
// user's open issues
// GET /api/jira/issues
func (h *JiraHandler) Search(c *gin.Context) {
	var req services.JiraSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.jiraService.Search(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetIssue returns a single issue by key
// GET /api/jira/issues/:key
func (h *JiraHandler) GetIssue(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, "issue key is required")
		return
	}

	issue, err := h.jiraService.GetIssue(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}
