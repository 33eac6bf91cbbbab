package handlers

import (
	"strconv"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	bus                 services.NotificationBus
}

func NewNotificationHandler(notificationService *services.NotificationService, bus services.NotificationBus) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		bus:                 bus,
	}
}

// List returns paginated notifications
// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var req services.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.notificationService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// UnreadCount returns the number of unread notifications
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"unread_count": count})
}

type createNotificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

// Create publishes a notification onto the bus. The consumer persists it and
// fans it out, same as notifications produced by cron jobs.
// POST /api/notifications
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Type != "" && !models.ValidNotificationType(req.Type) {
		response.BadRequest(c, "type must be one of info, success, warning, error")
		return
	}

	err := h.bus.Publish(c.Request.Context(), &services.CreateNotification{
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Link:    req.Link,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The bus is fire-and-forget; the consumer persists asynchronously.
	response.Success(c, gin.H{"message": "notification queued"})
}

// MarkRead marks one notification as read
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notificationService.MarkRead(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "marked as read"})
}

// MarkAllRead marks every notification as read
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"updated": updated})
}

// Delete removes a notification
// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notificationService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "notification deleted"})
}
