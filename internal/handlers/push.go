package handlers

import (
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	pushService *services.PushService
}

func NewPushHandler(pushService *services.PushService) *PushHandler {
	return &PushHandler{pushService: pushService}
}

// VAPIDPublicKey returns the public key the browser needs to subscribe.
// Empty when push delivery is not configured.
// GET /api/push/vapid-public-key
func (h *PushHandler) VAPIDPublicKey(c *gin.Context) {
	response.Success(c, gin.H{"public_key": h.pushService.VAPIDPublicKey()})
}

// Subscribe registers a browser push subscription
// POST /api/push/subscriptions
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req services.RegisterSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.pushService.Register(&req, c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// Unsubscribe removes a push subscription by endpoint
// DELETE /api/push/subscriptions
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.pushService.Unregister(req.Endpoint); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "subscription removed"})
}
