package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/internal/utils"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SSEHandler streams notification events to connected dashboards
type SSEHandler struct {
	hub *services.SSEHub
}

func NewSSEHandler(hub *services.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// StreamNotifications handles SSE connections for notification updates.
// EventSource cannot set headers, so the session token may arrive as a
// query parameter instead.
// GET /api/events/notifications?token=...
func (h *SSEHandler) StreamNotifications(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	if _, err := utils.ParseToken(token); err != nil {
		response.Unauthorized(c, "Invalid token")
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Access-Control-Allow-Origin", "*")

	clientID := uuid.New().String()

	events := h.hub.Subscribe(clientID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Int("total", h.hub.ClientCount()).Msg("SSE client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("SSE marshal error")
				return true
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("SSE client disconnected")
			return false
		}
	})
}
