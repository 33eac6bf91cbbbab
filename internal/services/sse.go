package services

import (
	"sync"

	"github.com/devboardhq/devboard/internal/models"
)

// NotificationEvent is pushed to SSE subscribers whenever the unread state
// changes: a new notification arrived or rows were marked read.
type NotificationEvent struct {
	UnreadCount  int64                `json:"unread_count"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// SSEHub manages SSE client connections and event broadcasting
type SSEHub struct {
	clients map[string]chan NotificationEvent
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub instance
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan NotificationEvent),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *SSEHub) Subscribe(clientID string) <-chan NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffered channel to prevent blocking
	ch := make(chan NotificationEvent, 100)
	h.clients[clientID] = ch
	return ch
}

// Unsubscribe removes a client from the hub
func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event to all connected clients
func (h *SSEHub) Publish(event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		// Non-blocking send - drop event if client buffer is full
		select {
		case ch <- event:
		default:
			// Client is slow, skip this event
		}
	}
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Global SSE Hub instance
var globalSSEHub *SSEHub
var sseHubOnce sync.Once

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
