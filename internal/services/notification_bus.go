package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ChannelNotificationCreate is the Redis pub/sub channel through which any
// producer (cron jobs, manual triggers, the API itself) asks the consumer to
// persist and fan out a notification.
const ChannelNotificationCreate = "notification:create"

// CreateNotification is the payload sent over the bus.
type CreateNotification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

// NotificationBus decouples notification producers from the consumer that
// persists and delivers them.
type NotificationBus interface {
	// Publish sends a create request to the consumer
	Publish(ctx context.Context, n *CreateNotification) error
	// IsAsync returns true if the bus crosses process boundaries (Redis)
	IsAsync() bool
	// Close shuts the bus down
	Close() error
}

// BusHandler is the consumer side: persist and fan out one notification.
type BusHandler func(ctx context.Context, n *CreateNotification) error

// Global bus instance
var (
	globalBus NotificationBus
	busOnce   sync.Once
)

// InitNotificationBus initializes the global bus. Redis-backed when enabled
// and reachable, otherwise an in-process synchronous bus.
func InitNotificationBus(cfg *config.Config) NotificationBus {
	busOnce.Do(func() {
		if cfg.Redis.Enabled {
			bus, err := NewRedisBus(&cfg.Redis)
			if err != nil {
				logger.Warn().Err(err).Msg("redis unavailable, notification bus falling back to sync mode")
				globalBus = NewSyncBus()
			} else {
				logger.Info().Str("addr", cfg.Redis.Addr).Msg("notification bus connected to redis")
				globalBus = bus
			}
		} else {
			logger.Info().Msg("notification bus in sync mode (redis disabled)")
			globalBus = NewSyncBus()
		}
	})
	return globalBus
}

// GetNotificationBus returns the global bus instance
func GetNotificationBus() NotificationBus {
	return globalBus
}

// RedisBus implements NotificationBus over a Redis pub/sub channel.
type RedisBus struct {
	client *redis.Client
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(cfg *config.RedisConfig) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisBus{client: client}, nil
}

// Publish sends the payload to the notification:create channel.
func (b *RedisBus) Publish(ctx context.Context, n *CreateNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, ChannelNotificationCreate, payload).Err()
}

// StartConsumer subscribes to the channel and feeds messages to the handler
// until Close is called.
func (b *RedisBus) StartConsumer(handler BusHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	sub := b.client.Subscribe(ctx, ChannelNotificationCreate)
	ch := sub.Channel()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer sub.Close()
		logger.Info().Str("channel", ChannelNotificationCreate).Msg("notification consumer started")

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var n CreateNotification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logger.Warn().Err(err).Msg("dropping malformed notification payload")
					continue
				}
				if err := handler(ctx, &n); err != nil {
					logger.Error().Err(err).Str("title", n.Title).Msg("failed to process notification")
				}
			}
		}
	}()
}

func (b *RedisBus) IsAsync() bool { return true }

func (b *RedisBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return b.client.Close()
}

// SyncBus dispatches create requests directly to the handler in-process.
type SyncBus struct {
	mu      sync.RWMutex
	handler BusHandler
}

func NewSyncBus() *SyncBus {
	return &SyncBus{}
}

// SetHandler wires the consumer. Publishes before this are dropped.
func (b *SyncBus) SetHandler(handler BusHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

func (b *SyncBus) Publish(ctx context.Context, n *CreateNotification) error {
	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()

	if handler == nil {
		logger.Warn().Str("title", n.Title).Msg("no notification handler set, dropping")
		return nil
	}
	// Keep producers non-blocking, as with the Redis bus.
	go func() {
		if err := handler(context.Background(), n); err != nil {
			logger.Error().Err(err).Str("title", n.Title).Msg("failed to process notification")
		}
	}()
	return nil
}

func (b *SyncBus) IsAsync() bool { return false }

func (b *SyncBus) Close() error { return nil }
