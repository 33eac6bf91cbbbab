package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeNotificationDeliver = "notification:deliver"
)

// DeliverTask carries the id of a persisted notification that still needs
// push delivery.
type DeliverTask struct {
	NotificationID uint `json:"notification_id"`
}

// DeliveryQueue hands persisted notifications to the push delivery worker.
type DeliveryQueue interface {
	// Enqueue schedules push delivery for a notification
	Enqueue(notificationID uint) error
	// IsAsync returns true if delivery runs in the asynq worker
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global delivery queue instance
var (
	globalDeliveryQueue DeliveryQueue
	deliveryQueueOnce   sync.Once
)

// InitDeliveryQueue initializes the global delivery queue based on config
func InitDeliveryQueue(cfg *config.Config) DeliveryQueue {
	deliveryQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncDeliveryQueue(&cfg.Redis)
			if err != nil {
				logger.Warn().Err(err).Msg("redis unavailable, push delivery falling back to sync mode")
				globalDeliveryQueue = NewSyncDeliveryQueue()
			} else {
				logger.Info().Str("addr", cfg.Redis.Addr).Msg("async push delivery queue initialized")
				globalDeliveryQueue = queue
			}
		} else {
			logger.Info().Msg("sync push delivery queue initialized (redis disabled)")
			globalDeliveryQueue = NewSyncDeliveryQueue()
		}
	})
	return globalDeliveryQueue
}

// GetDeliveryQueue returns the global delivery queue instance
func GetDeliveryQueue() DeliveryQueue {
	return globalDeliveryQueue
}

// AsyncDeliveryQueue implements DeliveryQueue using asynq (Redis-based)
type AsyncDeliveryQueue struct {
	client *asynq.Client
}

// NewAsyncDeliveryQueue creates a new Redis-based delivery queue
func NewAsyncDeliveryQueue(cfg *config.RedisConfig) (*AsyncDeliveryQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before accepting work
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncDeliveryQueue{client: client}, nil
}

// Enqueue schedules a delivery task with retries.
func (q *AsyncDeliveryQueue) Enqueue(notificationID uint) error {
	payload, err := json.Marshal(&DeliverTask{NotificationID: notificationID})
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotificationDeliver, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Uint("notification_id", notificationID).Msg("delivery task enqueued")
	return nil
}

func (q *AsyncDeliveryQueue) IsAsync() bool { return true }

func (q *AsyncDeliveryQueue) Close() error { return q.client.Close() }

// SyncDeliveryQueue runs delivery immediately in-process (no Redis)
type SyncDeliveryQueue struct {
	processor func(context.Context, uint) error
}

func NewSyncDeliveryQueue() *SyncDeliveryQueue {
	return &SyncDeliveryQueue{}
}

// SetProcessor sets the function that performs the actual push delivery
func (q *SyncDeliveryQueue) SetProcessor(processor func(context.Context, uint) error) {
	q.processor = processor
}

// Enqueue delivers immediately in a goroutine so producers never block.
func (q *SyncDeliveryQueue) Enqueue(notificationID uint) error {
	if q.processor == nil {
		logger.Warn().Msg("no delivery processor set, dropping push")
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), notificationID); err != nil {
			logger.Warn().Err(err).Uint("notification_id", notificationID).Msg("push delivery failed")
		}
	}()
	return nil
}

func (q *SyncDeliveryQueue) IsAsync() bool { return false }

func (q *SyncDeliveryQueue) Close() error { return nil }
