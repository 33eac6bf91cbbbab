package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/hibiken/asynq"
)

// DeliveryWorker processes push delivery tasks from the asynq queue.
type DeliveryWorker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, uint) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewDeliveryWorker creates a new worker instance
func NewDeliveryWorker(cfg *config.RedisConfig) *DeliveryWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warn().Err(err).Str("task", task.Type()).Msg("delivery task failed")
			}),
		},
	)

	return &DeliveryWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function that performs the actual push delivery
func (w *DeliveryWorker) SetProcessor(processor func(context.Context, uint) error) {
	w.processor = processor
}

// Start begins processing tasks
func (w *DeliveryWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeNotificationDeliver, w.handleDeliverTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Info().Msg("push delivery worker started")
		if err := w.server.Run(w.mux); err != nil {
			logger.Error().Err(err).Msg("delivery worker stopped")
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *DeliveryWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Info().Msg("push delivery worker shut down")
}

func (w *DeliveryWorker) handleDeliverTask(ctx context.Context, t *asynq.Task) error {
	var task DeliverTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Warn().Err(err).Msg("malformed delivery task payload")
		return err
	}

	if w.processor == nil {
		logger.Warn().Msg("no delivery processor set")
		return nil
	}

	return w.processor(ctx, task.NotificationID)
}

// Global worker instance
var (
	globalDeliveryWorker *DeliveryWorker
	deliveryWorkerOnce   sync.Once
)

// InitDeliveryWorker initializes the global worker
func InitDeliveryWorker(cfg *config.RedisConfig) *DeliveryWorker {
	deliveryWorkerOnce.Do(func() {
		globalDeliveryWorker = NewDeliveryWorker(cfg)
	})
	return globalDeliveryWorker
}
