package services

import (
	"context"
	"errors"
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ManualRunService triggers on-demand E2E pipeline runs and enforces the
// one-in-flight-run-per-app rule.
type ManualRunService struct {
	db       *gorm.DB
	pipeline *PipelineClient
	bus      NotificationBus
}

func NewManualRunService(db *gorm.DB, pipeline *PipelineClient, bus NotificationBus) *ManualRunService {
	return &ManualRunService{db: db, pipeline: pipeline, bus: bus}
}

// ManualRunView is a recorded manual run with its live pipeline status.
type ManualRunView struct {
	models.E2EManualRun
	Status      string `json:"status"`
	StatusError string `json:"status_error,omitempty"`
}

// Trigger starts a manual run for the app. It is rejected with a conflict
// while the app's most recent run is still in flight.
func (s *ManualRunService) Trigger(ctx context.Context, appID uint) (*models.E2EManualRun, error) {
	var app models.Application
	if err := s.db.First(&app, appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("application not found")
		}
		return nil, err
	}

	cfg, err := app.ParseTriggerConfig()
	if err != nil {
		return nil, response.NewBadRequest(err.Error())
	}

	inFlight, err := s.hasRunInFlight(ctx, appID, cfg)
	if err != nil {
		return nil, err
	}
	if inFlight {
		return nil, response.NewConflict("a manual run for " + app.Code + " is already in progress")
	}

	run, err := s.pipeline.Trigger(ctx, cfg)
	if err != nil {
		return nil, response.NewServerError("failed to trigger pipeline: " + err.Error())
	}

	record := models.E2EManualRun{
		AppID:      appID,
		PipelineID: run.ID,
		WebURL:     run.WebURL,
	}
	if record.PipelineID == "" {
		// Provider gave us nothing to poll; keep a correlation id so the
		// record is still unique and listable.
		record.PipelineID = "manual-" + uuid.NewString()
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	logger.Info().Str("app", app.Code).Str("pipeline_id", record.PipelineID).Msg("manual e2e run triggered")
	s.notifyTriggered(ctx, &app, &record)
	return &record, nil
}

// hasRunInFlight checks the latest recorded run against the provider.
// Runs older than a day are assumed finished even if the provider is
// unreachable, so a dead pipeline cannot block the app forever.
func (s *ManualRunService) hasRunInFlight(ctx context.Context, appID uint, cfg *models.TriggerConfig) (bool, error) {
	var last models.E2EManualRun
	err := s.db.Where("app_id = ?", appID).Order("created_at DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if time.Since(last.CreatedAt) > 24*time.Hour {
		return false, nil
	}

	run, err := s.pipeline.GetRun(ctx, cfg, last.PipelineID)
	if err != nil {
		logger.Warn().Err(err).Str("pipeline_id", last.PipelineID).Msg("could not check manual run status")
		// Unknown recent state blocks the trigger; better a spurious 409
		// than two concurrent runs.
		return true, nil
	}

	return !IsTerminalStatus(run.Status), nil
}

// List returns the most recent manual runs for an app with live status.
func (s *ManualRunService) List(ctx context.Context, appID uint, limit int) ([]ManualRunView, error) {
	var app models.Application
	if err := s.db.First(&app, appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("application not found")
		}
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var records []models.E2EManualRun
	if err := s.db.Where("app_id = ?", appID).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	cfg, cfgErr := app.ParseTriggerConfig()

	views := make([]ManualRunView, 0, len(records))
	for _, record := range records {
		view := ManualRunView{E2EManualRun: record}
		if cfgErr != nil {
			view.StatusError = cfgErr.Error()
		} else if run, err := s.pipeline.GetRun(ctx, cfg, record.PipelineID); err != nil {
			view.StatusError = err.Error()
		} else {
			view.Status = run.Status
		}
		views = append(views, view)
	}
	return views, nil
}

// CleanupStale deletes manual run records older than retentionDays.
func (s *ManualRunService) CleanupStale(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.E2EManualRun{})
	return result.RowsAffected, result.Error
}

func (s *ManualRunService) notifyTriggered(ctx context.Context, app *models.Application, record *models.E2EManualRun) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(ctx, &CreateNotification{
		Title:   "Manual E2E run started for " + app.Name,
		Message: "Pipeline " + record.PipelineID + " was triggered on demand.",
		Type:    models.NotificationTypeInfo,
		Link:    record.WebURL,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to publish manual run notification")
	}
}
