package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/gorm"
)

// E2EReportService computes the daily E2E report: per-app run statistics
// rolled up into a single summary per calendar date.
type E2EReportService struct {
	db       *gorm.DB
	apps     *AppService
	pipeline *PipelineClient
	bus      NotificationBus
}

func NewE2EReportService(db *gorm.DB, apps *AppService, pipeline *PipelineClient, bus NotificationBus) *E2EReportService {
	return &E2EReportService{db: db, apps: apps, pipeline: pipeline, bus: bus}
}

// GetByDate returns the summary and its details for a date (YYYY-MM-DD).
func (s *E2EReportService) GetByDate(date string) (*models.E2EReportSummary, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, response.NewBadRequest("date must be YYYY-MM-DD")
	}

	var summary models.E2EReportSummary
	err := s.db.Preload("Details").Preload("Details.App").
		Where("date = ?", date).First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("no report for " + date)
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Latest returns the most recent ready report.
func (s *E2EReportService) Latest() (*models.E2EReportSummary, error) {
	var summary models.E2EReportSummary
	err := s.db.Preload("Details").Preload("Details.App").
		Where("status = ?", models.ReportStatusReady).
		Order("date DESC").First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("no report available yet")
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Generate builds the report for a date. A report that already exists is only
// replaced when force is set; a pending report blocks concurrent generation.
func (s *E2EReportService) Generate(ctx context.Context, date string, force bool) (*models.E2EReportSummary, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, response.NewBadRequest("date must be YYYY-MM-DD")
	}

	var existing models.E2EReportSummary
	err = s.db.Where("date = ?", date).First(&existing).Error
	switch {
	case err == nil && existing.Status == models.ReportStatusPending:
		return nil, response.NewConflict("report generation for " + date + " is already in progress")
	case err == nil && !force:
		return nil, response.NewConflict("report for " + date + " already exists")
	case err == nil:
		// force: drop the summary and its details before regenerating
		if err := s.deleteSummary(existing.ID); err != nil {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	summary, err := s.createPending(date)
	if err != nil {
		return nil, err
	}

	apps, err := s.apps.Watching()
	if err != nil {
		s.markFailed(summary)
		return nil, err
	}

	for _, app := range apps {
		cfg, cfgErr := app.ParseTriggerConfig()
		if cfgErr != nil {
			// Watched app without a usable configuration does not fail the
			// whole report; it simply has no runs.
			logger.Warn().Err(cfgErr).Str("app", app.Code).Msg("skipping app in e2e report")
			continue
		}

		runs, runErr := s.pipeline.ListRuns(ctx, cfg, day)
		if runErr != nil {
			logger.Error().Err(runErr).Str("app", app.Code).Str("date", date).Msg("e2e report generation failed")
			s.markFailed(summary)
			return nil, fmt.Errorf("failed to fetch runs for %s: %w", app.Code, runErr)
		}

		detail := BuildReportDetail(summary.ID, app.ID, runs)
		if err := s.db.Create(&detail).Error; err != nil {
			s.markFailed(summary)
			return nil, err
		}

		summary.TotalRuns += detail.TotalRuns
		summary.PassedRuns += detail.PassedRuns
		summary.FailedRuns += detail.FailedRuns
	}

	summary.SuccessRate = SuccessRate(summary.PassedRuns, summary.TotalRuns)
	summary.Status = models.ReportStatusReady
	if err := s.db.Save(summary).Error; err != nil {
		return nil, err
	}

	s.notifyReady(ctx, summary)
	return s.GetByDate(date)
}

// createPending inserts the pending summary row that claims the date. Losing
// the unique-date race to a concurrent generator is a conflict; any other
// database failure is passed through untouched.
func (s *E2EReportService) createPending(date string) (*models.E2EReportSummary, error) {
	summary := models.E2EReportSummary{Date: date, Status: models.ReportStatusPending}
	if err := s.db.Create(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("report generation for " + date + " is already in progress")
		}
		return nil, err
	}
	return &summary, nil
}

func (s *E2EReportService) deleteSummary(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_summary_id = ?", id).Delete(&models.E2EReportDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.E2EReportSummary{}, id).Error
	})
}

func (s *E2EReportService) markFailed(summary *models.E2EReportSummary) {
	summary.Status = models.ReportStatusFailed
	if err := s.db.Save(summary).Error; err != nil {
		logger.Error().Err(err).Str("date", summary.Date).Msg("failed to mark report as failed")
	}
}

func (s *E2EReportService) notifyReady(ctx context.Context, summary *models.E2EReportSummary) {
	if s.bus == nil {
		return
	}
	notifType := models.NotificationTypeSuccess
	if summary.FailedRuns > 0 {
		notifType = models.NotificationTypeWarning
	}
	err := s.bus.Publish(ctx, &CreateNotification{
		Title: "E2E report ready for " + summary.Date,
		Message: fmt.Sprintf("%d runs, %d passed, %d failed (%.2f%% success)",
			summary.TotalRuns, summary.PassedRuns, summary.FailedRuns, summary.SuccessRate),
		Type: notifType,
		Link: "/e2e?date=" + summary.Date,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to publish report notification")
	}
}

// BuildReportDetail aggregates one app's pipeline runs into a report detail row.
func BuildReportDetail(summaryID, appID uint, runs []PipelineRun) models.E2EReportDetail {
	detail := models.E2EReportDetail{
		ReportSummaryID: summaryID,
		AppID:           appID,
	}

	var lastRun *PipelineRun
	for i := range runs {
		run := &runs[i]
		if !IsTerminalStatus(run.Status) {
			continue
		}
		detail.TotalRuns++
		if run.Passed() {
			detail.PassedRuns++
		} else if run.Failed() {
			detail.FailedRuns++
			at := run.CreatedAt
			if run.FinishedAt != nil {
				at = *run.FinishedAt
			}
			if detail.LastFailedRunAt == nil || at.After(*detail.LastFailedRunAt) {
				t := at
				detail.LastFailedRunAt = &t
			}
		}
		if lastRun == nil || run.CreatedAt.After(lastRun.CreatedAt) {
			lastRun = run
		}
	}

	if lastRun != nil {
		detail.LastRunStatus = lastRun.Status
		t := lastRun.CreatedAt
		detail.LastRunAt = &t
	}

	detail.SuccessRate = SuccessRate(detail.PassedRuns, detail.TotalRuns)
	return detail
}

// SuccessRate returns passed/total as a percentage rounded to two decimals.
// Zero total yields zero.
func SuccessRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(passed)/float64(total)*10000) / 100
}
