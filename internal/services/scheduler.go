package services

import (
	"context"
	"fmt"
	"time"

	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SchedulerService owns the cron jobs: daily E2E report generation, todo
// reminders and cleanup, pull request staleness scans, and retention sweeps.
type SchedulerService struct {
	db           *gorm.DB
	cfg          *config.CronConfig
	reports      *E2EReportService
	todos        *TodoService
	pullRequests *PullRequestService
	manualRuns   *ManualRunService
	notifier     *NotificationService
	systemLogs   *SystemLogService
	holidays     *HolidayService
	bus          NotificationBus
	cron         *cron.Cron
}

func NewSchedulerService(
	db *gorm.DB,
	cfg *config.CronConfig,
	reports *E2EReportService,
	todos *TodoService,
	pullRequests *PullRequestService,
	manualRuns *ManualRunService,
	notifier *NotificationService,
	systemLogs *SystemLogService,
	bus NotificationBus,
) *SchedulerService {
	return &SchedulerService{
		db:           db,
		cfg:          cfg,
		reports:      reports,
		todos:        todos,
		pullRequests: pullRequests,
		manualRuns:   manualRuns,
		notifier:     notifier,
		systemLogs:   systemLogs,
		holidays:     NewHolidayService(),
		bus:          bus,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *SchedulerService) Start() error {
	s.cron = cron.New()

	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"e2e_report", s.cfg.E2EReport, s.runDailyReport},
		{"todo_reminder", s.cfg.TodoReminder, s.runTodoReminder},
		{"todo_cleanup", s.cfg.TodoCleanup, s.runTodoCleanup},
		{"pull_request_scan", s.cfg.PullRequestScan, s.runPullRequestScan},
		{"retention_sweep", s.cfg.RetentionSweep, s.runRetentionSweep},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("invalid cron spec for %s: %w", job.name, err)
		}
		logger.Info().Str("job", job.name).Str("spec", job.spec).Msg("scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron runner, waiting for running jobs.
func (s *SchedulerService) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// runDailyReport generates yesterday's E2E report. An existing report is left
// alone: a previous manual generation wins.
func (s *SchedulerService) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	date := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if _, err := s.reports.Generate(ctx, date, false); err != nil {
		logger.Warn().Err(err).Str("date", date).Msg("scheduled e2e report generation")
		LogWarning("Scheduler", "E2EReport", err.Error(), "cron", "", "", nil)
		return
	}
	LogInfo("Scheduler", "E2EReport", "generated e2e report for "+date, "cron", "", "", nil)
}

// runTodoReminder publishes one digest notification for todos due today or
// overdue. Quiet on weekends and holidays.
func (s *SchedulerService) runTodoReminder() {
	now := time.Now()
	country := ConfigString(s.db, "holiday_country", "US")
	if !s.holidays.IsWorkday(now, country) {
		return
	}

	todos, err := s.todos.DueForReminder(now)
	if err != nil {
		logger.Warn().Err(err).Msg("todo reminder query failed")
		return
	}
	if len(todos) == 0 {
		return
	}

	overdue := 0
	for i := range todos {
		if todos[i].IsOverdue(now) && !todos[i].IsDueOn(now) {
			overdue++
		}
	}

	notifType := models.NotificationTypeInfo
	if overdue > 0 {
		notifType = models.NotificationTypeWarning
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = s.bus.Publish(ctx, &CreateNotification{
		Title:   fmt.Sprintf("%d todo(s) need attention", len(todos)),
		Message: fmt.Sprintf("%d due today or earlier, %d overdue from previous days.", len(todos), overdue),
		Type:    notifType,
		Link:    "/todos?overdue=true",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to publish todo reminder")
	}
}

func (s *SchedulerService) runTodoCleanup() {
	days := ConfigInt(s.db, "todo_cleanup_days", 14)
	deleted, err := s.todos.CleanupCompleted(days)
	if err != nil {
		logger.Warn().Err(err).Msg("todo cleanup failed")
		return
	}
	if deleted > 0 {
		LogInfo("Scheduler", "TodoCleanup", fmt.Sprintf("deleted %d completed todos", deleted), "cron", "", "", nil)
	}
}

// runPullRequestScan prunes closed/merged PRs and notifies about stale ones.
func (s *SchedulerService) runPullRequestScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	staleDays := ConfigInt(s.db, "pr_stale_days", 3)
	result, err := s.pullRequests.ScanStale(ctx, staleDays)
	if err != nil {
		logger.Warn().Err(err).Msg("pull request scan failed")
		return
	}

	if result.Pruned > 0 {
		LogInfo("Scheduler", "PullRequestScan", fmt.Sprintf("pruned %d closed pull requests", result.Pruned), "cron", "", "", nil)
	}
	if len(result.Stale) == 0 {
		return
	}

	err = s.bus.Publish(ctx, &CreateNotification{
		Title:   fmt.Sprintf("%d pull request(s) open for more than %d days", len(result.Stale), staleDays),
		Message: staleSummary(result.Stale),
		Type:    models.NotificationTypeWarning,
		Link:    "/pull-requests",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to publish stale pr notification")
	}
}

func staleSummary(stale []PullRequestView) string {
	const max = 5
	msg := ""
	for i, pr := range stale {
		if i == max {
			msg += fmt.Sprintf("… and %d more", len(stale)-max)
			break
		}
		title := ""
		if pr.Detail != nil {
			title = ": " + pr.Detail.Title
		}
		msg += fmt.Sprintf("%s#%d%s\n", pr.Repository, pr.PullRequestNumber, title)
	}
	return msg
}

// runRetentionSweep purges old system logs, notifications and manual runs.
func (s *SchedulerService) runRetentionSweep() {
	if _, err := s.systemLogs.Cleanup(); err != nil {
		logger.Warn().Err(err).Msg("system log sweep failed")
	}

	days := ConfigInt(s.db, "notification_retention_days", 60)
	if deleted, err := s.notifier.CleanupOld(days); err != nil {
		logger.Warn().Err(err).Msg("notification sweep failed")
	} else if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("purged old notifications")
	}

	runDays := ConfigInt(s.db, "manual_run_retention_days", 7)
	if deleted, err := s.manualRuns.CleanupStale(runDays); err != nil {
		logger.Warn().Err(err).Msg("manual run sweep failed")
	} else if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("purged old manual run records")
	}
}
