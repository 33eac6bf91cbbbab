package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database migrated with the report and
// manual run tables. Each test gets its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Application{},
		&models.E2EReportSummary{},
		&models.E2EReportDetail{},
		&models.E2EManualRun{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func assertConflict(t *testing.T, err error) {
	t.Helper()
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an application error, got %v", err)
	}
	if appErr.HTTPStatus != 409 {
		t.Errorf("expected status 409, got %d (%s)", appErr.HTTPStatus, appErr.Message)
	}
}

func TestSuccessRate(t *testing.T) {
	cases := []struct {
		passed, total int
		want          float64
	}{
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{7, 8, 87.5},
	}
	for _, c := range cases {
		if got := SuccessRate(c.passed, c.total); got != c.want {
			t.Errorf("SuccessRate(%d, %d) = %v, want %v", c.passed, c.total, got, c.want)
		}
	}
}

func TestBuildReportDetailCountsOnlyTerminalRuns(t *testing.T) {
	base := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	runs := []PipelineRun{
		{ID: "1", Status: "success", CreatedAt: base},
		{ID: "2", Status: "running", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "3", Status: "failed", CreatedAt: base.Add(1 * time.Hour)},
		{ID: "4", Status: "pending", CreatedAt: base.Add(4 * time.Hour)},
		{ID: "5", Status: "success", CreatedAt: base.Add(2 * time.Hour)},
	}

	detail := BuildReportDetail(10, 7, runs)

	if detail.ReportSummaryID != 10 || detail.AppID != 7 {
		t.Errorf("unexpected ids: summary=%d app=%d", detail.ReportSummaryID, detail.AppID)
	}
	if detail.TotalRuns != 3 {
		t.Errorf("TotalRuns = %d, want 3 (in-flight runs must not count)", detail.TotalRuns)
	}
	if detail.PassedRuns != 2 || detail.FailedRuns != 1 {
		t.Errorf("passed/failed = %d/%d, want 2/1", detail.PassedRuns, detail.FailedRuns)
	}
	if detail.SuccessRate != 66.67 {
		t.Errorf("SuccessRate = %v, want 66.67", detail.SuccessRate)
	}
	// Latest terminal run is #5, not the in-flight #2 and #4
	if detail.LastRunStatus != "success" {
		t.Errorf("LastRunStatus = %q, want success", detail.LastRunStatus)
	}
	if detail.LastRunAt == nil || !detail.LastRunAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("LastRunAt = %v, want %v", detail.LastRunAt, base.Add(2*time.Hour))
	}
}

func TestBuildReportDetailTracksLastFailure(t *testing.T) {
	base := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	finished := base.Add(90 * time.Minute)
	runs := []PipelineRun{
		{ID: "1", Status: "failed", CreatedAt: base, FinishedAt: &finished},
		{ID: "2", Status: "failed", CreatedAt: base.Add(10 * time.Minute)},
	}

	detail := BuildReportDetail(1, 1, runs)

	if detail.FailedRuns != 2 {
		t.Fatalf("FailedRuns = %d, want 2", detail.FailedRuns)
	}
	// Run #1 finished later than run #2 was created, so its finish time wins
	if detail.LastFailedRunAt == nil || !detail.LastFailedRunAt.Equal(finished) {
		t.Errorf("LastFailedRunAt = %v, want %v", detail.LastFailedRunAt, finished)
	}
}

func TestBuildReportDetailEmpty(t *testing.T) {
	detail := BuildReportDetail(1, 2, nil)
	if detail.TotalRuns != 0 || detail.SuccessRate != 0 {
		t.Errorf("empty runs produced totals: %+v", detail)
	}
	if detail.LastRunAt != nil || detail.LastFailedRunAt != nil {
		t.Errorf("empty runs produced timestamps: %+v", detail)
	}
	if detail.LastRunStatus != "" {
		t.Errorf("LastRunStatus = %q, want empty", detail.LastRunStatus)
	}
}

func TestGenerateBlocksWhilePending(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.E2EReportSummary{Date: "2026-08-29", Status: models.ReportStatusPending})

	svc := NewE2EReportService(db, NewAppService(db), NewPipelineClient(), nil)

	// force must not override a generation that is still running
	_, err := svc.Generate(context.Background(), "2026-08-29", true)
	assertConflict(t, err)
}

func TestGenerateConflictsWithoutForce(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.E2EReportSummary{Date: "2026-08-29", Status: models.ReportStatusReady, TotalRuns: 12})

	svc := NewE2EReportService(db, NewAppService(db), NewPipelineClient(), nil)

	_, err := svc.Generate(context.Background(), "2026-08-29", false)
	assertConflict(t, err)
}

func TestGenerateForceReplacesExisting(t *testing.T) {
	db := newTestDB(t)
	old := models.E2EReportSummary{Date: "2026-08-29", Status: models.ReportStatusReady, TotalRuns: 12}
	db.Create(&old)
	db.Create(&models.E2EReportDetail{ReportSummaryID: old.ID, AppID: 1, TotalRuns: 12})

	// No watching apps, so regeneration yields an empty but ready report.
	svc := NewE2EReportService(db, NewAppService(db), NewPipelineClient(), nil)

	summary, err := svc.Generate(context.Background(), "2026-08-29", true)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if summary.ID == old.ID {
		t.Error("force should replace the summary, not update it in place")
	}
	if summary.Status != models.ReportStatusReady {
		t.Errorf("Status = %q, expected %q", summary.Status, models.ReportStatusReady)
	}
	if summary.TotalRuns != 0 {
		t.Errorf("TotalRuns = %d, expected 0", summary.TotalRuns)
	}

	var details int64
	db.Model(&models.E2EReportDetail{}).Where("report_summary_id = ?", old.ID).Count(&details)
	if details != 0 {
		t.Errorf("old report details should be deleted, %d remain", details)
	}
}

func TestCreatePendingLosingDateRaceConflicts(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.E2EReportSummary{Date: "2026-08-29", Status: models.ReportStatusPending})

	svc := NewE2EReportService(db, NewAppService(db), NewPipelineClient(), nil)

	_, err := svc.createPending("2026-08-29")
	assertConflict(t, err)
}

func TestCreatePendingSurfacesDatabaseErrors(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrator().DropTable(&models.E2EReportSummary{}); err != nil {
		t.Fatalf("failed to drop table: %v", err)
	}

	svc := NewE2EReportService(db, NewAppService(db), NewPipelineClient(), nil)

	_, err := svc.createPending("2026-08-29")
	if err == nil {
		t.Fatal("expected an error")
	}
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		t.Errorf("database failure should not be reported as a conflict, got status %d", appErr.HTTPStatus)
	}
}
