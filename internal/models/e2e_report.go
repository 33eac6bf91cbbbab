package models

import (
	"time"
)

// Report summary lifecycle states.
const (
	ReportStatusPending = "pending"
	ReportStatusReady   = "ready"
	ReportStatusFailed  = "failed"
)

// E2EReportSummary aggregates one day of E2E runs across all watched
// applications. There is at most one summary per calendar date.
type E2EReportSummary struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Date        string            `gorm:"uniqueIndex;size:10;not null" json:"date"` // YYYY-MM-DD
	Status      string            `gorm:"size:20;default:pending;index" json:"status"`
	TotalRuns   int               `json:"total_runs"`
	PassedRuns  int               `json:"passed_runs"`
	FailedRuns  int               `json:"failed_runs"`
	SuccessRate float64           `json:"success_rate"`
	Details     []E2EReportDetail `gorm:"foreignKey:ReportSummaryID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (E2EReportSummary) TableName() string { return "e2e_report_summaries" }

// E2EReportDetail holds per-application statistics within a summary.
type E2EReportDetail struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ReportSummaryID uint         `gorm:"not null;uniqueIndex:idx_detail_summary_app" json:"report_summary_id"`
	AppID           uint         `gorm:"not null;uniqueIndex:idx_detail_summary_app" json:"app_id"`
	App             *Application `gorm:"foreignKey:AppID" json:"app,omitempty"`
	TotalRuns       int          `json:"total_runs"`
	PassedRuns      int          `json:"passed_runs"`
	FailedRuns      int          `json:"failed_runs"`
	SuccessRate     float64      `json:"success_rate"`
	LastRunStatus   string       `gorm:"size:50" json:"last_run_status"`
	LastRunAt       *time.Time   `json:"last_run_at"`
	LastFailedRunAt *time.Time   `json:"last_failed_run_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (E2EReportDetail) TableName() string { return "e2e_report_details" }

// E2EManualRun records an on-demand pipeline trigger for an application.
// The latest row per app is used to detect runs that are still in flight.
type E2EManualRun struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AppID      uint      `gorm:"not null;index" json:"app_id"`
	PipelineID string    `gorm:"size:100;not null" json:"pipeline_id"`
	WebURL     string    `gorm:"size:500" json:"web_url"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (E2EManualRun) TableName() string { return "e2e_manual_runs" }
