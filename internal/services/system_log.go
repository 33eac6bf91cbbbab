package services

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/logger"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

func LogInfo(module, action, message, keyName, ip, userAgent string, extra interface{}) {
	writeLog("info", module, action, message, keyName, ip, userAgent, extra)
}

func LogWarning(module, action, message, keyName, ip, userAgent string, extra interface{}) {
	writeLog("warning", module, action, message, keyName, ip, userAgent, extra)
}

func LogError(module, action, message, keyName, ip, userAgent string, extra interface{}) {
	writeLog("error", module, action, message, keyName, ip, userAgent, extra)
}

func writeLog(level, module, action, message, keyName, ip, userAgent string, extra interface{}) {
	if globalDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		KeyName:   keyName,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	globalDB.Create(entry)
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"min=0"`
	PageSize  int    `form:"page_size" binding:"min=0,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// Modules returns the distinct module names present in the log table.
func (s *SystemLogService) Modules() ([]string, error) {
	var modules []string
	if err := s.db.Model(&models.SystemLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// RetentionDays reads the configured log retention from system_configs.
func (s *SystemLogService) RetentionDays() int {
	return ConfigInt(s.db, "log_retention_days", 30)
}

// SetRetentionDays updates the configured log retention.
func (s *SystemLogService) SetRetentionDays(days int) error {
	return s.db.Model(&models.SystemConfig{}).
		Where("`key` = ?", "log_retention_days").
		Update("value", strconv.Itoa(days)).Error
}

// Cleanup deletes log rows older than the retention window and returns the
// number of deleted rows.
func (s *SystemLogService) Cleanup() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays())
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info().Int64("deleted", result.RowsAffected).Msg("system log cleanup")
	}
	return result.RowsAffected, nil
}

// ConfigInt reads an integer value from system_configs with a fallback.
func ConfigInt(db *gorm.DB, key string, fallback int) int {
	var cfg models.SystemConfig
	if err := db.Where("`key` = ?", key).First(&cfg).Error; err != nil {
		return fallback
	}
	n, err := strconv.Atoi(cfg.Value)
	if err != nil {
		return fallback
	}
	return n
}

// ConfigString reads a string value from system_configs with a fallback.
func ConfigString(db *gorm.DB, key, fallback string) string {
	var cfg models.SystemConfig
	if err := db.Where("`key` = ?", key).First(&cfg).Error; err != nil {
		return fallback
	}
	return cfg.Value
}
