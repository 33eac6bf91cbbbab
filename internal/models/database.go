package models

import (
	"fmt"

	"github.com/devboardhq/devboard/internal/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&Todo{},
		&Application{},
		&PullRequest{},
		&E2EReportSummary{},
		&E2EReportDetail{},
		&E2EManualRun{},
		&Notification{},
		&PushSubscription{},
		&APIKey{},
		&SystemConfig{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default config rows and hashes API keys from the
// config file into the api_keys table if they are not present yet.
func SeedDefaultData(apiKeys []config.APIKeySeed) error {
	defaultConfigs := []SystemConfig{
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
		{Key: "notification_retention_days", Value: "60", Type: "int", Group: "notifications", Label: "Notification Retention Days"},
		{Key: "todo_cleanup_days", Value: "14", Type: "int", Group: "todos", Label: "Completed Todo Retention Days"},
		{Key: "manual_run_retention_days", Value: "7", Type: "int", Group: "e2e", Label: "Manual Run Record Retention Days"},
		{Key: "pr_stale_days", Value: "3", Type: "int", Group: "pull_requests", Label: "Days Before an Open PR Is Flagged Stale"},
		{Key: "holiday_country", Value: "US", Type: "string", Group: "system", Label: "Country Code for Business-Day Checks"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("`key` = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	for _, seed := range apiKeys {
		var count int64
		DB.Model(&APIKey{}).Where("name = ?", seed.Name).Count(&count)
		if count > 0 {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Key), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash api key %q: %w", seed.Name, err)
		}
		key := APIKey{Name: seed.Name, KeyHash: string(hash)}
		if err := DB.Create(&key).Error; err != nil {
			return err
		}
	}

	return nil
}
