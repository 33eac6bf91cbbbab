package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Application represents a tracked application / service whose CI pipeline
// and E2E runs show up on the dashboard.
type Application struct {
	ID                      uint           `gorm:"primaryKey" json:"id"`
	Name                    string         `gorm:"size:200;not null" json:"name"`
	Code                    string         `gorm:"uniqueIndex;size:100;not null" json:"code"`
	PipelineURL             string         `gorm:"size:500" json:"pipeline_url"`
	E2ETriggerConfiguration string         `gorm:"type:text" json:"e2e_trigger_configuration"`
	Watching                bool           `gorm:"default:false;index" json:"watching"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Application) TableName() string { return "applications" }

// TriggerConfig is the parsed form of E2ETriggerConfiguration.
type TriggerConfig struct {
	Provider  string `json:"provider"`   // gitlab, generic
	ProjectID string `json:"project_id"` // provider project identifier
	BaseURL   string `json:"base_url"`
	Token     string `json:"token"`
	Ref       string `json:"ref"`
}

// ParseTriggerConfig parses the stored JSON trigger configuration.
// An empty configuration is an error: the app cannot be triggered.
func (a *Application) ParseTriggerConfig() (*TriggerConfig, error) {
	if a.E2ETriggerConfiguration == "" {
		return nil, fmt.Errorf("application %s has no trigger configuration", a.Code)
	}
	var cfg TriggerConfig
	if err := json.Unmarshal([]byte(a.E2ETriggerConfiguration), &cfg); err != nil {
		return nil, fmt.Errorf("invalid trigger configuration for %s: %w", a.Code, err)
	}
	if cfg.BaseURL == "" || cfg.ProjectID == "" {
		return nil, fmt.Errorf("trigger configuration for %s is missing base_url or project_id", a.Code)
	}
	if cfg.Ref == "" {
		cfg.Ref = "main"
	}
	return &cfg, nil
}
