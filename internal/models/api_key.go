package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey is a named API credential. Only the bcrypt hash is stored; the
// plaintext is shown once at creation time.
type APIKey struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	KeyHash    string         `gorm:"size:255;not null" json:"-"`
	LastUsedAt *time.Time     `json:"last_used_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (APIKey) TableName() string { return "api_keys" }
