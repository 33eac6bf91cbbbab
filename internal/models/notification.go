package models

import (
	"time"
)

// Notification severity levels.
const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeWarning = "warning"
	NotificationTypeError   = "error"
)

// Notification is an in-app notification shown on the dashboard.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Type      string    `gorm:"size:20;default:info;index" json:"type"`
	Link      string    `gorm:"size:500" json:"link"`
	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }

// ValidNotificationType reports whether t is one of the known severities.
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeInfo, NotificationTypeSuccess, NotificationTypeWarning, NotificationTypeError:
		return true
	}
	return false
}

// PushSubscription stores a browser push subscription registered by the
// client's service worker.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Endpoint  string    `gorm:"uniqueIndex:,length:255;size:500;not null" json:"endpoint"`
	P256DH    string    `gorm:"size:255;not null" json:"p256dh"`
	Auth      string    `gorm:"size:255;not null" json:"auth"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func (PushSubscription) TableName() string { return "push_subscriptions" }
