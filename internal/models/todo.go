package models

import (
	"time"

	"gorm.io/gorm"
)

// Todo represents a single task on the dashboard task list
type Todo struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Link        string         `gorm:"size:500" json:"link"`
	DueDate     *time.Time     `gorm:"index" json:"due_date"`
	IsCompleted bool           `gorm:"default:false;index" json:"is_completed"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Todo) TableName() string { return "todos" }

// IsOverdue reports whether the todo has a due date in the past and is not done.
func (t *Todo) IsOverdue(now time.Time) bool {
	return !t.IsCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

// IsDueOn reports whether the todo is due on the given calendar day.
func (t *Todo) IsDueOn(day time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	y1, m1, d1 := t.DueDate.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
