package services

import (
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/gorm"
)

type TodoService struct {
	db *gorm.DB
}

func NewTodoService(db *gorm.DB) *TodoService {
	return &TodoService{db: db}
}

type TodoListRequest struct {
	Page      int    `form:"page" binding:"min=0"`
	PageSize  int    `form:"page_size" binding:"min=0,max=100"`
	Completed *bool  `form:"completed"`
	Overdue   bool   `form:"overdue"`
	Search    string `form:"search"`
}

type TodoListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Todo `json:"items"`
}

type CreateTodoRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTodoRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Link        *string    `json:"link"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted *bool      `json:"is_completed"`
}

func (s *TodoService) List(req *TodoListRequest) (*TodoListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var todos []models.Todo
	var total int64

	query := s.db.Model(&models.Todo{})

	if req.Completed != nil {
		query = query.Where("is_completed = ?", *req.Completed)
	}
	if req.Overdue {
		query = query.Where("is_completed = ? AND due_date IS NOT NULL AND due_date < ?", false, time.Now())
	}
	if req.Search != "" {
		query = query.Where("title LIKE ?", "%"+req.Search+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).
		Order("is_completed ASC, due_date IS NULL, due_date ASC, created_at DESC").
		Find(&todos).Error; err != nil {
		return nil, err
	}

	return &TodoListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    todos,
	}, nil
}

func (s *TodoService) GetByID(id uint) (*models.Todo, error) {
	var todo models.Todo
	if err := s.db.First(&todo, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("todo not found")
		}
		return nil, err
	}
	return &todo, nil
}

func (s *TodoService) Create(req *CreateTodoRequest) (*models.Todo, error) {
	todo := models.Todo{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		DueDate:     req.DueDate,
	}

	if err := s.db.Create(&todo).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *TodoService) Update(id uint, req *UpdateTodoRequest) (*models.Todo, error) {
	todo, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Link != nil {
		updates["link"] = *req.Link
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}
	if req.IsCompleted != nil {
		updates["is_completed"] = *req.IsCompleted
		if *req.IsCompleted {
			now := time.Now()
			updates["completed_at"] = &now
		} else {
			updates["completed_at"] = nil
		}
	}

	if err := s.db.Model(todo).Updates(updates).Error; err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoService) Delete(id uint) error {
	result := s.db.Delete(&models.Todo{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("todo not found")
	}
	return nil
}

// CleanupCompleted deletes todos that were completed more than retentionDays
// ago. Called from the weekly cleanup job.
func (s *TodoService) CleanupCompleted(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("is_completed = ? AND completed_at IS NOT NULL AND completed_at < ?", true, cutoff).
		Delete(&models.Todo{})
	return result.RowsAffected, result.Error
}

// DueForReminder returns incomplete todos that are due today or overdue.
func (s *TodoService) DueForReminder(now time.Time) ([]models.Todo, error) {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	var todos []models.Todo
	err := s.db.Where("is_completed = ? AND due_date IS NOT NULL AND due_date <= ?", false, endOfDay).
		Order("due_date ASC").
		Find(&todos).Error
	return todos, err
}
