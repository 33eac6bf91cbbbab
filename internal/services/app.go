package services

import (
	"encoding/json"
	"errors"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/gorm"
)

type AppService struct {
	db *gorm.DB
}

func NewAppService(db *gorm.DB) *AppService {
	return &AppService{db: db}
}

type AppListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Name     string `form:"name"`
	Watching *bool  `form:"watching"`
}

type AppListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.Application `json:"items"`
}

type CreateAppRequest struct {
	Name                    string `json:"name" binding:"required"`
	Code                    string `json:"code" binding:"required"`
	PipelineURL             string `json:"pipeline_url"`
	E2ETriggerConfiguration string `json:"e2e_trigger_configuration"`
	Watching                bool   `json:"watching"`
}

type UpdateAppRequest struct {
	Name                    string  `json:"name"`
	PipelineURL             *string `json:"pipeline_url"`
	E2ETriggerConfiguration *string `json:"e2e_trigger_configuration"`
	Watching                *bool   `json:"watching"`
}

func (s *AppService) List(req *AppListRequest) (*AppListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var apps []models.Application
	var total int64

	query := s.db.Model(&models.Application{})

	if req.Name != "" {
		query = query.Where("name LIKE ? OR code LIKE ?", "%"+req.Name+"%", "%"+req.Name+"%")
	}
	if req.Watching != nil {
		query = query.Where("watching = ?", *req.Watching)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("name ASC").Find(&apps).Error; err != nil {
		return nil, err
	}

	return &AppListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    apps,
	}, nil
}

func (s *AppService) GetByID(id uint) (*models.Application, error) {
	var app models.Application
	if err := s.db.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("application not found")
		}
		return nil, err
	}
	return &app, nil
}

// Watching returns all apps flagged for the default dashboard views.
func (s *AppService) Watching() ([]models.Application, error) {
	var apps []models.Application
	if err := s.db.Where("watching = ?", true).Order("name ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *AppService) Create(req *CreateAppRequest) (*models.Application, error) {
	if err := validateTriggerConfig(req.E2ETriggerConfiguration); err != nil {
		return nil, response.NewBadRequest(err.Error())
	}

	var count int64
	s.db.Model(&models.Application{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("application code already exists")
	}

	app := models.Application{
		Name:                    req.Name,
		Code:                    req.Code,
		PipelineURL:             req.PipelineURL,
		E2ETriggerConfiguration: req.E2ETriggerConfiguration,
		Watching:                req.Watching,
	}

	if err := s.db.Create(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *AppService) Update(id uint, req *UpdateAppRequest) (*models.Application, error) {
	app, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.PipelineURL != nil {
		updates["pipeline_url"] = *req.PipelineURL
	}
	if req.E2ETriggerConfiguration != nil {
		if err := validateTriggerConfig(*req.E2ETriggerConfiguration); err != nil {
			return nil, response.NewBadRequest(err.Error())
		}
		updates["e2e_trigger_configuration"] = *req.E2ETriggerConfiguration
	}
	if req.Watching != nil {
		updates["watching"] = *req.Watching
	}

	if err := s.db.Model(app).Updates(updates).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// SetWatching flips the watching flag.
func (s *AppService) SetWatching(id uint, watching bool) (*models.Application, error) {
	app, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(app).Update("watching", watching).Error; err != nil {
		return nil, err
	}
	return app, nil
}

func (s *AppService) Delete(id uint) error {
	result := s.db.Delete(&models.Application{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("application not found")
	}
	return nil
}

// validateTriggerConfig checks that a non-empty trigger configuration is
// well-formed JSON with the fields the pipeline client needs.
func validateTriggerConfig(raw string) error {
	if raw == "" {
		return nil
	}
	var cfg models.TriggerConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return errors.New("e2e_trigger_configuration must be valid JSON")
	}
	if cfg.BaseURL == "" || cfg.ProjectID == "" {
		return errors.New("e2e_trigger_configuration requires base_url and project_id")
	}
	return nil
}
