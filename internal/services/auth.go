package services

import (
	"errors"

	"github.com/devboardhq/devboard/internal/models"
	"github.com/devboardhq/devboard/internal/utils"
	"github.com/devboardhq/devboard/pkg/response"
	"gorm.io/gorm"
)

// AuthService manages API keys and the key-for-token exchange.
type AuthService struct {
	db            *gorm.DB
	tokenTTLHours int
}

func NewAuthService(db *gorm.DB, tokenTTLHours int) *AuthService {
	return &AuthService{db: db, tokenTTLHours: tokenTTLHours}
}

type TokenResponse struct {
	Token   string `json:"token"`
	KeyName string `json:"key_name"`
}

// ExchangeToken validates a plaintext API key and issues a session token.
func (s *AuthService) ExchangeToken(apiKey string) (*TokenResponse, error) {
	if apiKey == "" {
		return nil, response.NewBadRequest("api key is required")
	}

	var keys []models.APIKey
	if err := s.db.Find(&keys).Error; err != nil {
		return nil, err
	}

	for i := range keys {
		if utils.CheckAPIKey(apiKey, keys[i].KeyHash) {
			token, err := utils.GenerateToken(keys[i].Name, s.tokenTTLHours)
			if err != nil {
				return nil, err
			}
			return &TokenResponse{Token: token, KeyName: keys[i].Name}, nil
		}
	}
	return nil, response.NewUnauthorized("invalid api key")
}

type CreateKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreatedKey struct {
	models.APIKey
	// Plaintext is returned exactly once at creation time.
	Plaintext string `json:"plaintext"`
}

// ListKeys returns all API keys (hashes excluded by the model's JSON tags).
func (s *AuthService) ListKeys() ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := s.db.Order("created_at ASC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateKey generates a new named key and returns the plaintext once.
func (s *AuthService) CreateKey(req *CreateKeyRequest) (*CreatedKey, error) {
	var count int64
	s.db.Model(&models.APIKey{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("an api key with this name already exists")
	}

	plaintext, err := utils.NewAPIKey()
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashAPIKey(plaintext)
	if err != nil {
		return nil, err
	}

	key := models.APIKey{Name: req.Name, KeyHash: hash}
	if err := s.db.Create(&key).Error; err != nil {
		return nil, err
	}

	return &CreatedKey{APIKey: key, Plaintext: plaintext}, nil
}

// RevokeKey deletes a key. The last remaining key cannot be revoked, which
// would lock every client out.
func (s *AuthService) RevokeKey(id uint) error {
	var total int64
	s.db.Model(&models.APIKey{}).Count(&total)
	if total <= 1 {
		return response.NewBadRequest("cannot revoke the last api key")
	}

	result := s.db.Delete(&models.APIKey{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("api key not found")
	}
	return nil
}

// ErrNoKeys is returned by RequireSeedKeys when the table is empty.
var ErrNoKeys = errors.New("no api keys configured")

// RequireSeedKeys verifies at least one key exists after seeding.
func (s *AuthService) RequireSeedKeys() error {
	var count int64
	if err := s.db.Model(&models.APIKey{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNoKeys
	}
	return nil
}
