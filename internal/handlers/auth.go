package handlers

import (
	"strconv"

	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, tokenTTLHours int) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, tokenTTLHours),
	}
}

type tokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// Token exchanges an API key for a short-lived session token. This is the
// only authenticated surface reachable without credentials.
// POST /api/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.ExchangeToken(req.APIKey)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// ListKeys returns all API keys without their hashes
// GET /api/auth/keys
func (h *AuthHandler) ListKeys(c *gin.Context) {
	keys, err := h.authService.ListKeys()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, keys)
}

// CreateKey mints a new API key. The plaintext is returned once and never
// stored.
// POST /api/auth/keys
func (h *AuthHandler) CreateKey(c *gin.Context) {
	var req services.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key, err := h.authService.CreateKey(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, key)
}

// RevokeKey deletes an API key. The last remaining key cannot be revoked.
// DELETE /api/auth/keys/:id
func (h *AuthHandler) RevokeKey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid key id")
		return
	}

	if err := h.authService.RevokeKey(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "key revoked"})
}
