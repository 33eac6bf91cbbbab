package handlers

import (
	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(dataDir string) *FileHandler {
	return &FileHandler{
		fileService: services.NewFileService(dataDir),
	}
}

// List returns the entries of a directory inside the data dir
// GET /api/files?path=reports
func (h *FileHandler) List(c *gin.Context) {
	entries, err := h.fileService.List(c.Query("path"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}

// Content returns a text file's contents
// GET /api/files/content?path=reports/latest.txt
func (h *FileHandler) Content(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		response.BadRequest(c, "path is required")
		return
	}

	content, err := h.fileService.Content(path)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, content)
}
