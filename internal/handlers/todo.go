package handlers

import (
	"strconv"

	"github.com/devboardhq/devboard/internal/services"
	"github.com/devboardhq/devboard/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TodoHandler struct {
	todoService *services.TodoService
}

func NewTodoHandler(db *gorm.DB) *TodoHandler {
	return &TodoHandler{
		todoService: services.NewTodoService(db),
	}
}

// List returns paginated todos
// GET /api/todos
func (h *TodoHandler) List(c *gin.Context) {
	var req services.TodoListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.todoService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns a todo by ID
// GET /api/todos/:id
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid todo id")
		return
	}

	todo, err := h.todoService.GetByID(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, todo)
}

// Create creates a new todo
// POST /api/todos
func (h *TodoHandler) Create(c *gin.Context) {
	var req services.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	todo, err := h.todoService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, todo)
}

// Update updates a todo, including completion state
// PUT /api/todos/:id
func (h *TodoHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid todo id")
		return
	}

	var req services.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	todo, err := h.todoService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, todo)
}

// Delete deletes a todo
// DELETE /api/todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid todo id")
		return
	}

	if err := h.todoService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "todo deleted successfully"})
}
