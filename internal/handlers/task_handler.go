package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/services"
)

// TaskHandler handles task listing, claims and the admin task surface.
type TaskHandler struct {
	taskService services.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// GetTasks handles GET /api/v1/tasks
func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.taskService.GetAvailableTasks(c.Request.Context(), callerWallet(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CompleteTask handles POST /api/v1/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	result, err := h.taskService.CompleteTask(c.Request.Context(), callerWallet(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAllTasks handles GET /api/v1/admin/tasks
func (h *TaskHandler) ListAllTasks(c *gin.Context) {
	tasks, err := h.taskService.ListAllTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpsertTask handles POST /api/v1/admin/tasks
func (h *TaskHandler) UpsertTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if task.ID == "" || task.Points < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task id required and points must be non-negative"})
		return
	}
	if err := h.taskService.UpsertTask(c.Request.Context(), &task); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// SetTaskActive handles PATCH /api/v1/admin/tasks/:id/active
func (h *TaskHandler) SetTaskActive(c *gin.Context) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.taskService.SetTaskActive(c.Request.Context(), c.Param("id"), req.Active); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": req.Active})
}
