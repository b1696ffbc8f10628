package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"task_manager/internal/models"
	"task_manager/internal/service"
)

const (
	errTaskNotFound  = "task not found"
	errInvalidTaskID = "invalid task id"
	errDueDate       = "invalid 'due_date'; use RFC3339 or YYYY-MM-DD"
	msgTaskDeleted   = "task deleted"
)

// TaskRequest is the create/update payload. owner_id is never accepted from
// the client; tasks always belong to the caller.
type TaskRequest struct {
	Title       string  `json:"title" binding:"required" example:"write report"`
	Description string  `json:"description" example:"quarterly numbers"`
	Status      string  `json:"status" example:"todo" enums:"todo,in_progress,done"`
	DueDate     *string `json:"due_date" example:"2025-07-01"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func (r TaskRequest) toInput() (service.TaskInput, error) {
	in := service.TaskInput{Title: r.Title, Description: r.Description, Status: r.Status}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		t, err := parseQueryTime(strings.TrimSpace(*r.DueDate))
		if err != nil {
			return in, err
		}
		in.DueDate = &t
	}
	return in, nil
}

// taskID parses the :id path parameter; writes 400 and returns false when it is not a positive integer.
func taskID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidTaskID})
		return 0, false
	}
	return id, true
}

func (h *Handler) taskError(c *gin.Context, err error, userMsg, logKey string, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTaskNotFound})
	case errors.Is(err, service.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err, kv...)
	}
}

// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/me [get]
// @Security     BearerAuth
func (h *Handler) me(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, MeResponse{ID: u.ID, Username: u.Username, Email: u.Email, IsActive: u.IsActive})
}

// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        status  query     string  false  "Filter by status"  Enums(todo,in_progress,done)
// @Success      200     {array}   models.Task
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/tasks [get]
// @Security     BearerAuth
func (h *Handler) listTasks(c *gin.Context) {
	u := currentUser(c)
	tasks, err := h.services.ListTasks(c.Request.Context(), u.ID, c.Query("status"))
	if err != nil {
		h.taskError(c, err, "failed to load tasks", "tasks_list_failed", "user_id", u.ID)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/tasks/{id} [get]
// @Security     BearerAuth
func (h *Handler) getTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	u := currentUser(c)
	t, err := h.services.GetTask(c.Request.Context(), u.ID, id)
	if err != nil {
		h.taskError(c, err, "failed to load task", "task_get_failed", "user_id", u.ID, "task_id", id)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        input  body      TaskRequest  true  "Task"
// @Success      201    {object}  models.Task
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/tasks [post]
// @Security     BearerAuth
func (h *Handler) createTask(c *gin.Context) {
	var req TaskRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errDueDate})
		return
	}

	u := currentUser(c)
	t, err := h.services.CreateTask(c.Request.Context(), u.ID, in)
	if err != nil {
		h.taskError(c, err, "failed to create task", "task_create_failed", "user_id", u.ID)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// @Summary      Update task
// @Description  Replaces title, description and due date. An omitted status keeps the current one.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id     path      int          true  "Task ID"
// @Param        input  body      TaskRequest  true  "Task"
// @Success      200    {object}  models.Task
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /api/v1/tasks/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req TaskRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errDueDate})
		return
	}

	u := currentUser(c)
	t, err := h.services.UpdateTask(c.Request.Context(), u.ID, id, in)
	if err != nil {
		h.taskError(c, err, "failed to update task", "task_update_failed", "user_id", u.ID, "task_id", id)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Delete task
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/tasks/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	u := currentUser(c)
	if err := h.services.DeleteTask(c.Request.Context(), u.ID, id); err != nil {
		h.taskError(c, err, "failed to delete task", "task_delete_failed", "user_id", u.ID, "task_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgTaskDeleted})
}
