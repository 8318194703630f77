package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskify/backend/internal/models"
	"taskify/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Title        string     `json:"title" binding:"required"`
		Description  string     `json:"description"`
		CategoryID   string     `json:"category_id" binding:"required"`
		Priority     string     `json:"priority"`
		DueDate      *time.Time `json:"due_date"`
		ParentTaskID *string    `json:"parent_task_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  uuid.FromStringOrNil(req.CategoryID),
		Priority:    models.ParsePriority(req.Priority),
		DueDate:     req.DueDate,
	}
	if req.ParentTaskID != nil {
		parentID := uuid.FromStringOrNil(*req.ParentTaskID)
		input.ParentTaskID = &parentID
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), userID, input)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		CategoryID  *string    `json:"category_id"`
		Priority    *string    `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.CategoryID != nil {
		categoryID := uuid.FromStringOrNil(*req.CategoryID)
		input.CategoryID = &categoryID
	}
	if req.Priority != nil {
		priority := models.ParsePriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")), input)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		IsCompleted *bool `json:"is_completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.SetTaskCompletion(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")), *req.IsCompleted)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Percentage *int `json:"percentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateTaskProgress(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")), *req.Percentage)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deleted, err := h.taskService.DeleteTask(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) CheckDeletion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	check, err := h.taskService.CheckTaskDeletion(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

func (h *TaskHandler) SetParent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		ParentTaskID string `json:"parent_task_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.SetTaskParent(c.Request.Context(), userID,
		uuid.FromStringOrNil(c.Param("id")), uuid.FromStringOrNil(req.ParentTaskID))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) RemoveParent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.RemoveTaskParent(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetDepth(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	depth, err := h.taskService.TaskDepth(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"depth": depth})
}

func (h *TaskHandler) GetSubTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.GetSubTasks(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := models.TaskFilter{
		Search:      c.Query("search"),
		ParentsOnly: c.Query("parentsOnly") == "true",
		SortBy:      c.DefaultQuery("sortBy", "created_at"),
		Order:       c.DefaultQuery("order", "desc"),
	}

	if v := c.Query("completed"); v != "" {
		completed := v == "true"
		filter.IsCompleted = &completed
	}
	if v := c.Query("priority"); v != "" {
		priority := models.ParsePriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("categoryId"); v != "" {
		categoryID := uuid.FromStringOrNil(v)
		filter.CategoryID = &categoryID
	}
	if v := c.Query("dueAfter"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DueAfter = &t
		}
	}
	if v := c.Query("dueBefore"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DueBefore = &t
		}
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), userID, filter)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

func (h *TaskHandler) SearchTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	tasks, err := h.taskService.SearchTasks(c.Request.Context(), userID, c.Query("q"), limit)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) GetOverdue(c *gin.Context) {
	h.taskListView(c, h.taskService.GetOverdueTasks)
}

func (h *TaskHandler) GetDueToday(c *gin.Context) {
	h.taskListView(c, h.taskService.GetTasksDueToday)
}

func (h *TaskHandler) GetDueThisWeek(c *gin.Context) {
	h.taskListView(c, h.taskService.GetTasksDueThisWeek)
}

func (h *TaskHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.taskService.GetStats(c.Request.Context(), userID)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *TaskHandler) GetStatsByCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.taskService.GetStatsByCategory(c.Request.Context(), userID, uuid.FromStringOrNil(c.Param("id")))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *TaskHandler) GetPriorityStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.taskService.GetPriorityStats(c.Request.Context(), userID)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"priorities": stats})
}

func (h *TaskHandler) taskListView(c *gin.Context, view func(ctx context.Context, userID uuid.UUID) ([]models.Task, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tasks, err := view(c.Request.Context(), userID)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCategory),
		errors.Is(err, models.ErrTitleRequired),
		errors.Is(err, models.ErrTitleTooLong),
		errors.Is(err, models.ErrInvalidProgress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDepthLimitExceeded),
		errors.Is(err, models.ErrCircularReference),
		errors.Is(err, models.ErrQuotaExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process task request"})
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}

	str, ok := value.(string)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid user ID format"})
		return uuid.Nil, false
	}

	userID := uuid.FromStringOrNil(str)
	if userID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}

	return userID, true
}
