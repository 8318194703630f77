package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"taskify/backend/internal/models"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type CreateTaskInput struct {
	Title        string
	Description  string
	CategoryID   uuid.UUID
	Priority     models.Priority
	DueDate      *time.Time
	ParentTaskID *uuid.UUID
}

// UpdateTaskInput carries partial updates. Nil fields keep prior values.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	CategoryID  *uuid.UUID
	Priority    *models.Priority
	DueDate     *time.Time
}

type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error)
	SetTaskCompletion(ctx context.Context, userID, taskID uuid.UUID, completed bool) (*models.Task, error)
	UpdateTaskProgress(ctx context.Context, userID, taskID uuid.UUID, percentage int) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) (bool, error)
	CheckTaskDeletion(ctx context.Context, userID, taskID uuid.UUID) (*models.DeletionCheck, error)

	SetTaskParent(ctx context.Context, userID, taskID, parentID uuid.UUID) (*models.Task, error)
	RemoveTaskParent(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	TaskDepth(ctx context.Context, userID, taskID uuid.UUID) (int, error)

	GetTaskByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, int64, error)
	SearchTasks(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Task, error)
	GetOverdueTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	GetTasksDueToday(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	GetTasksDueThisWeek(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	GetSubTasks(ctx context.Context, userID, parentID uuid.UUID) ([]models.Task, error)

	GetStats(ctx context.Context, userID uuid.UUID) (*models.TaskStats, error)
	GetStatsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (*models.TaskStats, error)
	GetPriorityStats(ctx context.Context, userID uuid.UUID) ([]models.PriorityStats, error)
}

type TaskServiceConfig struct {
	MaxTasksPerUser int
	MaxTaskDepth    int
}

func DefaultTaskServiceConfig() TaskServiceConfig {
	return TaskServiceConfig{
		MaxTasksPerUser: 50,
		MaxTaskDepth:    5,
	}
}

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultSearchLimit = 50
)

// TaskServiceImpl enforces the hierarchy and lifecycle invariants: depth
// limits, cycle prevention, completion consistency, quotas, and cascading
// soft-deletes. It holds no state between calls; everything lives in the
// stores.
type TaskServiceImpl struct {
	tasks      TaskStore
	categories CategoryStore
	cfg        TaskServiceConfig
	logger     *zap.Logger
}

func NewTaskService(tasks TaskStore, categories CategoryStore, cfg TaskServiceConfig, logger *zap.Logger) *TaskServiceImpl {
	if cfg.MaxTasksPerUser <= 0 {
		cfg.MaxTasksPerUser = DefaultTaskServiceConfig().MaxTasksPerUser
	}
	if cfg.MaxTaskDepth <= 0 {
		cfg.MaxTaskDepth = DefaultTaskServiceConfig().MaxTaskDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TaskServiceImpl{
		tasks:      tasks,
		categories: categories,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, models.ErrTitleRequired
	}
	if len(title) > models.MaxTitleLength {
		return nil, models.ErrTitleTooLong
	}

	ok, err := s.categories.ExistsForUser(ctx, userID, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidCategory
	}

	count, err := s.tasks.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.cfg.MaxTasksPerUser) {
		return nil, models.ErrQuotaExceeded
	}

	if input.ParentTaskID != nil {
		parent, err := s.tasks.FindByID(ctx, userID, *input.ParentTaskID)
		if err != nil {
			return nil, err
		}
		parentDepth, err := s.depthOf(ctx, userID, parent)
		if err != nil {
			return nil, err
		}
		if parentDepth+1 > s.cfg.MaxTaskDepth {
			return nil, models.ErrDepthLimitExceeded
		}
	}

	priority := input.Priority
	if !priority.Valid() {
		priority = models.PriorityNormal
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:           id,
		UserID:       userID,
		CategoryID:   input.CategoryID,
		ParentTaskID: input.ParentTaskID,
		Title:        title,
		Description:  input.Description,
		Priority:     priority,
		DueDate:      input.DueDate,
		IsActive:     true,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("user_id", userID.String()))

	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, models.ErrTitleRequired
		}
		if len(title) > models.MaxTitleLength {
			return nil, models.ErrTitleTooLong
		}
		task.Title = title
	}

	if input.Description != nil {
		task.Description = *input.Description
	}

	if input.CategoryID != nil && *input.CategoryID != task.CategoryID {
		ok, err := s.categories.ExistsForUser(ctx, userID, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.ErrInvalidCategory
		}
		task.CategoryID = *input.CategoryID
	}

	if input.Priority != nil {
		if input.Priority.Valid() {
			task.Priority = *input.Priority
		} else {
			task.Priority = models.PriorityNormal
		}
	}

	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskServiceImpl) SetTaskCompletion(ctx context.Context, userID, taskID uuid.UUID, completed bool) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	// Idempotent in both directions.
	if task.IsCompleted == completed {
		return task, nil
	}

	if completed {
		now := time.Now()
		task.IsCompleted = true
		task.CompletionPercentage = 100
		task.CompletedAt = &now
	} else {
		// Percentage keeps its last explicit value on reopen.
		task.IsCompleted = false
		task.CompletedAt = nil
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskServiceImpl) UpdateTaskProgress(ctx context.Context, userID, taskID uuid.UUID, percentage int) (*models.Task, error) {
	if percentage < 0 || percentage > 100 {
		return nil, models.ErrInvalidProgress
	}

	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.CompletionPercentage = percentage
	if percentage == 100 {
		if !task.IsCompleted {
			now := time.Now()
			task.IsCompleted = true
			task.CompletedAt = &now
		}
	} else {
		task.IsCompleted = false
		task.CompletedAt = nil
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask soft-deletes the task and every transitive descendant. A
// missing or foreign task yields (false, nil) rather than an error;
// deletion is idempotent.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	_, err := s.tasks.FindByID(ctx, userID, taskID)
	if errors.Is(err, models.ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ids, err := s.collectSubtree(ctx, userID, taskID)
	if err != nil {
		return false, err
	}

	if err := s.tasks.MarkInactive(ctx, userID, ids); err != nil {
		return false, err
	}

	s.logger.Info("task deleted",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("cascade_count", len(ids)-1))

	return true, nil
}

// CheckTaskDeletion reports what a delete would cascade to, without
// performing it. Deletion is never refused on account of children.
func (s *TaskServiceImpl) CheckTaskDeletion(ctx context.Context, userID, taskID uuid.UUID) (*models.DeletionCheck, error) {
	if _, err := s.tasks.FindByID(ctx, userID, taskID); err != nil {
		return nil, err
	}

	ids, err := s.collectSubtree(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	descendants := len(ids) - 1
	return &models.DeletionCheck{
		TaskID:          taskID,
		HasChildren:     descendants > 0,
		DescendantCount: descendants,
	}, nil
}

func (s *TaskServiceImpl) SetTaskParent(ctx context.Context, userID, taskID, parentID uuid.UUID) (*models.Task, error) {
	if taskID == parentID {
		return nil, models.ErrCircularReference
	}

	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	parent, err := s.tasks.FindByID(ctx, userID, parentID)
	if err != nil {
		return nil, err
	}

	// Walk the proposed parent's ancestor chain; hitting taskID means the
	// parent is a descendant of the task and the edge would close a cycle.
	ancestor := parent
	for steps := 0; ancestor.ParentTaskID != nil; steps++ {
		if steps > s.cfg.MaxTaskDepth {
			return nil, models.ErrCircularReference
		}
		if *ancestor.ParentTaskID == taskID {
			return nil, models.ErrCircularReference
		}
		ancestor, err = s.tasks.FindByID(ctx, userID, *ancestor.ParentTaskID)
		if err != nil {
			return nil, err
		}
	}

	parentDepth, err := s.depthOf(ctx, userID, parent)
	if err != nil {
		return nil, err
	}

	// The whole subtree moves with the task, so the deepest descendant
	// lands at parentDepth+1+height and must also respect the limit.
	height, err := s.subtreeHeight(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if parentDepth+1+height > s.cfg.MaxTaskDepth {
		return nil, models.ErrDepthLimitExceeded
	}

	task.ParentTaskID = &parentID
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskServiceImpl) RemoveTaskParent(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if task.ParentTaskID == nil {
		return task, nil
	}

	task.ParentTaskID = nil
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// TaskDepth returns the number of ancestor hops to the task's root. Root
// tasks have depth 0.
func (s *TaskServiceImpl) TaskDepth(ctx context.Context, userID, taskID uuid.UUID) (int, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return 0, err
	}
	return s.depthOf(ctx, userID, task)
}

func (s *TaskServiceImpl) GetTaskByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	return s.tasks.FindByID(ctx, userID, taskID)
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	return s.tasks.FindByUser(ctx, userID, filter)
}

// SearchTasks returns nothing for empty search text. Listing everything is
// what ListTasks is for; an accidental empty query must not dump the table.
func (s *TaskServiceImpl) SearchTasks(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Task{}, nil
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultSearchLimit
	}

	tasks, _, err := s.tasks.FindByUser(ctx, userID, models.TaskFilter{
		Search:   query,
		Page:     1,
		PageSize: limit,
	})
	return tasks, err
}

func (s *TaskServiceImpl) GetOverdueTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	now := time.Now()
	completed := false
	tasks, _, err := s.tasks.FindByUser(ctx, userID, models.TaskFilter{
		IsCompleted: &completed,
		DueBefore:   &now,
	})
	return tasks, err
}

func (s *TaskServiceImpl) GetTasksDueToday(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	start := startOfDay(time.Now())
	end := start.AddDate(0, 0, 1)
	return s.dueBetween(ctx, userID, start, end)
}

func (s *TaskServiceImpl) GetTasksDueThisWeek(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	start := startOfDay(time.Now())
	end := start.AddDate(0, 0, 7)
	return s.dueBetween(ctx, userID, start, end)
}

func (s *TaskServiceImpl) GetSubTasks(ctx context.Context, userID, parentID uuid.UUID) ([]models.Task, error) {
	if _, err := s.tasks.FindByID(ctx, userID, parentID); err != nil {
		return nil, err
	}
	return s.tasks.FindChildren(ctx, userID, parentID)
}

func (s *TaskServiceImpl) GetStats(ctx context.Context, userID uuid.UUID) (*models.TaskStats, error) {
	tasks, err := s.tasks.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return computeStats(tasks, time.Now()), nil
}

// GetStatsByCategory never errors on unknown categories; an empty or
// invalid category simply yields all-zero stats.
func (s *TaskServiceImpl) GetStatsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (*models.TaskStats, error) {
	tasks, err := s.tasks.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	scoped := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.CategoryID == categoryID {
			scoped = append(scoped, task)
		}
	}

	return computeStats(scoped, time.Now()), nil
}

func (s *TaskServiceImpl) GetPriorityStats(ctx context.Context, userID uuid.UUID) ([]models.PriorityStats, error) {
	tasks, err := s.tasks.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byPriority := make(map[models.Priority]*models.PriorityStats)
	for _, p := range models.AllPriorities() {
		byPriority[p] = &models.PriorityStats{Priority: p}
	}

	for _, task := range tasks {
		row, ok := byPriority[task.Priority]
		if !ok {
			continue
		}
		row.Total++
		if task.IsCompleted {
			row.Completed++
		} else {
			row.Pending++
		}
	}

	stats := make([]models.PriorityStats, 0, len(byPriority))
	for _, p := range models.AllPriorities() {
		stats = append(stats, *byPriority[p])
	}

	return stats, nil
}

func (s *TaskServiceImpl) dueBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Task, error) {
	completed := false
	tasks, _, err := s.tasks.FindByUser(ctx, userID, models.TaskFilter{
		IsCompleted: &completed,
		DueAfter:    &start,
		DueBefore:   &end,
	})
	return tasks, err
}

// depthOf walks the ancestor chain of task. The walk is bounded; a chain
// longer than the configured maximum means the stored hierarchy is corrupt.
func (s *TaskServiceImpl) depthOf(ctx context.Context, userID uuid.UUID, task *models.Task) (int, error) {
	depth := 0
	current := task
	for current.ParentTaskID != nil {
		depth++
		if depth > s.cfg.MaxTaskDepth {
			return 0, models.ErrCircularReference
		}
		parent, err := s.tasks.FindByID(ctx, userID, *current.ParentTaskID)
		if err != nil {
			return 0, err
		}
		current = parent
	}
	return depth, nil
}

// subtreeHeight returns how many levels of descendants hang below taskID.
// A leaf has height 0.
func (s *TaskServiceImpl) subtreeHeight(ctx context.Context, userID, taskID uuid.UUID) (int, error) {
	height := 0
	level := []uuid.UUID{taskID}

	for len(level) > 0 {
		var next []uuid.UUID
		for _, id := range level {
			children, err := s.tasks.FindChildren(ctx, userID, id)
			if err != nil {
				return 0, err
			}
			for _, child := range children {
				next = append(next, child.ID)
			}
		}
		if len(next) > 0 {
			height++
		}
		level = next
	}

	return height, nil
}

// collectSubtree gathers taskID plus every transitive descendant,
// breadth-first through repeated child queries.
func (s *TaskServiceImpl) collectSubtree(ctx context.Context, userID, taskID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{taskID}
	queue := []uuid.UUID{taskID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.tasks.FindChildren(ctx, userID, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return ids, nil
}

func computeStats(tasks []models.Task, now time.Time) *models.TaskStats {
	stats := &models.TaskStats{}

	todayStart := startOfDay(now)
	todayEnd := todayStart.AddDate(0, 0, 1)
	weekEnd := todayStart.AddDate(0, 0, 7)

	for _, task := range tasks {
		stats.Total++
		if task.IsCompleted {
			stats.Completed++
			continue
		}
		stats.Pending++

		if task.DueDate == nil {
			continue
		}
		if task.DueDate.Before(now) {
			stats.Overdue++
		}
		if !task.DueDate.Before(todayStart) && task.DueDate.Before(todayEnd) {
			stats.DueToday++
		}
		if !task.DueDate.Before(todayStart) && task.DueDate.Before(weekEnd) {
			stats.DueThisWeek++
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}

	return stats
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var _ TaskService = (*TaskServiceImpl)(nil)
