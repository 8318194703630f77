package services

import (
	"context"
	"fmt"
	"time"

	"taskify/backend/internal/cache"
	"taskify/backend/internal/models"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const (
	taskCacheTTL  = 30 * time.Minute
	statsCacheTTL = 5 * time.Minute
)

// CachedTaskService decorates a TaskService with read-through caching for
// single-task and stats reads. Every mutation drops the caller's cached
// entries; list and search queries always hit the store.
type CachedTaskService struct {
	inner  TaskService
	cache  cache.Cache
	logger *zap.Logger
}

func NewCachedTaskService(inner TaskService, cacheInstance cache.Cache, logger *zap.Logger) *CachedTaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTaskService{
		inner:  inner,
		cache:  cacheInstance,
		logger: logger,
	}
}

func taskCacheKey(userID, taskID uuid.UUID) string {
	return fmt.Sprintf("task:%s:%s", userID, taskID)
}

func statsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("stats:%s", userID)
}

func categoryStatsCacheKey(userID, categoryID uuid.UUID) string {
	return fmt.Sprintf("stats:%s:category:%s", userID, categoryID)
}

func priorityStatsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("priority_stats:%s", userID)
}

// invalidateUser drops every cached entry for the user. Failures are logged
// rather than returned; a degraded cache must not fail the mutation, but
// stale entries surviving until TTL should be visible in the logs.
func (s *CachedTaskService) invalidateUser(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("task:%s:*", userID)); err != nil {
		s.logger.Warn("cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.String("scope", "tasks"),
			zap.Error(err))
	}
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("stats:%s*", userID)); err != nil {
		s.logger.Warn("cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.String("scope", "stats"),
			zap.Error(err))
	}
	if err := s.cache.Delete(ctx, priorityStatsCacheKey(userID)); err != nil {
		s.logger.Warn("cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.String("scope", "priority_stats"),
			zap.Error(err))
	}
}

func (s *CachedTaskService) CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	task, err := s.inner.CreateTask(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, userID)
	s.cache.Set(ctx, taskCacheKey(userID, task.ID), task, taskCacheTTL)

	return task, nil
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.inner.UpdateTask(ctx, userID, taskID, input)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) SetTaskCompletion(ctx context.Context, userID, taskID uuid.UUID, completed bool) (*models.Task, error) {
	task, err := s.inner.SetTaskCompletion(ctx, userID, taskID, completed)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) UpdateTaskProgress(ctx context.Context, userID, taskID uuid.UUID, percentage int) (*models.Task, error) {
	task, err := s.inner.UpdateTaskProgress(ctx, userID, taskID, percentage)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	deleted, err := s.inner.DeleteTask(ctx, userID, taskID)
	if err != nil {
		return false, err
	}

	if deleted {
		s.invalidateUser(ctx, userID)
	}
	return deleted, nil
}

func (s *CachedTaskService) CheckTaskDeletion(ctx context.Context, userID, taskID uuid.UUID) (*models.DeletionCheck, error) {
	return s.inner.CheckTaskDeletion(ctx, userID, taskID)
}

func (s *CachedTaskService) SetTaskParent(ctx context.Context, userID, taskID, parentID uuid.UUID) (*models.Task, error) {
	task, err := s.inner.SetTaskParent(ctx, userID, taskID, parentID)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) RemoveTaskParent(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.inner.RemoveTaskParent(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	s.invalidateUser(ctx, userID)
	return task, nil
}

func (s *CachedTaskService) TaskDepth(ctx context.Context, userID, taskID uuid.UUID) (int, error) {
	return s.inner.TaskDepth(ctx, userID, taskID)
}

func (s *CachedTaskService) GetTaskByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	key := taskCacheKey(userID, taskID)

	var cached models.Task
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	task, err := s.inner.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) ListTasks(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, int64, error) {
	return s.inner.ListTasks(ctx, userID, filter)
}

func (s *CachedTaskService) SearchTasks(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Task, error) {
	return s.inner.SearchTasks(ctx, userID, query, limit)
}

func (s *CachedTaskService) GetOverdueTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return s.inner.GetOverdueTasks(ctx, userID)
}

func (s *CachedTaskService) GetTasksDueToday(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return s.inner.GetTasksDueToday(ctx, userID)
}

func (s *CachedTaskService) GetTasksDueThisWeek(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return s.inner.GetTasksDueThisWeek(ctx, userID)
}

func (s *CachedTaskService) GetSubTasks(ctx context.Context, userID, parentID uuid.UUID) ([]models.Task, error) {
	return s.inner.GetSubTasks(ctx, userID, parentID)
}

func (s *CachedTaskService) GetStats(ctx context.Context, userID uuid.UUID) (*models.TaskStats, error) {
	key := statsCacheKey(userID)

	var cached models.TaskStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.inner.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, stats, statsCacheTTL)
	return stats, nil
}

func (s *CachedTaskService) GetStatsByCategory(ctx context.Context, userID, categoryID uuid.UUID) (*models.TaskStats, error) {
	key := categoryStatsCacheKey(userID, categoryID)

	var cached models.TaskStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.inner.GetStatsByCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, stats, statsCacheTTL)
	return stats, nil
}

func (s *CachedTaskService) GetPriorityStats(ctx context.Context, userID uuid.UUID) ([]models.PriorityStats, error) {
	key := priorityStatsCacheKey(userID)

	var cached []models.PriorityStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	stats, err := s.inner.GetPriorityStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, stats, statsCacheTTL)
	return stats, nil
}

var _ TaskService = (*CachedTaskService)(nil)
