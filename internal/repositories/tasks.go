package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskify/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// allowed sort columns for task listings
var taskSortColumns = map[string]string{
	"created_at":            "created_at",
	"updated_at":            "updated_at",
	"due_date":              "due_date",
	"priority":              "priority",
	"title":                 "title",
	"completion_percentage": "completion_percentage",
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", taskID, userID, true).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND is_active = ?", userID, true)

	if filter.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ParentsOnly {
		query = query.Where("parent_task_id IS NULL")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date >= ?", *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query = query.Order(taskOrderClause(filter.SortBy, filter.Order))

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, total, nil
}

func (r *TaskRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindChildren(ctx context.Context, userID, parentID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_task_id = ? AND is_active = ?", userID, parentID, true).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return tasks, nil
}

// FindDueBetween returns active, incomplete tasks across all users due in
// [start, end). Used by the reminder scanner.
func (r *TaskRepository) FindDueBetween(ctx context.Context, start, end time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_completed = ? AND due_date >= ? AND due_date < ?", true, false, start, end).
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) CountActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active tasks: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) MarkInactive(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND id IN ?", userID, taskIDs).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("soft delete tasks: %w", err)
	}
	return nil
}

func taskOrderClause(sortBy, order string) string {
	column, ok := taskSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}
