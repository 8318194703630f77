package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// MaxTitleLength is the longest title the engine accepts after trimming.
const MaxTitleLength = 200

type Task struct {
	ID           uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	CategoryID   uuid.UUID  `json:"category_id" gorm:"type:uuid;not null;index"`
	ParentTaskID *uuid.UUID `json:"parent_task_id" gorm:"type:uuid;index"`

	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority" gorm:"not null;default:1"`
	DueDate     *time.Time `json:"due_date"`

	CompletionPercentage int        `json:"completion_percentage" gorm:"not null;default:0"`
	IsCompleted          bool       `json:"is_completed" gorm:"not null;default:false"`
	CompletedAt          *time.Time `json:"completed_at"`

	// IsActive is the soft-delete marker. Inactive tasks are excluded from
	// every default query but remain in the store for history.
	IsActive bool `json:"is_active" gorm:"not null;default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOverdue reports whether the task is active, incomplete, and past due
// relative to now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.IsActive && !t.IsCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

type Category struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskFilter narrows List queries. Nil pointer fields are ignored.
type TaskFilter struct {
	IsCompleted *bool
	Priority    *Priority
	CategoryID  *uuid.UUID
	Search      string
	DueAfter    *time.Time
	DueBefore   *time.Time
	ParentsOnly bool

	Page     int
	PageSize int
	SortBy   string
	Order    string
}

type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	DueToday       int     `json:"due_today"`
	DueThisWeek    int     `json:"due_this_week"`
	CompletionRate float64 `json:"completion_rate"`
}

type PriorityStats struct {
	Priority  Priority `json:"priority"`
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Pending   int      `json:"pending"`
}

// DeletionCheck previews a cascade delete without performing it.
type DeletionCheck struct {
	TaskID          uuid.UUID `json:"task_id"`
	HasChildren     bool      `json:"has_children"`
	DescendantCount int       `json:"descendant_count"`
}
