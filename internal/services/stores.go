package services

import (
	"context"

	"taskify/backend/internal/models"

	"github.com/gofrs/uuid"
)

// TaskStore is the persistence contract the engine runs against. Every
// lookup is scoped to a user and, unless stated otherwise, to active tasks.
// Implementations return models.ErrTaskNotFound for missing records.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Save(ctx context.Context, task *models.Task) error

	// FindByID returns the active task with the given ID if it is owned by
	// userID, models.ErrTaskNotFound otherwise.
	FindByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)

	FindByUser(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]models.Task, int64, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error)

	// FindChildren returns direct active children ordered by creation time.
	FindChildren(ctx context.Context, userID, parentID uuid.UUID) ([]models.Task, error)

	CountActive(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkInactive soft-deletes the given tasks in one batch.
	MarkInactive(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID) error
}

// CategoryStore is consulted for ownership checks at create/update time.
// Category lifecycle itself lives outside the engine.
type CategoryStore interface {
	ExistsForUser(ctx context.Context, userID, categoryID uuid.UUID) (bool, error)
}
