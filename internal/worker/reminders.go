package worker

import (
	"context"
	"time"

	"taskify/backend/internal/models"

	"go.uber.org/zap"
)

// DueTaskLister supplies tasks coming due across all users. Implemented by
// the task repository.
type DueTaskLister interface {
	FindDueBetween(ctx context.Context, start, end time.Time) ([]models.Task, error)
}

// ReminderScanner periodically enqueues a reminder job for every active,
// incomplete task due within the lookahead window. Delivery is whatever
// handler is registered for JobTypeTaskReminder; by default reminders are
// only logged.
type ReminderScanner struct {
	tasks    DueTaskLister
	queue    *JobQueue
	interval time.Duration
	window   time.Duration
	logger   *zap.Logger
}

func NewReminderScanner(tasks DueTaskLister, queue *JobQueue, interval, window time.Duration, logger *zap.Logger) *ReminderScanner {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReminderScanner{
		tasks:    tasks,
		queue:    queue,
		interval: interval,
		window:   window,
		logger:   logger,
	}
}

func (s *ReminderScanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *ReminderScanner) scan(ctx context.Context) {
	now := time.Now()
	tasks, err := s.tasks.FindDueBetween(ctx, now, now.Add(s.window))
	if err != nil {
		s.logger.Error("reminder scan failed", zap.Error(err))
		return
	}

	for _, task := range tasks {
		err := s.queue.Enqueue(DefaultQueue, JobTypeTaskReminder, map[string]interface{}{
			"task_id":  task.ID.String(),
			"user_id":  task.UserID.String(),
			"title":    task.Title,
			"due_date": task.DueDate,
		})
		if err != nil {
			s.logger.Error("failed to enqueue reminder",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
		}
	}

	if len(tasks) > 0 {
		s.logger.Info("reminder scan complete", zap.Int("enqueued", len(tasks)))
	}
}

// LogReminderHandler is the default JobTypeTaskReminder handler. Actual
// delivery channels hang off the same job type.
func LogReminderHandler(logger *zap.Logger) JobHandler {
	return func(ctx context.Context, job *Job) error {
		logger.Info("task reminder",
			zap.Any("task_id", job.Payload["task_id"]),
			zap.Any("user_id", job.Payload["user_id"]),
			zap.Any("title", job.Payload["title"]),
			zap.Any("due_date", job.Payload["due_date"]))
		return nil
	}
}
