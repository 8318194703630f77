package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskify/backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestJobQueue_Enqueue(t *testing.T) {
	client := newTestClient(t)
	queue := NewJobQueue(client)

	if err := queue.Enqueue(DefaultQueue, JobTypeTaskReminder, map[string]interface{}{"task_id": "t1"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	size, err := queue.GetQueueSize(DefaultQueue)
	if err != nil {
		t.Fatalf("GetQueueSize() error = %v", err)
	}
	if size != 1 {
		t.Errorf("GetQueueSize() = %d, want 1", size)
	}
}

func TestWorker_ProcessesJob(t *testing.T) {
	client := newTestClient(t)
	queue := NewJobQueue(client)

	processed := make(chan *Job, 1)

	w := NewWorker(WorkerConfig{RedisClient: client})
	w.RegisterHandler(JobTypeTaskReminder, func(ctx context.Context, job *Job) error {
		processed <- job
		return nil
	})
	w.Start(1)
	defer w.Stop()

	if err := queue.Enqueue(DefaultQueue, JobTypeTaskReminder, map[string]interface{}{"task_id": "t1"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case job := <-processed:
		if job.Type != JobTypeTaskReminder {
			t.Errorf("Job type = %q, want %q", job.Type, JobTypeTaskReminder)
		}
		if job.Payload["task_id"] != "t1" {
			t.Errorf("Payload task_id = %v, want t1", job.Payload["task_id"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Job was not processed")
	}
}

func TestWorker_RetriesFailedJob(t *testing.T) {
	client := newTestClient(t)
	queue := NewJobQueue(client)

	attempted := make(chan struct{}, 1)

	w := NewWorker(WorkerConfig{RedisClient: client})
	w.RegisterHandler(JobTypeCleanup, func(ctx context.Context, job *Job) error {
		select {
		case attempted <- struct{}{}:
		default:
		}
		return errors.New("transient failure")
	})
	w.Start(1)
	defer w.Stop()

	if err := queue.Enqueue(DefaultQueue, JobTypeCleanup, nil); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case <-attempted:
	case <-time.After(5 * time.Second):
		t.Fatal("Job was never attempted")
	}

	// Failed jobs park on the retry queue with a backoff timestamp.
	waitFor(t, 5*time.Second, func() bool {
		size, err := queue.GetQueueSize("retry_queue")
		return err == nil && size == 1
	})
}

type staticDueLister struct {
	tasks []models.Task
}

func (l *staticDueLister) FindDueBetween(ctx context.Context, start, end time.Time) ([]models.Task, error) {
	return l.tasks, nil
}

func TestReminderScanner_EnqueuesDueTasks(t *testing.T) {
	client := newTestClient(t)
	queue := NewJobQueue(client)

	due := time.Now().Add(time.Hour)
	lister := &staticDueLister{tasks: []models.Task{{
		ID:      uuid.Must(uuid.NewV4()),
		UserID:  uuid.Must(uuid.NewV4()),
		Title:   "Due soon",
		DueDate: &due,
	}}}

	scanner := NewReminderScanner(lister, queue, 20*time.Millisecond, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go scanner.Run(ctx)

	waitFor(t, time.Second, func() bool {
		size, err := queue.GetQueueSize(DefaultQueue)
		return err == nil && size >= 1
	})
}
