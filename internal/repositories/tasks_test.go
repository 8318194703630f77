package repositories_test

import (
	"context"
	"testing"
	"time"

	"taskify/backend/internal/models"
	"taskify/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Task{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func seedTask(t *testing.T, db *gorm.DB, task *models.Task) *models.Task {
	t.Helper()

	if task.ID == uuid.Nil {
		task.ID = uuid.Must(uuid.NewV4())
	}
	if task.Title == "" {
		task.Title = "Task"
	}
	task.IsActive = true
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return task
}

func TestTaskRepository_FindByID(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	task := seedTask(t, db, &models.Task{UserID: userID, Title: "Mine"})

	got, err := repo.FindByID(ctx, userID, task.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Title != "Mine" {
		t.Errorf("FindByID() title = %q, want %q", got.Title, "Mine")
	}

	// Another user's ID never resolves.
	if _, err := repo.FindByID(ctx, uuid.Must(uuid.NewV4()), task.ID); err != models.ErrTaskNotFound {
		t.Errorf("FindByID() for foreign user error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskRepository_FindByID_IgnoresInactive(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	task := seedTask(t, db, &models.Task{UserID: userID})

	if err := repo.MarkInactive(ctx, userID, []uuid.UUID{task.ID}); err != nil {
		t.Fatalf("MarkInactive() error = %v", err)
	}

	if _, err := repo.FindByID(ctx, userID, task.ID); err != models.ErrTaskNotFound {
		t.Errorf("FindByID() for inactive task error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskRepository_FindByUser_Search(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	seedTask(t, db, &models.Task{UserID: userID, Title: "Buy groceries"})
	seedTask(t, db, &models.Task{UserID: userID, Title: "Call mom", Description: "about GROCERY run"})
	seedTask(t, db, &models.Task{UserID: userID, Title: "Unrelated"})

	tasks, total, err := repo.FindByUser(ctx, userID, models.TaskFilter{Search: "grocer"})
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if total != 2 || len(tasks) != 2 {
		t.Errorf("FindByUser() returned %d/%d results, want 2", len(tasks), total)
	}
}

func TestTaskRepository_FindByUser_SortWhitelist(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	seedTask(t, db, &models.Task{UserID: userID, Title: "B", Priority: models.PriorityLow})
	seedTask(t, db, &models.Task{UserID: userID, Title: "A", Priority: models.PriorityHigh})

	tasks, _, err := repo.FindByUser(ctx, userID, models.TaskFilter{SortBy: "title", Order: "asc"})
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if tasks[0].Title != "A" {
		t.Errorf("Expected title sort, got %q first", tasks[0].Title)
	}

	// Unknown sort columns fall back instead of reaching the SQL string.
	if _, _, err := repo.FindByUser(ctx, userID, models.TaskFilter{SortBy: "title; DROP TABLE tasks"}); err != nil {
		t.Errorf("FindByUser() with bad sort column error = %v", err)
	}
}

func TestTaskRepository_FindByUser_Pagination(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	for i := 0; i < 5; i++ {
		seedTask(t, db, &models.Task{UserID: userID})
	}

	tasks, total, err := repo.FindByUser(ctx, userID, models.TaskFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("FindByUser() error = %v", err)
	}
	if total != 5 {
		t.Errorf("FindByUser() total = %d, want 5", total)
	}
	if len(tasks) != 2 {
		t.Errorf("FindByUser() page length = %d, want 2", len(tasks))
	}
}

func TestTaskRepository_FindChildren_Ordered(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	parent := seedTask(t, db, &models.Task{UserID: userID, Title: "Parent"})

	base := time.Now().Add(-time.Hour)
	second := seedTask(t, db, &models.Task{UserID: userID, Title: "Second", ParentTaskID: &parent.ID, CreatedAt: base.Add(time.Minute)})
	first := seedTask(t, db, &models.Task{UserID: userID, Title: "First", ParentTaskID: &parent.ID, CreatedAt: base})

	children, err := repo.FindChildren(ctx, userID, parent.ID)
	if err != nil {
		t.Fatalf("FindChildren() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("FindChildren() returned %d children, want 2", len(children))
	}
	if children[0].ID != first.ID || children[1].ID != second.ID {
		t.Error("Expected children ordered by creation time")
	}
}

func TestTaskRepository_MarkInactive_Batch(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	a := seedTask(t, db, &models.Task{UserID: userID})
	b := seedTask(t, db, &models.Task{UserID: userID})
	keep := seedTask(t, db, &models.Task{UserID: userID})

	if err := repo.MarkInactive(ctx, userID, []uuid.UUID{a.ID, b.ID}); err != nil {
		t.Fatalf("MarkInactive() error = %v", err)
	}

	count, err := repo.CountActive(ctx, userID)
	if err != nil {
		t.Fatalf("CountActive() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountActive() = %d, want 1", count)
	}

	if _, err := repo.FindByID(ctx, userID, keep.ID); err != nil {
		t.Errorf("Expected untouched task to stay active, got %v", err)
	}

	// Empty batch is a no-op, not an error.
	if err := repo.MarkInactive(ctx, userID, nil); err != nil {
		t.Errorf("MarkInactive() with empty batch error = %v", err)
	}
}

func TestTaskRepository_FindDueBetween(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewTaskRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	now := time.Now()

	soon := now.Add(time.Hour)
	far := now.Add(48 * time.Hour)
	seedTask(t, db, &models.Task{UserID: userID, Title: "Soon", DueDate: &soon})
	seedTask(t, db, &models.Task{UserID: userID, Title: "Far", DueDate: &far})
	seedTask(t, db, &models.Task{UserID: userID, Title: "Undated"})

	done := seedTask(t, db, &models.Task{UserID: userID, Title: "Done", DueDate: &soon})
	if err := db.Model(done).Update("is_completed", true).Error; err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}

	tasks, err := repo.FindDueBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("FindDueBetween() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Soon" {
		t.Errorf("FindDueBetween() = %v tasks, want just the pending one due soon", len(tasks))
	}
}

func TestCategoryRepository_ExistsForUser(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	categoryID := uuid.Must(uuid.NewV4())
	if err := db.Create(&models.Category{ID: categoryID, UserID: userID, Name: "Work"}).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}

	ok, err := repo.ExistsForUser(ctx, userID, categoryID)
	if err != nil {
		t.Fatalf("ExistsForUser() error = %v", err)
	}
	if !ok {
		t.Error("ExistsForUser() = false for owned category")
	}

	ok, err = repo.ExistsForUser(ctx, uuid.Must(uuid.NewV4()), categoryID)
	if err != nil {
		t.Fatalf("ExistsForUser() error = %v", err)
	}
	if ok {
		t.Error("ExistsForUser() = true for foreign user")
	}
}
