package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TaskStorage implements the TaskStorage interface for Badger
type TaskStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTaskStorage creates a new TaskStorage instance
func NewTaskStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TaskStorage {
	return &TaskStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TaskStorage) StoreTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	if err := s.db.Store().Upsert(task.ID, task); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}
	return nil
}

func (s *TaskStorage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := s.db.Store().Get(id, &task); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (s *TaskStorage) GetAllTasks(ctx context.Context) ([]*models.Task, error) {
	var tasks []models.Task
	if err := s.db.Store().Find(&tasks, nil); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	result := make([]*models.Task, len(tasks))
	for i := range tasks {
		result[i] = &tasks[i]
	}
	return result, nil
}

func (s *TaskStorage) GetTasksByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	var tasks []models.Task
	if err := s.db.Store().Find(&tasks, badgerhold.Where("ProjectID").Eq(projectID).Index("ProjectID")); err != nil {
		return nil, fmt.Errorf("failed to list tasks for project %s: %w", projectID, err)
	}

	result := make([]*models.Task, len(tasks))
	for i := range tasks {
		result[i] = &tasks[i]
	}
	return result, nil
}

func (s *TaskStorage) DeleteTask(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Task{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskStorage) CountTasks(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Task{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return int(count), nil
}
