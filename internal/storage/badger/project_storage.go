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

// ProjectStorage implements the ProjectStorage interface for Badger
type ProjectStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProjectStorage creates a new ProjectStorage instance
func NewProjectStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProjectStorage {
	return &ProjectStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ProjectStorage) StoreProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		return fmt.Errorf("project ID is required")
	}

	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	if err := s.db.Store().Upsert(project.ID, project); err != nil {
		return fmt.Errorf("failed to store project: %w", err)
	}
	return nil
}

func (s *ProjectStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Store().Get(id, &project); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (s *ProjectStorage) GetAllProjects(ctx context.Context) ([]*models.Project, error) {
	var projects []models.Project
	if err := s.db.Store().Find(&projects, nil); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := make([]*models.Project, len(projects))
	for i := range projects {
		result[i] = &projects[i]
	}
	return result, nil
}

func (s *ProjectStorage) GetProjectsByGroup(ctx context.Context, groupID string) ([]*models.Project, error) {
	var projects []models.Project
	if err := s.db.Store().Find(&projects, badgerhold.Where("GroupID").Eq(groupID).Index("GroupID")); err != nil {
		return nil, fmt.Errorf("failed to list projects for group %s: %w", groupID, err)
	}

	result := make([]*models.Project, len(projects))
	for i := range projects {
		result[i] = &projects[i]
	}
	return result, nil
}

func (s *ProjectStorage) DeleteProject(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Project{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *ProjectStorage) CountProjects(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Project{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return int(count), nil
}
