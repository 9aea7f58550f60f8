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

// GroupStorage implements the GroupStorage interface for Badger
type GroupStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewGroupStorage creates a new GroupStorage instance
func NewGroupStorage(db *BadgerDB, logger arbor.ILogger) interfaces.GroupStorage {
	return &GroupStorage{
		db:     db,
		logger: logger,
	}
}

func (s *GroupStorage) StoreGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		return fmt.Errorf("group ID is required")
	}

	now := time.Now()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	if err := s.db.Store().Upsert(group.ID, group); err != nil {
		return fmt.Errorf("failed to store group: %w", err)
	}
	return nil
}

func (s *GroupStorage) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := s.db.Store().Get(id, &group); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (s *GroupStorage) GetAllGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []models.Group
	if err := s.db.Store().Find(&groups, nil); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	result := make([]*models.Group, len(groups))
	for i := range groups {
		result[i] = &groups[i]
	}
	return result, nil
}

func (s *GroupStorage) DeleteGroup(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Group{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

func (s *GroupStorage) CountGroups(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Group{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return int(count), nil
}
