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

// UserStorage implements the UserStorage interface for Badger
type UserStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewUserStorage creates a new UserStorage instance
func NewUserStorage(db *BadgerDB, logger arbor.ILogger) interfaces.UserStorage {
	return &UserStorage{
		db:     db,
		logger: logger,
	}
}

func (s *UserStorage) StoreUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := s.db.Store().Upsert(user.ID, user); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

func (s *UserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Store().Get(id, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserStorage) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var users []models.User
	if err := s.db.Store().Find(&users, nil); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]*models.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}
	return result, nil
}

func (s *UserStorage) DeleteUser(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.User{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserStorage) CountUsers(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.User{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int(count), nil
}
