package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// NotificationStorage implements the NotificationStorage interface for Badger
type NotificationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewNotificationStorage creates a new NotificationStorage instance
func NewNotificationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.NotificationStorage {
	return &NotificationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *NotificationStorage) StoreNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		return fmt.Errorf("notification ID is required")
	}
	if notification.UserID == "" {
		return fmt.Errorf("notification user ID is required")
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(notification.ID, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (s *NotificationStorage) GetNotificationsByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.Store().Find(&notifications, badgerhold.Where("UserID").Eq(userID).Index("UserID")); err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}

	result := make([]*models.Notification, len(notifications))
	for i := range notifications {
		result[i] = &notifications[i]
	}
	return result, nil
}

func (s *NotificationStorage) DeleteNotification(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Notification{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
