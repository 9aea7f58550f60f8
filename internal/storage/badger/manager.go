package badger

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	group        interfaces.GroupStorage
	project      interfaces.ProjectStorage
	task         interfaces.TaskStorage
	user         interfaces.UserStorage
	comment      interfaces.CommentStorage
	insight      interfaces.InsightStorage
	notification interfaces.NotificationStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		group:        NewGroupStorage(db, logger),
		project:      NewProjectStorage(db, logger),
		task:         NewTaskStorage(db, logger),
		user:         NewUserStorage(db, logger),
		comment:      NewCommentStorage(db, logger),
		insight:      NewInsightStorage(db, logger),
		notification: NewNotificationStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// GroupStorage returns the Group storage interface
func (m *Manager) GroupStorage() interfaces.GroupStorage {
	return m.group
}

// ProjectStorage returns the Project storage interface
func (m *Manager) ProjectStorage() interfaces.ProjectStorage {
	return m.project
}

// TaskStorage returns the Task storage interface
func (m *Manager) TaskStorage() interfaces.TaskStorage {
	return m.task
}

// UserStorage returns the User storage interface
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.user
}

// CommentStorage returns the Comment storage interface
func (m *Manager) CommentStorage() interfaces.CommentStorage {
	return m.comment
}

// InsightStorage returns the Insight storage interface
func (m *Manager) InsightStorage() interfaces.InsightStorage {
	return m.insight
}

// NotificationStorage returns the Notification storage interface
func (m *Manager) NotificationStorage() interfaces.NotificationStorage {
	return m.notification
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// LoadSeedFixtures loads YAML seed fixtures from a directory into the entity stores
func (m *Manager) LoadSeedFixtures(ctx context.Context, dirPath string) error {
	return LoadSeedFixtures(ctx, m, dirPath, m.logger)
}
