package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/taskpulse/internal/models"
)

// GroupStorage - interface for group record persistence
type GroupStorage interface {
	StoreGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GetAllGroups(ctx context.Context) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	CountGroups(ctx context.Context) (int, error)
}

// ProjectStorage - interface for project record persistence
type ProjectStorage interface {
	StoreProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetAllProjects(ctx context.Context) ([]*models.Project, error)
	GetProjectsByGroup(ctx context.Context, groupID string) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	CountProjects(ctx context.Context) (int, error)
}

// TaskStorage - interface for task record persistence
type TaskStorage interface {
	StoreTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetAllTasks(ctx context.Context) ([]*models.Task, error)
	GetTasksByProject(ctx context.Context, projectID string) ([]*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	CountTasks(ctx context.Context) (int, error)
}

// UserStorage - interface for user record persistence
type UserStorage interface {
	StoreUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// CommentStorage - interface for comment record persistence
type CommentStorage interface {
	StoreComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByTask(ctx context.Context, taskID string, limit int) ([]*models.Comment, error)
	GetCommentsByProject(ctx context.Context, projectID string, limit int) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// InsightStorage - interface for insight record persistence. Records are
// keyed by scope key; every write is an upsert.
type InsightStorage interface {
	UpsertInsight(ctx context.Context, record *models.InsightRecord) error
	GetInsight(ctx context.Context, scopeKey string) (*models.InsightRecord, error)
	GetInsightsByScope(ctx context.Context, scope models.InsightScope) ([]*models.InsightRecord, error)
	// ListDueProjects returns project-scope records with NextDueAt <= now,
	// earliest due first, at most limit records.
	ListDueProjects(ctx context.Context, now time.Time, limit int) ([]*models.InsightRecord, error)
	DeleteInsight(ctx context.Context, scopeKey string) error
	CountInsights(ctx context.Context) (int, error)
}

// NotificationStorage - interface for in-app notification persistence
type NotificationStorage interface {
	StoreNotification(ctx context.Context, notification *models.Notification) error
	GetNotificationsByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	GroupStorage() GroupStorage
	ProjectStorage() ProjectStorage
	TaskStorage() TaskStorage
	UserStorage() UserStorage
	CommentStorage() CommentStorage
	InsightStorage() InsightStorage
	NotificationStorage() NotificationStorage
	Close() error
}
