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

// CommentStorage implements the CommentStorage interface for Badger
type CommentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCommentStorage creates a new CommentStorage instance
func NewCommentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CommentStorage {
	return &CommentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CommentStorage) StoreComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		return fmt.Errorf("comment ID is required")
	}
	if comment.TaskID == "" && comment.ProjectID == "" {
		return fmt.Errorf("comment must reference a task or a project")
	}

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(comment.ID, comment); err != nil {
		return fmt.Errorf("failed to store comment: %w", err)
	}
	return nil
}

func (s *CommentStorage) GetCommentsByTask(ctx context.Context, taskID string, limit int) ([]*models.Comment, error) {
	var comments []models.Comment
	if err := s.db.Store().Find(&comments, badgerhold.Where("TaskID").Eq(taskID).Index("TaskID")); err != nil {
		return nil, fmt.Errorf("failed to list comments for task %s: %w", taskID, err)
	}
	return recentComments(comments, limit), nil
}

func (s *CommentStorage) GetCommentsByProject(ctx context.Context, projectID string, limit int) ([]*models.Comment, error) {
	var comments []models.Comment
	if err := s.db.Store().Find(&comments, badgerhold.Where("ProjectID").Eq(projectID).Index("ProjectID")); err != nil {
		return nil, fmt.Errorf("failed to list comments for project %s: %w", projectID, err)
	}
	return recentComments(comments, limit), nil
}

func (s *CommentStorage) DeleteComment(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Comment{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// recentComments sorts newest first and applies the limit.
func recentComments(comments []models.Comment, limit int) []*models.Comment {
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	result := make([]*models.Comment, len(comments))
	for i := range comments {
		result[i] = &comments[i]
	}
	return result
}
