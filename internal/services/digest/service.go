package digest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
)

const (
	notificationType = "weekly_digest"
	taskSampleLimit  = 6
)

// Service sends periodic per-user activity digests. Content is deterministic:
// counts over the user's tasks in the digest window plus a short task sample.
type Service struct {
	storage  interfaces.StorageManager
	notifier interfaces.NotificationService
	cfg      *common.DigestConfig
	logger   arbor.ILogger
}

// NewService creates the digest service.
func NewService(storage interfaces.StorageManager, notifier interfaces.NotificationService, cfg *common.DigestConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// userStats aggregates one user's task activity over the digest window.
type userStats struct {
	TotalTasks      int
	Created         int
	Completed       int
	Updated         int
	Overdue         int
	TaskComments    int
	ProjectComments int
}

// ProcessDue sends a digest to every opted-in active user whose last digest
// is older than the configured interval. One user failing never blocks the
// rest.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) error {
	if !s.cfg.Enabled {
		return nil
	}

	users, err := s.storage.UserStorage().GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	interval := time.Duration(s.cfg.IntervalHours) * time.Hour

	var sendErrs []error
	for _, user := range users {
		if user.Status != models.UserStatusActive || !user.Preferences.WeeklyDigest {
			continue
		}
		if user.DigestLastSentAt != nil && user.DigestLastSentAt.Add(interval).After(now) {
			continue
		}

		if err := s.sendDigest(ctx, user, now, interval); err != nil {
			sendErrs = append(sendErrs, fmt.Errorf("digest for %s: %w", user.ID, err))
			s.logger.Warn().
				Err(err).
				Str("user_id", user.ID).
				Msg("Failed to send digest")
		}
	}
	return errors.Join(sendErrs...)
}

func (s *Service) sendDigest(ctx context.Context, user *models.User, now time.Time, window time.Duration) error {
	since := now.Add(-window)

	tasks, err := s.userTasks(ctx, user.ID)
	if err != nil {
		return err
	}

	stats, err := s.collectStats(ctx, tasks, since, now)
	if err != nil {
		return err
	}

	message := renderDigest(user, stats, sampleTasks(tasks), window)
	if err := s.notifier.Notify(ctx, user, notificationType, message); err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}

	sentAt := now
	user.DigestLastSentAt = &sentAt
	if err := s.storage.UserStorage().StoreUser(ctx, user); err != nil {
		return fmt.Errorf("failed to record digest timestamp: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Int("task_count", stats.TotalTasks).
		Msg("Weekly digest sent")
	return nil
}

// userTasks returns the tasks the user is involved in: assigned, collaborating,
// or created by them.
func (s *Service) userTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	all, err := s.storage.TaskStorage().GetAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	involved := make([]*models.Task, 0)
	for _, task := range all {
		if task.AssignedByID == userID ||
			containsID(task.AssigneeIDs, userID) ||
			containsID(task.CollaboratorIDs, userID) {
			involved = append(involved, task)
		}
	}
	return involved, nil
}

func (s *Service) collectStats(ctx context.Context, tasks []*models.Task, since, now time.Time) (userStats, error) {
	stats := userStats{TotalTasks: len(tasks)}

	projectIDs := make(map[string]bool)
	for _, task := range tasks {
		if task.ProjectID != "" {
			projectIDs[task.ProjectID] = true
		}
		if task.CreatedAt.After(since) {
			stats.Created++
		}
		if task.CompletedAt != nil && task.CompletedAt.After(since) {
			stats.Completed++
		}
		if task.UpdatedAt.After(since) {
			stats.Updated++
		}
		if task.Status != models.TaskStatusCompleted && task.DueDate != nil && task.DueDate.Before(now) {
			stats.Overdue++
		}

		comments, err := s.storage.CommentStorage().GetCommentsByTask(ctx, task.ID, 0)
		if err != nil {
			return stats, fmt.Errorf("failed to load comments for task %s: %w", task.ID, err)
		}
		for _, comment := range comments {
			if comment.CreatedAt.After(since) {
				stats.TaskComments++
			}
		}
	}

	for projectID := range projectIDs {
		comments, err := s.storage.CommentStorage().GetCommentsByProject(ctx, projectID, 0)
		if err != nil {
			return stats, fmt.Errorf("failed to load comments for project %s: %w", projectID, err)
		}
		for _, comment := range comments {
			if comment.CreatedAt.After(since) {
				stats.ProjectComments++
			}
		}
	}

	return stats, nil
}

// sampleTasks picks the most recently updated tasks, capped at the sample
// limit.
func sampleTasks(tasks []*models.Task) []*models.Task {
	sorted := make([]*models.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	if len(sorted) > taskSampleLimit {
		sorted = sorted[:taskSampleLimit]
	}
	return sorted
}

func renderDigest(user *models.User, stats userStats, samples []*models.Task, window time.Duration) string {
	days := int(window.Hours() / 24)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, here is your activity for the last %d days.\n\n", user.Name, days)
	fmt.Fprintf(&b, "Tasks: %d total, %d created, %d completed, %d updated, %d overdue.\n",
		stats.TotalTasks, stats.Created, stats.Completed, stats.Updated, stats.Overdue)
	fmt.Fprintf(&b, "Comments: %d on your tasks, %d on your projects.\n",
		stats.TaskComments, stats.ProjectComments)

	if len(samples) > 0 {
		b.WriteString("\nRecent tasks:\n")
		for _, task := range samples {
			line := fmt.Sprintf("- %s (%s, %s priority)", task.Title, task.Status, task.Priority)
			if task.DueDate != nil {
				line += fmt.Sprintf(", due %s", task.DueDate.Format("2006-01-02"))
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
