package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
)

// ErrProjectNotFound signals that the owning project no longer exists; the
// orchestrator reacts by deleting the stale insight record.
var ErrProjectNotFound = errors.New("project not found")

const (
	commentSampleLimit = 5
	commentTrimLimit   = 140
	defaultTaskLimit   = 40
)

// Builder assembles bounded, denormalized snapshots from the record store.
type Builder struct {
	storage   interfaces.StorageManager
	taskLimit int
	logger    arbor.ILogger
}

// NewBuilder creates a snapshot builder. taskLimit caps the serialized task
// sample of a project snapshot.
func NewBuilder(storage interfaces.StorageManager, taskLimit int, logger arbor.ILogger) *Builder {
	if taskLimit <= 0 {
		taskLimit = defaultTaskLimit
	}
	return &Builder{
		storage:   storage,
		taskLimit: taskLimit,
		logger:    logger,
	}
}

// BuildProjectSnapshot reads the project, its tasks, and recent comments and
// assembles the generation context. Returns ErrProjectNotFound when the
// project record is gone.
func (b *Builder) BuildProjectSnapshot(ctx context.Context, projectID string) (*ProjectSnapshot, error) {
	project, err := b.storage.ProjectStorage().GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", projectID, err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	tasks, err := b.storage.TaskStorage().GetTasksByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks for project %s: %w", projectID, err)
	}

	now := time.Now().UTC()
	snap := &ProjectSnapshot{
		ProjectID:   project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		HealthScore: project.HealthScore,
		TaskTotal:   len(tasks),
		Goals:       goalStats(project.WeeklyGoals, project.WeeklyAchievements),
		TakenAt:     now,
	}

	snap.SampledTasks, snap.CompletedCount, snap.OverdueCount, snap.HoldCount, snap.DueSoonCount =
		b.sampleTasks(tasks, now)

	projectComments, err := b.storage.CommentStorage().GetCommentsByProject(ctx, projectID, commentSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read project comments: %w", err)
	}
	snap.ProjectComments = commentSamples(projectComments)

	snap.TaskComments = b.sampleTaskComments(ctx, tasks)

	return snap, nil
}

// BuildAdminSnapshot reads all groups, projects, tasks, and users and computes
// the organization-wide aggregates.
func (b *Builder) BuildAdminSnapshot(ctx context.Context) (*AdminSnapshot, error) {
	groups, err := b.storage.GroupStorage().GetAllGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read groups: %w", err)
	}
	projects, err := b.storage.ProjectStorage().GetAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}
	tasks, err := b.storage.TaskStorage().GetAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	users, err := b.storage.UserStorage().GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	return b.BuildAdminSnapshotFrom(groups, projects, tasks, users), nil
}

// BuildAdminSnapshotFrom computes the admin aggregates over pre-filtered
// entity lists. Used by the role-scoped filtered view.
func (b *Builder) BuildAdminSnapshotFrom(groups []*models.Group, projects []*models.Project, tasks []*models.Task, users []*models.User) *AdminSnapshot {
	now := time.Now().UTC()
	snap := &AdminSnapshot{
		GroupCount:   len(groups),
		ProjectCount: len(projects),
		TaskCount:    len(tasks),
		UserCount:    len(users),
		TakenAt:      now,
	}

	// Per-project task aggregates
	taskCounts := make(map[string]int)
	overdueCounts := make(map[string]int)
	holdCounts := make(map[string]int)
	for _, task := range tasks {
		taskCounts[task.ProjectID]++
		health, label := ClassifyTask(task, now)
		if task.Status == models.TaskStatusCompleted {
			snap.CompletedTasks++
		}
		if label == "overdue" {
			overdueCounts[task.ProjectID]++
			snap.OverdueTasks++
		}
		if health == HealthAtRisk && label == "on_hold" {
			holdCounts[task.ProjectID]++
			snap.HoldTasks++
		}
	}

	snap.Projects = make([]ProjectStat, 0, len(projects))
	healthByGroup := make(map[string][]int)
	projectCountByGroup := make(map[string]int)
	for _, project := range projects {
		snap.Projects = append(snap.Projects, ProjectStat{
			ID:           project.ID,
			Name:         project.Name,
			GroupID:      project.GroupID,
			Status:       string(project.Status),
			HealthScore:  project.HealthScore,
			TaskCount:    taskCounts[project.ID],
			OverdueCount: overdueCounts[project.ID],
			HoldCount:    holdCounts[project.ID],
		})
		if project.GroupID != "" {
			projectCountByGroup[project.GroupID]++
			healthByGroup[project.GroupID] = append(healthByGroup[project.GroupID], project.HealthScore)
		}
	}

	snap.Groups = make([]GroupStat, 0, len(groups))
	for _, group := range groups {
		stat := GroupStat{
			ID:           group.ID,
			Name:         group.Name,
			ProjectCount: projectCountByGroup[group.ID],
		}
		if scores := healthByGroup[group.ID]; len(scores) > 0 {
			sum := 0
			for _, s := range scores {
				sum += s
			}
			stat.AvgHealth = float64(sum) / float64(len(scores))
		}
		snap.Groups = append(snap.Groups, stat)
	}

	// Per-user task aggregates over assignees, collaborators, and creators
	userTaskCounts := make(map[string]int)
	userOverdueCounts := make(map[string]int)
	for _, task := range tasks {
		_, label := ClassifyTask(task, now)
		seen := make(map[string]bool)
		ids := make([]string, 0, len(task.AssigneeIDs)+len(task.CollaboratorIDs)+1)
		ids = append(ids, task.AssigneeIDs...)
		ids = append(ids, task.CollaboratorIDs...)
		if task.AssignedByID != "" {
			ids = append(ids, task.AssignedByID)
		}
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			userTaskCounts[id]++
			if label == "overdue" {
				userOverdueCounts[id]++
			}
		}
	}

	snap.Users = make([]UserStat, 0, len(users))
	for _, user := range users {
		snap.Users = append(snap.Users, UserStat{
			ID:           user.ID,
			Name:         user.Name,
			Role:         string(user.Role),
			TaskCount:    userTaskCounts[user.ID],
			OverdueCount: userOverdueCounts[user.ID],
		})
	}

	return snap
}

// sampleTasks classifies, ranks, and caps the task list. Returns the sample
// plus the full-list status counts.
func (b *Builder) sampleTasks(tasks []*models.Task, now time.Time) (samples []TaskSample, completed, overdue, hold, dueSoon int) {
	type ranked struct {
		sample TaskSample
		rank   int
	}

	all := make([]ranked, 0, len(tasks))
	for _, task := range tasks {
		health, label := ClassifyTask(task, now)
		switch label {
		case "completed":
			completed++
		case "overdue":
			overdue++
		case "on_hold":
			hold++
		case "due_soon":
			dueSoon++
		}

		achieved := 0
		for _, goal := range task.WeeklyGoals {
			if goal.Status == models.GoalStatusAchieved {
				achieved++
			}
		}

		all = append(all, ranked{
			sample: TaskSample{
				ID:            task.ID,
				Title:         task.Title,
				Status:        string(task.Status),
				Priority:      string(task.Priority),
				Health:        health,
				HealthLabel:   label,
				DueDate:       task.DueDate,
				AssigneeCount: len(task.AssigneeIDs),
				GoalsTotal:    len(task.WeeklyGoals),
				GoalsAchieved: achieved,
			},
			rank: healthRank(task, health),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].rank < all[j].rank
	})

	limit := b.taskLimit
	if len(all) < limit {
		limit = len(all)
	}
	samples = make([]TaskSample, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, all[i].sample)
	}
	return samples, completed, overdue, hold, dueSoon
}

// sampleTaskComments gathers the most recent task-level comments across the
// project's tasks, capped at the sample limit.
func (b *Builder) sampleTaskComments(ctx context.Context, tasks []*models.Task) []CommentSample {
	var collected []*models.Comment
	for _, task := range tasks {
		comments, err := b.storage.CommentStorage().GetCommentsByTask(ctx, task.ID, commentSampleLimit)
		if err != nil {
			b.logger.Warn().Err(err).Str("task_id", task.ID).Msg("Failed to read task comments")
			continue
		}
		collected = append(collected, comments...)
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].CreatedAt.After(collected[j].CreatedAt)
	})
	if len(collected) > commentSampleLimit {
		collected = collected[:commentSampleLimit]
	}
	return commentSamples(collected)
}

// goalStats counts goals with at least one linked achievement reply.
func goalStats(goals []models.Goal, achievements []models.Achievement) GoalStats {
	stats := GoalStats{Total: len(goals)}
	if len(goals) == 0 {
		return stats
	}

	answered := make(map[int]bool)
	for _, a := range achievements {
		if a.GoalID != 0 {
			answered[a.GoalID] = true
		}
	}
	for _, g := range goals {
		if answered[g.ID] {
			stats.Matched++
		}
	}
	stats.MatchRatePct = stats.Matched * 100 / stats.Total
	return stats
}

func commentSamples(comments []*models.Comment) []CommentSample {
	samples := make([]CommentSample, 0, len(comments))
	for _, c := range comments {
		samples = append(samples, CommentSample{
			Content:   trimText(c.Content, commentTrimLimit),
			CreatedAt: c.CreatedAt,
			UserID:    c.UserID,
			TaskID:    c.TaskID,
		})
	}
	return samples
}

// trimText collapses whitespace and truncates to limit with an ellipsis.
func trimText(value string, limit int) string {
	text := strings.Join(strings.Fields(value), " ")
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}
