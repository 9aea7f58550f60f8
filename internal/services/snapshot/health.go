package snapshot

import (
	"time"

	"github.com/ternarybob/taskpulse/internal/models"
)

// TaskHealth buckets a task for ranking and narrative generation.
type TaskHealth string

const (
	HealthOnTrack        TaskHealth = "on_track"
	HealthAtRisk         TaskHealth = "at_risk"
	HealthNeedsAttention TaskHealth = "needs_attention"
)

// dueSoonWindow is how far ahead a due date counts as "due soon".
const dueSoonWindow = 48 * time.Hour

// ClassifyTask derives the health bucket and label for a task as of now.
// Completed tasks are always on track; hold/blocked beats overdue beats
// due-soon.
func ClassifyTask(task *models.Task, now time.Time) (TaskHealth, string) {
	if task.Status == models.TaskStatusCompleted {
		return HealthOnTrack, "completed"
	}
	if task.Status == models.TaskStatusHold || task.Status == models.TaskStatusBlocked {
		return HealthAtRisk, "on_hold"
	}
	if task.DueDate != nil {
		if task.DueDate.Before(now) {
			return HealthAtRisk, "overdue"
		}
		if task.DueDate.Sub(now) <= dueSoonWindow &&
			(task.Status == models.TaskStatusNotStarted || task.Status == models.TaskStatusInProgress) {
			return HealthNeedsAttention, "due_soon"
		}
	}
	return HealthOnTrack, "stable"
}

// healthRank orders tasks for the serialized sample: not-completed first,
// then at-risk first.
func healthRank(task *models.Task, health TaskHealth) int {
	if task.Status == models.TaskStatusCompleted {
		return 3
	}
	switch health {
	case HealthAtRisk:
		return 0
	case HealthNeedsAttention:
		return 1
	default:
		return 2
	}
}
