package snapshot

import (
	"testing"
	"time"

	"github.com/ternarybob/taskpulse/internal/models"
)

func TestClassifyTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	soon := now.Add(24 * time.Hour)
	far := now.Add(10 * 24 * time.Hour)

	tests := []struct {
		name          string
		status        models.TaskStatus
		dueDate       *time.Time
		expectedHlth  TaskHealth
		expectedLabel string
	}{
		{
			name:          "completed task is always on track",
			status:        models.TaskStatusCompleted,
			dueDate:       &past,
			expectedHlth:  HealthOnTrack,
			expectedLabel: "completed",
		},
		{
			name:          "hold task is at risk even without a due date",
			status:        models.TaskStatusHold,
			expectedHlth:  HealthAtRisk,
			expectedLabel: "on_hold",
		},
		{
			name:          "blocked task is at risk",
			status:        models.TaskStatusBlocked,
			dueDate:       &soon,
			expectedHlth:  HealthAtRisk,
			expectedLabel: "on_hold",
		},
		{
			name:          "hold beats overdue",
			status:        models.TaskStatusHold,
			dueDate:       &past,
			expectedHlth:  HealthAtRisk,
			expectedLabel: "on_hold",
		},
		{
			name:          "overdue in-progress task is at risk",
			status:        models.TaskStatusInProgress,
			dueDate:       &past,
			expectedHlth:  HealthAtRisk,
			expectedLabel: "overdue",
		},
		{
			name:          "due within the window and not started",
			status:        models.TaskStatusNotStarted,
			dueDate:       &soon,
			expectedHlth:  HealthNeedsAttention,
			expectedLabel: "due_soon",
		},
		{
			name:          "due within the window and in progress",
			status:        models.TaskStatusInProgress,
			dueDate:       &soon,
			expectedHlth:  HealthNeedsAttention,
			expectedLabel: "due_soon",
		},
		{
			name:          "due within the window but in review stays stable",
			status:        models.TaskStatusReview,
			dueDate:       &soon,
			expectedHlth:  HealthOnTrack,
			expectedLabel: "stable",
		},
		{
			name:          "due far out is stable",
			status:        models.TaskStatusInProgress,
			dueDate:       &far,
			expectedHlth:  HealthOnTrack,
			expectedLabel: "stable",
		},
		{
			name:          "no due date is stable",
			status:        models.TaskStatusInProgress,
			expectedHlth:  HealthOnTrack,
			expectedLabel: "stable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &models.Task{
				ID:      "task-1",
				Status:  tt.status,
				DueDate: tt.dueDate,
			}
			health, label := ClassifyTask(task, now)
			if health != tt.expectedHlth {
				t.Errorf("health = %s, want %s", health, tt.expectedHlth)
			}
			if label != tt.expectedLabel {
				t.Errorf("label = %s, want %s", label, tt.expectedLabel)
			}
		})
	}
}

func TestHealthRank(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	overdueTask := &models.Task{Status: models.TaskStatusInProgress, DueDate: &past}
	overdueHealth, _ := ClassifyTask(overdueTask, now)
	completedTask := &models.Task{Status: models.TaskStatusCompleted}
	completedHealth, _ := ClassifyTask(completedTask, now)
	stableTask := &models.Task{Status: models.TaskStatusInProgress}
	stableHealth, _ := ClassifyTask(stableTask, now)

	if healthRank(overdueTask, overdueHealth) >= healthRank(stableTask, stableHealth) {
		t.Error("at-risk tasks must rank before stable tasks")
	}
	if healthRank(stableTask, stableHealth) >= healthRank(completedTask, completedHealth) {
		t.Error("completed tasks must rank last")
	}
}
