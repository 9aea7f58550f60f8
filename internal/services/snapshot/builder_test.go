package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/models"
)

func TestGoalStats(t *testing.T) {
	tests := []struct {
		name         string
		goals        []models.Goal
		achievements []models.Achievement
		expected     GoalStats
	}{
		{
			name:     "no goals",
			expected: GoalStats{},
		},
		{
			name: "all goals answered",
			goals: []models.Goal{
				{ID: 1, Text: "ship beta"},
				{ID: 2, Text: "close bugs"},
			},
			achievements: []models.Achievement{
				{ID: 10, GoalID: 1},
				{ID: 11, GoalID: 2},
			},
			expected: GoalStats{Total: 2, Matched: 2, MatchRatePct: 100},
		},
		{
			name: "unlinked achievements do not count",
			goals: []models.Goal{
				{ID: 1},
				{ID: 2},
				{ID: 3},
			},
			achievements: []models.Achievement{
				{ID: 10, GoalID: 1},
				{ID: 11}, // no goal link
			},
			expected: GoalStats{Total: 3, Matched: 1, MatchRatePct: 33},
		},
		{
			name: "achievement for unknown goal is ignored",
			goals: []models.Goal{
				{ID: 1},
			},
			achievements: []models.Achievement{
				{ID: 10, GoalID: 99},
			},
			expected: GoalStats{Total: 1, Matched: 0, MatchRatePct: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, goalStats(tt.goals, tt.achievements))
		})
	}
}

func TestBuildAdminSnapshotFrom(t *testing.T) {
	logger := common.GetLogger()
	builder := NewBuilder(nil, 40, logger)

	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)

	groups := []*models.Group{
		{ID: "g1", Name: "Platform"},
		{ID: "g2", Name: "Mobile"},
	}
	projects := []*models.Project{
		{ID: "p1", GroupID: "g1", Name: "API", HealthScore: 80},
		{ID: "p2", GroupID: "g1", Name: "Auth", HealthScore: 40},
		{ID: "p3", GroupID: "g2", Name: "iOS", HealthScore: 90},
	}
	tasks := []*models.Task{
		{ID: "t1", ProjectID: "p1", Status: models.TaskStatusCompleted, AssigneeIDs: []string{"u1"}},
		{ID: "t2", ProjectID: "p1", Status: models.TaskStatusInProgress, DueDate: &past, AssigneeIDs: []string{"u1", "u2"}},
		{ID: "t3", ProjectID: "p2", Status: models.TaskStatusHold, AssigneeIDs: []string{"u2"}},
		{ID: "t4", ProjectID: "p3", Status: models.TaskStatusInProgress, AssignedByID: "u1"},
	}
	users := []*models.User{
		{ID: "u1", Name: "Ana", Role: models.RoleManager},
		{ID: "u2", Name: "Ben", Role: models.RoleUser},
	}

	snap := builder.BuildAdminSnapshotFrom(groups, projects, tasks, users)
	require.NotNil(t, snap)

	assert.Equal(t, 2, snap.GroupCount)
	assert.Equal(t, 3, snap.ProjectCount)
	assert.Equal(t, 4, snap.TaskCount)
	assert.Equal(t, 2, snap.UserCount)
	assert.Equal(t, 1, snap.CompletedTasks)
	assert.Equal(t, 1, snap.OverdueTasks)
	assert.Equal(t, 1, snap.HoldTasks)

	byGroup := make(map[string]GroupStat)
	for _, g := range snap.Groups {
		byGroup[g.ID] = g
	}
	assert.Equal(t, 2, byGroup["g1"].ProjectCount)
	assert.InDelta(t, 60.0, byGroup["g1"].AvgHealth, 0.001)
	assert.Equal(t, 1, byGroup["g2"].ProjectCount)

	byProject := make(map[string]ProjectStat)
	for _, p := range snap.Projects {
		byProject[p.ID] = p
	}
	assert.Equal(t, 2, byProject["p1"].TaskCount)
	assert.Equal(t, 1, byProject["p1"].OverdueCount)
	assert.Equal(t, 1, byProject["p2"].HoldCount)

	byUser := make(map[string]UserStat)
	for _, u := range snap.Users {
		byUser[u.ID] = u
	}
	// u1: assignee on t1+t2, creator of t4
	assert.Equal(t, 3, byUser["u1"].TaskCount)
	assert.Equal(t, 1, byUser["u1"].OverdueCount)
	// u2: assignee on t2+t3
	assert.Equal(t, 2, byUser["u2"].TaskCount)
}

func TestSampleTasksRankingAndCap(t *testing.T) {
	logger := common.GetLogger()
	builder := NewBuilder(nil, 2, logger)

	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	tasks := []*models.Task{
		{ID: "done", Status: models.TaskStatusCompleted},
		{ID: "stable", Status: models.TaskStatusInProgress},
		{ID: "late", Status: models.TaskStatusInProgress, DueDate: &past},
	}

	samples, completed, overdue, hold, dueSoon := builder.sampleTasks(tasks, now)

	// Counts cover the full list even though the sample is capped.
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, overdue)
	assert.Equal(t, 0, hold)
	assert.Equal(t, 0, dueSoon)

	require.Len(t, samples, 2)
	assert.Equal(t, "late", samples[0].ID)
	assert.Equal(t, "stable", samples[1].ID)
}

func TestTrimText(t *testing.T) {
	assert.Equal(t, "a b c", trimText("  a\n b\t c ", 140))

	long := strings.Repeat("x", 200)
	trimmed := trimText(long, 140)
	assert.Len(t, trimmed, 140)
	assert.True(t, strings.HasSuffix(trimmed, "..."))
}
