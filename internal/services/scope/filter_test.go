package scope

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
)

func testEntities() Entities {
	return Entities{
		Groups: []*models.Group{
			{ID: "g1", Name: "Platform", OwnerID: "owner1"},
			{ID: "g2", Name: "Mobile", OwnerID: "owner2"},
		},
		Projects: []*models.Project{
			{ID: "p1", GroupID: "g1", OwnerID: "owner1"},
			{ID: "p2", GroupID: "g2", OwnerID: "owner2", CollaboratorIDs: []string{"collab1"}},
			{ID: "p3", GroupID: "g2", OwnerID: "owner2"},
		},
		Tasks: []*models.Task{
			{ID: "t1", ProjectID: "p1", AssigneeIDs: []string{"u1"}},
			{ID: "t2", ProjectID: "p2", AssigneeIDs: []string{"u2"}},
			{ID: "t3", ProjectID: "p3", AssignedByID: "owner2"},
		},
		Users: []*models.User{
			{ID: "owner1"},
			{ID: "owner2"},
			{ID: "collab1"},
			{ID: "u1"},
			{ID: "u2"},
			{ID: "unrelated"},
		},
		Comments: []*models.Comment{
			{ID: "c1", TaskID: "t1", UserID: "u1"},
			{ID: "c2", ProjectID: "p2", UserID: "u2"},
			{ID: "c3", TaskID: "t3", UserID: "owner2"},
		},
	}
}

func TestClosureGrantedGroup(t *testing.T) {
	filter := NewFilter(5, common.GetLogger())

	actor := &models.User{
		ID:     "manager1",
		Role:   models.RoleManager,
		Access: models.AccessGrant{GroupIDs: []string{"g1"}},
	}

	out := filter.Closure(actor, testEntities())

	require.Len(t, out.Groups, 1)
	assert.Equal(t, "g1", out.Groups[0].ID)
	require.Len(t, out.Projects, 1)
	assert.Equal(t, "p1", out.Projects[0].ID)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "t1", out.Tasks[0].ID)

	// Users: project owner plus task assignee, nobody unconnected.
	userIDs := make(map[string]bool)
	for _, u := range out.Users {
		userIDs[u.ID] = true
	}
	assert.True(t, userIDs["owner1"])
	assert.True(t, userIDs["u1"])
	assert.False(t, userIDs["unrelated"])
	assert.False(t, userIDs["u2"])

	require.Len(t, out.Comments, 1)
	assert.Equal(t, "c1", out.Comments[0].ID)
}

func TestClosureTaskInvolvementExpandsProjects(t *testing.T) {
	filter := NewFilter(5, common.GetLogger())

	// No grants at all: reachability comes only from task assignment on t2.
	actor := &models.User{ID: "u2", Role: models.RoleManager}

	out := filter.Closure(actor, testEntities())

	require.Len(t, out.Projects, 1)
	assert.Equal(t, "p2", out.Projects[0].ID)

	// The owning group is pulled in to keep the lists consistent.
	require.Len(t, out.Groups, 1)
	assert.Equal(t, "g2", out.Groups[0].ID)
}

func TestTrimKeepsMostRecentProjects(t *testing.T) {
	filter := NewFilter(5, common.GetLogger())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := Entities{}
	for i := 0; i < 12; i++ {
		in.Projects = append(in.Projects, &models.Project{
			ID:        fmt.Sprintf("p%d", i),
			GroupID:   "g1",
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	in.Groups = []*models.Group{{ID: "g1"}}

	out := filter.Trim(in)

	require.Len(t, out.Projects, 5)
	// Newest first survive: p11..p7.
	kept := make(map[string]bool)
	for _, p := range out.Projects {
		kept[p.ID] = true
	}
	for i := 7; i <= 11; i++ {
		assert.True(t, kept[fmt.Sprintf("p%d", i)], "expected p%d in trimmed set", i)
	}
}

func TestTrimRecomputesDownstreamSets(t *testing.T) {
	filter := NewFilter(1, common.GetLogger())

	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	in := Entities{
		Groups: []*models.Group{{ID: "g1"}, {ID: "g2"}},
		Projects: []*models.Project{
			{ID: "p1", GroupID: "g1", UpdatedAt: newer},
			{ID: "p2", GroupID: "g2", UpdatedAt: older},
		},
		Tasks: []*models.Task{
			{ID: "t1", ProjectID: "p1"},
			{ID: "t2", ProjectID: "p2"},
		},
		Comments: []*models.Comment{
			{ID: "c1", ProjectID: "p1"},
			{ID: "c2", ProjectID: "p2"},
		},
	}

	out := filter.Trim(in)

	require.Len(t, out.Projects, 1)
	assert.Equal(t, "p1", out.Projects[0].ID)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, "g1", out.Groups[0].ID)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "t1", out.Tasks[0].ID)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, "c1", out.Comments[0].ID)
}

func TestApplyExplicitUserOnlyFilterKeepsProjects(t *testing.T) {
	filter := NewFilter(5, common.GetLogger())
	in := testEntities()

	out := filter.ApplyExplicit(in, interfaces.InsightFilters{UserIDs: []string{"u1"}})

	assert.Len(t, out.Projects, 3)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "u1", out.Users[0].ID)
}

func TestApplyExplicitGroupFilter(t *testing.T) {
	filter := NewFilter(5, common.GetLogger())
	in := testEntities()

	out := filter.ApplyExplicit(in, interfaces.InsightFilters{GroupIDs: []string{"g2"}})

	require.Len(t, out.Projects, 2)
	for _, p := range out.Projects {
		assert.Equal(t, "g2", p.GroupID)
	}
	for _, task := range out.Tasks {
		assert.NotEqual(t, "p1", task.ProjectID)
	}
}

func TestIntersectFilters(t *testing.T) {
	allowed := Entities{
		Groups:   []*models.Group{{ID: "g1"}},
		Projects: []*models.Project{{ID: "p1"}},
		Users:    []*models.User{{ID: "u1"}},
	}

	filters := interfaces.InsightFilters{
		GroupIDs:   []string{"g1", "g9"},
		ProjectIDs: []string{"p9"},
		UserIDs:    []string{"u1"},
	}

	out := IntersectFilters(filters, allowed)

	assert.Equal(t, []string{"g1"}, out.GroupIDs)
	assert.Empty(t, out.ProjectIDs)
	assert.Equal(t, []string{"u1"}, out.UserIDs)

	// Nothing survives: the caller falls back to the trimmed default view.
	none := IntersectFilters(interfaces.InsightFilters{GroupIDs: []string{"g9"}}, allowed)
	assert.False(t, none.HasAny())
}
