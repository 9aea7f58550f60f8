package insights

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/services/scope"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
	"github.com/ternarybob/taskpulse/internal/storage/badger"
)

func testInsightsConfig() *common.InsightsConfig {
	return &common.InsightsConfig{
		SchedulerEnabled:     false,
		ProjectIntervalHours: 48,
		AdminIntervalHours:   72,
		PollSeconds:          600,
		ProjectBatchSize:     3,
		ProjectTaskLimit:     40,
		JitterMinutes:        30,
		ScopeTrimLimit:       5,
	}
}

// newTestService wires a service against a throwaway Badger store and a nil
// provider, so every generation lands in the deterministic path.
func newTestService(t *testing.T) (*Service, interfaces.StorageManager) {
	t.Helper()
	logger := common.GetLogger()

	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	cfg := testInsightsConfig()
	builder := snapshot.NewBuilder(storage, cfg.ProjectTaskLimit, logger)
	filter := scope.NewFilter(cfg.ScopeTrimLimit, logger)
	engine := NewEngine(nil, logger)

	return NewService(storage, engine, builder, filter, cfg, logger), storage
}

func storeTestProject(t *testing.T, storage interfaces.StorageManager, id string) *models.Project {
	t.Helper()
	project := &models.Project{
		ID:          id,
		GroupID:     "g1",
		Name:        "Payments",
		Status:      models.ProjectStatusOngoing,
		OwnerID:     "u1",
		HealthScore: 65,
		CreatedAt:   time.Now().UTC().Add(-100 * time.Hour),
	}
	require.NoError(t, storage.ProjectStorage().StoreProject(context.Background(), project))
	return project
}

func TestGenerateNowFallbackShape(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()
	storeTestProject(t, storage, "p1")

	record, err := svc.GenerateNow(ctx, models.ScopeProject, models.ProjectScopeKey("p1"), "u1", false)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.SourceFallback, record.Source)
	assert.NotEmpty(t, record.AIError)
	require.NotNil(t, record.Project)

	// Shape invariant: every prose field within bounds, lists populated.
	summary := wordCount(record.Project.Summary)
	assert.GreaterOrEqual(t, summary, projectSummaryMin)
	assert.LessOrEqual(t, summary, projectSummaryMax)
	assert.NotEmpty(t, record.Project.Citations)
	assert.Equal(t, summary, record.WordCount)

	// Due-time monotonicity: next due within [interval, interval+jitter]
	// of the attempt time.
	require.NotNil(t, record.LastAttemptAt)
	offset := record.NextDueAt.Sub(*record.LastAttemptAt)
	assert.GreaterOrEqual(t, offset, 48*time.Hour)
	assert.LessOrEqual(t, offset, 48*time.Hour+30*time.Minute)
}

func TestGenerateNowCachedHoldOver(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()
	storeTestProject(t, storage, "p1")

	genAt := time.Now().UTC().Add(-24 * time.Hour)
	prior := &models.InsightRecord{
		ScopeKey:    models.ProjectScopeKey("p1"),
		Scope:       models.ScopeProject,
		ProjectID:   "p1",
		Project:     &models.ProjectPayload{Summary: "prior ai summary", Recommendation: "r", GoalsSummary: "g"},
		Source:      models.SourceAI,
		GeneratedAt: &genAt,
		GeneratedBy: "u9",
		WordCount:   3,
		NextDueAt:   genAt.Add(48 * time.Hour),
	}
	require.NoError(t, storage.InsightStorage().UpsertInsight(ctx, prior))

	record, err := svc.GenerateNow(ctx, models.ScopeProject, prior.ScopeKey, "system", false)
	require.NoError(t, err)
	require.NotNil(t, record)

	// External view masks the cached state as a regular AI result.
	assert.Equal(t, models.SourceAI, record.Source)
	assert.Equal(t, "prior ai summary", record.Project.Summary)
	assert.Equal(t, "u9", record.GeneratedBy)
	require.NotNil(t, record.GeneratedAt)
	assert.True(t, record.GeneratedAt.Equal(genAt))
	assert.Equal(t, 3, record.WordCount)
	assert.NotEmpty(t, record.AIError)

	// Stored record carries the real cached source and advanced bookkeeping.
	stored, err := storage.InsightStorage().GetInsight(ctx, prior.ScopeKey)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.SourceAICached, stored.Source)
	assert.Equal(t, "prior ai summary", stored.Project.Summary)
	require.NotNil(t, stored.LastAttemptAt)
	assert.True(t, stored.NextDueAt.After(prior.NextDueAt))
}

func TestGenerateNowForcedRefreshOverridesHoldOver(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()
	storeTestProject(t, storage, "p1")

	genAt := time.Now().UTC().Add(-24 * time.Hour)
	prior := &models.InsightRecord{
		ScopeKey:    models.ProjectScopeKey("p1"),
		Scope:       models.ScopeProject,
		ProjectID:   "p1",
		Project:     &models.ProjectPayload{Summary: "prior ai summary", Recommendation: "r", GoalsSummary: "g"},
		Source:      models.SourceAI,
		GeneratedAt: &genAt,
		NextDueAt:   genAt.Add(48 * time.Hour),
	}
	require.NoError(t, storage.InsightStorage().UpsertInsight(ctx, prior))

	record, err := svc.GenerateNow(ctx, models.ScopeProject, prior.ScopeKey, "u1", true)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.SourceFallback, record.Source)
	assert.NotEqual(t, "prior ai summary", record.Project.Summary)
	assert.Equal(t, "u1", record.GeneratedBy)
}

func TestGenerateNowMissingProjectDeletesRecord(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	scopeKey := models.ProjectScopeKey("gone")
	stale := &models.InsightRecord{
		ScopeKey:  scopeKey,
		Scope:     models.ScopeProject,
		ProjectID: "gone",
		NextDueAt: time.Now().UTC(),
	}
	require.NoError(t, storage.InsightStorage().UpsertInsight(ctx, stale))

	record, err := svc.GenerateNow(ctx, models.ScopeProject, scopeKey, "system", false)
	require.NoError(t, err)
	assert.Nil(t, record)

	remaining, err := storage.InsightStorage().GetInsight(ctx, scopeKey)
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestGetInsightSchedulesLazily(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()
	project := storeTestProject(t, storage, "p1")

	record, err := svc.GetInsight(ctx, models.ScopeProject, models.ProjectScopeKey("p1"))
	require.NoError(t, err)
	require.NotNil(t, record)

	// Scheduled but not yet generated.
	assert.Empty(t, record.Source)
	assert.Nil(t, record.Project)

	// First schedule anchors at project creation time.
	offset := record.NextDueAt.Sub(project.CreatedAt)
	assert.GreaterOrEqual(t, offset, 48*time.Hour)
	assert.LessOrEqual(t, offset, 48*time.Hour+30*time.Minute)
}

func TestGetInsightUnknownProjectReturnsNil(t *testing.T) {
	svc, _ := newTestService(t)

	record, err := svc.GetInsight(context.Background(), models.ScopeProject, models.ProjectScopeKey("nope"))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestGenerateNowAdminScope(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()
	storeTestProject(t, storage, "p1")

	record, err := svc.GenerateNow(ctx, models.ScopeAdmin, models.AdminScopeKey, "system", false)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.ScopeAdmin, record.Scope)
	require.NotNil(t, record.Admin)

	analysis := wordCount(record.Admin.Analysis)
	assert.GreaterOrEqual(t, analysis, adminAnalysisMin)
	assert.LessOrEqual(t, analysis, adminAnalysisMax)
	recs := wordCount(record.Admin.Recommendations)
	assert.GreaterOrEqual(t, recs, adminRecsMin)
	assert.LessOrEqual(t, recs, adminRecsMax)
	assert.Equal(t, recs, record.WordCount)
}

func TestFilteredAdminInsight(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()
	storeTestProject(t, storage, "p1")

	t.Run("admin role gets a fully shaped payload", func(t *testing.T) {
		actor := &models.User{ID: "a1", Role: models.RoleAdmin}
		payload, err := svc.FilteredAdminInsight(ctx, actor, interfaces.InsightFilters{})
		require.NoError(t, err)
		require.NotNil(t, payload)
		assert.GreaterOrEqual(t, wordCount(payload.Analysis), adminAnalysisMin)
		assert.NotEmpty(t, payload.FocusArea)
	})

	t.Run("regular user role is rejected", func(t *testing.T) {
		actor := &models.User{ID: "u1", Role: models.RoleUser}
		_, err := svc.FilteredAdminInsight(ctx, actor, interfaces.InsightFilters{})
		require.Error(t, err)
	})
}

func TestNextDueAtBounds(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	interval := 48 * time.Hour
	jitter := 360 * time.Minute

	for i := 0; i < 50; i++ {
		due := NextDueAt(base, interval, jitter)
		offset := due.Sub(base)
		if offset < interval || offset >= interval+jitter {
			t.Fatalf("due offset %s outside [%s, %s)", offset, interval, interval+jitter)
		}
	}

	// Zero jitter is exact.
	assert.Equal(t, base.Add(interval), NextDueAt(base, interval, 0))
}
