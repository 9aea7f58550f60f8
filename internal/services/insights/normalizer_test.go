package insights

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
)

func projectSnapshotFixture() *snapshot.ProjectSnapshot {
	return &snapshot.ProjectSnapshot{
		ProjectID:      "p1",
		Name:           "API Rework",
		Status:         "ongoing",
		HealthScore:    70,
		TaskTotal:      10,
		CompletedCount: 4,
		OverdueCount:   2,
		HoldCount:      1,
		DueSoonCount:   1,
		Goals:          snapshot.GoalStats{Total: 4, Matched: 3, MatchRatePct: 75},
		SampledTasks: []snapshot.TaskSample{
			{ID: "t1", Title: "Fix login", Health: snapshot.HealthAtRisk, HealthLabel: "overdue"},
			{ID: "t2", Title: "Write docs", Health: snapshot.HealthOnTrack, HealthLabel: "stable"},
		},
	}
}

func TestNormalizeProseFloorAndCeiling(t *testing.T) {
	pool := []string{
		strings.Repeat("alpha ", 30),
		strings.Repeat("beta ", 30),
	}

	t.Run("short text is expanded to the floor", func(t *testing.T) {
		out := normalizeProse("too short", 100, 150, pool)
		words := wordCount(out)
		assert.GreaterOrEqual(t, words, 100)
		assert.LessOrEqual(t, words, 150)
	})

	t.Run("long text is truncated at a word boundary", func(t *testing.T) {
		long := strings.Repeat("word ", 400)
		out := normalizeProse(long, 100, 150, pool)
		assert.Equal(t, 150, wordCount(out))
		assert.False(t, strings.HasSuffix(out, " "))
	})

	t.Run("empty input is built entirely from the pool", func(t *testing.T) {
		out := normalizeProse("", 100, 150, pool)
		assert.GreaterOrEqual(t, wordCount(out), 100)
		assert.Contains(t, out, "alpha")
	})
}

func TestSanitizeProse(t *testing.T) {
	t.Run("strips serialized array fragments", func(t *testing.T) {
		in := `The project is healthy. [{"label": "x", "value": "1"}] More prose follows.`
		out := sanitizeProse(in)
		assert.NotContains(t, out, "label")
		assert.Contains(t, out, "The project is healthy.")
		assert.Contains(t, out, "More prose follows.")
	})

	t.Run("strips fenced blocks and object fragments", func(t *testing.T) {
		in := "Before.\n```json\n{\"a\": 1}\n```\nAfter. {\"leak\": true}"
		out := sanitizeProse(in)
		assert.NotContains(t, out, "leak")
		assert.NotContains(t, out, "```")
		assert.Contains(t, out, "Before.")
		assert.Contains(t, out, "After.")
	})

	t.Run("collapses excess blank lines", func(t *testing.T) {
		out := sanitizeProse("a\n\n\n\n\nb")
		assert.Equal(t, "a\n\nb", out)
	})
}

func TestCoerceCitationsShapes(t *testing.T) {
	fallback := []models.Citation{{Label: "fb", Value: "1"}}

	tests := []struct {
		name     string
		raw      string
		expected []models.Citation
	}{
		{
			name:     "native list",
			raw:      `[{"label": "total", "value": "10"}]`,
			expected: []models.Citation{{Label: "total", Value: "10"}},
		},
		{
			name:     "JSON-encoded string",
			raw:      `"[{\"label\": \"total\", \"value\": \"10\"}]"`,
			expected: []models.Citation{{Label: "total", Value: "10"}},
		},
		{
			name:     "dict wrapping the list under a hinted key",
			raw:      `{"citations": [{"label": "total", "value": "10"}]}`,
			expected: []models.Citation{{Label: "total", Value: "10"}},
		},
		{
			name:     "dict wrapping the list under an arbitrary key",
			raw:      `{"data": [{"label": "total", "value": "10"}]}`,
			expected: []models.Citation{{Label: "total", Value: "10"}},
		},
		{
			name:     "numeric value is stringified",
			raw:      `[{"label": "total", "value": 10}]`,
			expected: []models.Citation{{Label: "total", Value: "10"}},
		},
		{
			name:     "missing field falls back",
			raw:      "",
			expected: fallback,
		},
		{
			name:     "unusable shape falls back",
			raw:      `42`,
			expected: fallback,
		},
		{
			name:     "empty list falls back",
			raw:      `[]`,
			expected: fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			assert.Equal(t, tt.expected, coerceCitations(raw, fallback))
		})
	}
}

func TestCoerceTaskInsightsIDsAreStringified(t *testing.T) {
	raw := json.RawMessage(`[{"task_id": 42, "task_title": "Fix login", "health": "at_risk", "insight": "late", "recommendation": "finish"}]`)
	out := coerceTaskInsights(raw, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "42", out[0].TaskID)
}

func TestNormalizeProjectPayloadBounds(t *testing.T) {
	snap := projectSnapshotFixture()
	out := &projectOutput{
		Summary:        "Short summary.",
		Recommendation: "Do the thing.",
		GoalsSummary:   "Fine.",
	}

	payload := normalizeProjectPayload(out, snap)

	assert.GreaterOrEqual(t, wordCount(payload.Summary), projectSummaryMin)
	assert.LessOrEqual(t, wordCount(payload.Summary), projectSummaryMax)
	assert.GreaterOrEqual(t, wordCount(payload.Recommendation), projectRecMin)
	assert.LessOrEqual(t, wordCount(payload.Recommendation), projectRecMax)
	assert.GreaterOrEqual(t, wordCount(payload.GoalsSummary), goalsSummaryMin)
	assert.LessOrEqual(t, wordCount(payload.GoalsSummary), goalsSummaryMax)

	// Missing list fields are substituted deterministically.
	require.NotEmpty(t, payload.Citations)
	require.Len(t, payload.TaskInsights, 2)
	assert.Equal(t, "t1", payload.TaskInsights[0].TaskID)
}

func TestNormalizedFallbackAdminMeetsBoundsOnEmptySnapshot(t *testing.T) {
	payload := normalizedFallbackAdmin(&snapshot.AdminSnapshot{})

	assert.GreaterOrEqual(t, wordCount(payload.Analysis), adminAnalysisMin)
	assert.LessOrEqual(t, wordCount(payload.Analysis), adminAnalysisMax)
	assert.GreaterOrEqual(t, wordCount(payload.Recommendations), adminRecsMin)
	assert.LessOrEqual(t, wordCount(payload.Recommendations), adminRecsMax)
	assert.NotEmpty(t, payload.FocusArea)
	assert.NotEmpty(t, payload.TeamBalance)
	assert.NotEmpty(t, payload.QuickWin)
}

func TestNormalizedFallbackProjectMeetsBounds(t *testing.T) {
	payload := normalizedFallbackProject(projectSnapshotFixture())

	assert.GreaterOrEqual(t, wordCount(payload.Summary), projectSummaryMin)
	assert.LessOrEqual(t, wordCount(payload.Summary), projectSummaryMax)
	assert.GreaterOrEqual(t, wordCount(payload.Recommendation), projectRecMin)
	assert.LessOrEqual(t, wordCount(payload.Recommendation), projectRecMax)
	assert.GreaterOrEqual(t, wordCount(payload.GoalsSummary), goalsSummaryMin)
	assert.LessOrEqual(t, wordCount(payload.GoalsSummary), goalsSummaryMax)
	assert.Len(t, payload.Citations, 6)
}
