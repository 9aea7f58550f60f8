package models

import "time"

// InsightScope identifies the unit of insight generation.
type InsightScope string

const (
	// ScopeProject is one insight per project.
	ScopeProject InsightScope = "project"
	// ScopeAdmin is the single organization-wide insight.
	ScopeAdmin InsightScope = "admin"
)

// InsightSource records how the current content was produced.
type InsightSource string

const (
	// SourceAI marks content freshly generated by the language provider.
	SourceAI InsightSource = "ai"
	// SourceAICached marks content carried over from a prior AI result after
	// a transient provider failure.
	SourceAICached InsightSource = "ai_cached"
	// SourceFallback marks deterministically synthesized content.
	SourceFallback InsightSource = "fallback"
)

// AdminScopeKey is the scope key of the single admin insight record.
const AdminScopeKey = "admin"

// ProjectScopeKey builds the scope key for a project insight record.
func ProjectScopeKey(projectID string) string {
	return "project:" + projectID
}

// Citation is a labelled statistic referenced by a narrative.
type Citation struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TaskInsight is the per-task entry of a project insight.
type TaskInsight struct {
	TaskID         string `json:"task_id"`
	TaskTitle      string `json:"task_title"`
	Health         string `json:"health"`
	Insight        string `json:"insight"`
	Recommendation string `json:"recommendation"`
}

// EntitySummary is a one-line insight for a group or project in the admin view.
type EntitySummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Insight string `json:"insight"`
}

// ProjectPayload is the content of a project-scoped insight.
type ProjectPayload struct {
	Summary        string        `json:"summary"`
	Recommendation string        `json:"recommendation"`
	GoalsSummary   string        `json:"goals_summary"`
	Citations      []Citation    `json:"citations"`
	TaskInsights   []TaskInsight `json:"task_insights"`
}

// AdminPayload is the content of the organization-wide insight.
type AdminPayload struct {
	Analysis         string          `json:"analysis"`
	Recommendations  string          `json:"recommendations"`
	FocusArea        string          `json:"focus_area"`
	TeamBalance      string          `json:"team_balance"`
	QuickWin         string          `json:"quick_win"`
	GroupSummaries   []EntitySummary `json:"group_summaries"`
	ProjectSummaries []EntitySummary `json:"project_summaries"`
}

// InsightRecord is the persisted result of the latest generation attempt for
// one scope. Exactly one record exists per scope key; every write is an
// upsert keyed by ScopeKey. Exactly one of Project/Admin is set, matching
// Scope.
type InsightRecord struct {
	ScopeKey  string       `json:"scope_key" badgerhold:"key"`
	Scope     InsightScope `json:"scope" badgerhold:"index"`
	ProjectID string       `json:"project_id,omitempty"`

	Project *ProjectPayload `json:"project,omitempty"`
	Admin   *AdminPayload   `json:"admin,omitempty"`

	Source        InsightSource `json:"source,omitempty"`
	GeneratedAt   *time.Time    `json:"generated_at,omitempty"`
	GeneratedBy   string        `json:"generated_by,omitempty"`
	LastAttemptAt *time.Time    `json:"last_attempt_at,omitempty"`
	NextDueAt     time.Time     `json:"next_due_at"`
	WordCount     int           `json:"word_count,omitempty"`
	AIError       string        `json:"ai_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExternalView returns a copy suitable for callers outside the pipeline.
// A cache-held-over record is indistinguishable from a fresh AI one.
func (r *InsightRecord) ExternalView() *InsightRecord {
	out := *r
	if out.Source == SourceAICached {
		out.Source = SourceAI
	}
	return &out
}
