package interfaces

import (
	"context"

	"github.com/ternarybob/taskpulse/internal/models"
)

// InsightFilters narrows the admin view to explicit group/project/user sets.
// Empty slices mean no explicit filter for that dimension.
type InsightFilters struct {
	GroupIDs   []string
	ProjectIDs []string
	UserIDs    []string
}

// HasAny reports whether any explicit filter dimension is set.
func (f InsightFilters) HasAny() bool {
	return len(f.GroupIDs) > 0 || len(f.ProjectIDs) > 0 || len(f.UserIDs) > 0
}

// InsightService produces and serves insight records.
type InsightService interface {
	// GetInsight returns the stored record for a scope key, nil when absent.
	// Reading a project scope with no record schedules it for generation.
	GetInsight(ctx context.Context, scope models.InsightScope, scopeKey string) (*models.InsightRecord, error)

	// GenerateNow runs the full pipeline for one scope and persists the result.
	// forceRefresh bypasses the cached hold-over rule.
	GenerateNow(ctx context.Context, scope models.InsightScope, scopeKey string, triggeredBy string, forceRefresh bool) (*models.InsightRecord, error)

	// FilteredAdminInsight generates an admin payload over the actor's visible
	// slice of the organization without persisting anything.
	FilteredAdminInsight(ctx context.Context, actor *models.User, filters InsightFilters) (*models.AdminPayload, error)
}
