package insights

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/services/scope"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
)

const projectScopePrefix = "project:"

// Service orchestrates the pipeline for one scope at a time: snapshot,
// generation, normalization, staleness bookkeeping, upsert. It is the only
// writer of insight records.
type Service struct {
	storage interfaces.StorageManager
	engine  *Engine
	builder *snapshot.Builder
	filter  *scope.Filter
	cfg     *common.InsightsConfig
	logger  arbor.ILogger
}

// NewService creates the insight service.
func NewService(storage interfaces.StorageManager, engine *Engine, builder *snapshot.Builder, filter *scope.Filter, cfg *common.InsightsConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		engine:  engine,
		builder: builder,
		filter:  filter,
		cfg:     cfg,
		logger:  logger,
	}
}

// NextDueAt computes the next regeneration time: base + interval + jitter,
// where jitter is uniform over [0, jitterMax) to spread regeneration spikes.
func NextDueAt(base time.Time, interval, jitterMax time.Duration) time.Time {
	due := base.Add(interval)
	if jitterMax > 0 {
		due = due.Add(time.Duration(rand.Int63n(int64(jitterMax))))
	}
	return due
}

// GetInsight returns the stored record for a scope key. A project scope with
// no record is scheduled on first read so the background loop picks it up.
func (s *Service) GetInsight(ctx context.Context, insightScope models.InsightScope, scopeKey string) (*models.InsightRecord, error) {
	record, err := s.storage.InsightStorage().GetInsight(ctx, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read insight %s: %w", scopeKey, err)
	}
	if record != nil {
		return record.ExternalView(), nil
	}

	if insightScope == models.ScopeProject {
		projectID := strings.TrimPrefix(scopeKey, projectScopePrefix)
		scheduled, err := s.ScheduleProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if scheduled == nil {
			return nil, nil
		}
		return scheduled.ExternalView(), nil
	}
	return nil, nil
}

// ScheduleProject ensures a project has an insight record scheduled for
// generation. First schedules are anchored at the project's creation time so
// existing projects become due immediately after bootstrap. Returns nil when
// the project does not exist.
func (s *Service) ScheduleProject(ctx context.Context, projectID string) (*models.InsightRecord, error) {
	scopeKey := models.ProjectScopeKey(projectID)

	existing, err := s.storage.InsightStorage().GetInsight(ctx, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read insight %s: %w", scopeKey, err)
	}
	if existing != nil {
		return existing, nil
	}

	project, err := s.storage.ProjectStorage().GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", projectID, err)
	}
	if project == nil {
		return nil, nil
	}

	base := project.CreatedAt
	if base.IsZero() {
		base = time.Now().UTC()
	}

	record := &models.InsightRecord{
		ScopeKey:  scopeKey,
		Scope:     models.ScopeProject,
		ProjectID: projectID,
		NextDueAt: NextDueAt(base, s.cfg.ProjectInterval(), s.cfg.JitterMax()),
	}
	if err := s.storage.InsightStorage().UpsertInsight(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to schedule insight %s: %w", scopeKey, err)
	}

	s.logger.Debug().
		Str("scope_key", scopeKey).
		Str("next_due_at", record.NextDueAt.Format(time.RFC3339)).
		Msg("Project insight scheduled")

	return record, nil
}

// ScheduleAdmin ensures the single admin insight record exists.
func (s *Service) ScheduleAdmin(ctx context.Context) (*models.InsightRecord, error) {
	existing, err := s.storage.InsightStorage().GetInsight(ctx, models.AdminScopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin insight: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	record := &models.InsightRecord{
		ScopeKey:  models.AdminScopeKey,
		Scope:     models.ScopeAdmin,
		NextDueAt: NextDueAt(time.Now().UTC(), s.cfg.AdminInterval(), s.cfg.JitterMax()),
	}
	if err := s.storage.InsightStorage().UpsertInsight(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to schedule admin insight: %w", err)
	}

	s.logger.Debug().
		Str("next_due_at", record.NextDueAt.Format(time.RFC3339)).
		Msg("Admin insight scheduled")

	return record, nil
}

// GenerateNow runs the full pipeline for one scope and persists the result.
// forceRefresh bypasses the cached hold-over rule so a failing provider
// surfaces as deterministic fallback instead of the previous content.
func (s *Service) GenerateNow(ctx context.Context, insightScope models.InsightScope, scopeKey string, triggeredBy string, forceRefresh bool) (*models.InsightRecord, error) {
	switch insightScope {
	case models.ScopeProject:
		return s.generateProject(ctx, scopeKey, triggeredBy, forceRefresh)
	case models.ScopeAdmin:
		return s.generateAdmin(ctx, triggeredBy, forceRefresh)
	default:
		return nil, fmt.Errorf("unknown insight scope: %s", insightScope)
	}
}

func (s *Service) generateProject(ctx context.Context, scopeKey, triggeredBy string, forceRefresh bool) (*models.InsightRecord, error) {
	if !strings.HasPrefix(scopeKey, projectScopePrefix) {
		return nil, fmt.Errorf("invalid project scope key: %s", scopeKey)
	}
	projectID := strings.TrimPrefix(scopeKey, projectScopePrefix)

	snap, err := s.builder.BuildProjectSnapshot(ctx, projectID)
	if errors.Is(err, snapshot.ErrProjectNotFound) {
		// Project deleted mid-cycle: drop the stale record and skip.
		s.logger.Warn().
			Str("project_id", projectID).
			Msg("Project missing, removing stale insight record")
		if derr := s.storage.InsightStorage().DeleteInsight(ctx, scopeKey); derr != nil {
			return nil, fmt.Errorf("failed to delete stale insight %s: %w", scopeKey, derr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build project snapshot: %w", err)
	}

	existing, err := s.storage.InsightStorage().GetInsight(ctx, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read insight %s: %w", scopeKey, err)
	}

	now := time.Now().UTC()
	record := &models.InsightRecord{
		ScopeKey:      scopeKey,
		Scope:         models.ScopeProject,
		ProjectID:     projectID,
		LastAttemptAt: &now,
		NextDueAt:     NextDueAt(now, s.cfg.ProjectInterval(), s.cfg.JitterMax()),
	}
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
	}

	out, genErr := s.engine.RequestProject(ctx, snap)
	if genErr == nil {
		payload := normalizeProjectPayload(out, snap)
		record.Project = payload
		record.Source = models.SourceAI
		record.GeneratedAt = &now
		record.GeneratedBy = triggeredBy
		record.WordCount = wordCount(payload.Summary)
	} else {
		record.AIError = genErr.Error()
		if s.holdOverApplies(existing, forceRefresh) {
			record.Project = existing.Project
			record.Source = models.SourceAICached
			record.GeneratedAt = existing.GeneratedAt
			record.GeneratedBy = existing.GeneratedBy
			record.WordCount = existing.WordCount
		} else {
			payload := normalizedFallbackProject(snap)
			record.Project = payload
			record.Source = models.SourceFallback
			record.GeneratedBy = triggeredBy
			record.WordCount = wordCount(payload.Summary)
		}
		s.logger.Warn().
			Err(genErr).
			Str("project_id", projectID).
			Str("source", string(record.Source)).
			Msg("Project insight generation degraded")
	}

	if err := s.storage.InsightStorage().UpsertInsight(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist insight %s: %w", scopeKey, err)
	}

	s.logger.Info().
		Str("scope_key", scopeKey).
		Str("source", string(record.Source)).
		Str("triggered_by", triggeredBy).
		Int("word_count", record.WordCount).
		Msg("Project insight generated")

	return record.ExternalView(), nil
}

func (s *Service) generateAdmin(ctx context.Context, triggeredBy string, forceRefresh bool) (*models.InsightRecord, error) {
	snap, err := s.builder.BuildAdminSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build admin snapshot: %w", err)
	}

	existing, err := s.storage.InsightStorage().GetInsight(ctx, models.AdminScopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin insight: %w", err)
	}

	now := time.Now().UTC()
	record := &models.InsightRecord{
		ScopeKey:      models.AdminScopeKey,
		Scope:         models.ScopeAdmin,
		LastAttemptAt: &now,
		NextDueAt:     NextDueAt(now, s.cfg.AdminInterval(), s.cfg.JitterMax()),
	}
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
	}

	out, genErr := s.engine.RequestAdmin(ctx, snap)
	if genErr == nil {
		payload := normalizeAdminPayload(out, snap)
		record.Admin = payload
		record.Source = models.SourceAI
		record.GeneratedAt = &now
		record.GeneratedBy = triggeredBy
		record.WordCount = wordCount(payload.Recommendations)
	} else {
		record.AIError = genErr.Error()
		if s.holdOverApplies(existing, forceRefresh) {
			record.Admin = existing.Admin
			record.Source = models.SourceAICached
			record.GeneratedAt = existing.GeneratedAt
			record.GeneratedBy = existing.GeneratedBy
			record.WordCount = existing.WordCount
		} else {
			payload := normalizedFallbackAdmin(snap)
			record.Admin = payload
			record.Source = models.SourceFallback
			record.GeneratedBy = triggeredBy
			record.WordCount = wordCount(payload.Recommendations)
		}
		s.logger.Warn().
			Err(genErr).
			Str("source", string(record.Source)).
			Msg("Admin insight generation degraded")
	}

	if err := s.storage.InsightStorage().UpsertInsight(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist admin insight: %w", err)
	}

	s.logger.Info().
		Str("scope_key", models.AdminScopeKey).
		Str("source", string(record.Source)).
		Str("triggered_by", triggeredBy).
		Int("word_count", record.WordCount).
		Msg("Admin insight generated")

	return record.ExternalView(), nil
}

// holdOverApplies reports whether a degraded attempt should keep the prior
// AI content instead of regressing to deterministic fallback.
func (s *Service) holdOverApplies(existing *models.InsightRecord, forceRefresh bool) bool {
	if existing == nil || forceRefresh {
		return false
	}
	return existing.Source == models.SourceAI || existing.Source == models.SourceAICached
}

// FilteredAdminInsight generates an admin payload over the actor's visible
// slice of the organization. Nothing is persisted; the result is computed
// fresh for each call.
func (s *Service) FilteredAdminInsight(ctx context.Context, actor *models.User, filters interfaces.InsightFilters) (*models.AdminPayload, error) {
	if actor == nil {
		return nil, errors.New("actor is required")
	}

	groups, err := s.storage.GroupStorage().GetAllGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	projects, err := s.storage.ProjectStorage().GetAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	tasks, err := s.storage.TaskStorage().GetAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	users, err := s.storage.UserStorage().GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	in := scope.Entities{
		Groups:   groups,
		Projects: projects,
		Tasks:    tasks,
		Users:    users,
	}

	var visible scope.Entities
	switch actor.Role {
	case models.RoleAdmin:
		visible = in
		if filters.HasAny() {
			visible = s.filter.ApplyExplicit(in, filters)
		}
	case models.RoleManager:
		allowed := s.filter.Closure(actor, in)
		effective := scope.IntersectFilters(filters, allowed)
		if effective.HasAny() {
			visible = s.filter.ApplyExplicit(allowed, effective)
		} else {
			// No explicit filter survives: bounded default view.
			visible = s.filter.Trim(allowed)
		}
	default:
		return nil, fmt.Errorf("role %s cannot access the filtered admin view", actor.Role)
	}

	snap := s.builder.BuildAdminSnapshotFrom(visible.Groups, visible.Projects, visible.Tasks, visible.Users)

	out, genErr := s.engine.RequestAdmin(ctx, snap)
	if genErr != nil {
		s.logger.Warn().
			Err(genErr).
			Str("actor_id", actor.ID).
			Msg("Filtered admin insight fell back to deterministic generation")
		return normalizedFallbackAdmin(snap), nil
	}
	return normalizeAdminPayload(out, snap), nil
}
