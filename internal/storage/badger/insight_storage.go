package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// InsightStorage implements the InsightStorage interface for Badger.
// One record exists per scope key; writes are whole-document upserts so a
// reader never observes a partially updated record.
type InsightStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewInsightStorage creates a new InsightStorage instance
func NewInsightStorage(db *BadgerDB, logger arbor.ILogger) interfaces.InsightStorage {
	return &InsightStorage{
		db:     db,
		logger: logger,
	}
}

func (s *InsightStorage) UpsertInsight(ctx context.Context, record *models.InsightRecord) error {
	if record.ScopeKey == "" {
		return fmt.Errorf("insight scope key is required")
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := s.db.Store().Upsert(record.ScopeKey, record); err != nil {
		return fmt.Errorf("failed to upsert insight %s: %w", record.ScopeKey, err)
	}
	return nil
}

func (s *InsightStorage) GetInsight(ctx context.Context, scopeKey string) (*models.InsightRecord, error) {
	var record models.InsightRecord
	if err := s.db.Store().Get(scopeKey, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get insight %s: %w", scopeKey, err)
	}
	return &record, nil
}

func (s *InsightStorage) GetInsightsByScope(ctx context.Context, scope models.InsightScope) ([]*models.InsightRecord, error) {
	var records []models.InsightRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("Scope").Eq(scope).Index("Scope")); err != nil {
		return nil, fmt.Errorf("failed to list insights for scope %s: %w", scope, err)
	}

	result := make([]*models.InsightRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *InsightStorage) ListDueProjects(ctx context.Context, now time.Time, limit int) ([]*models.InsightRecord, error) {
	var records []models.InsightRecord
	err := s.db.Store().Find(&records,
		badgerhold.Where("Scope").Eq(models.ScopeProject).Index("Scope").
			And("NextDueAt").Le(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list due project insights: %w", err)
	}

	// Earliest due first so the longest-waiting scopes win the batch slots.
	sort.Slice(records, func(i, j int) bool {
		return records[i].NextDueAt.Before(records[j].NextDueAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	result := make([]*models.InsightRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *InsightStorage) DeleteInsight(ctx context.Context, scopeKey string) error {
	if err := s.db.Store().Delete(scopeKey, &models.InsightRecord{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete insight %s: %w", scopeKey, err)
	}
	return nil
}

func (s *InsightStorage) CountInsights(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.InsightRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}
	return int(count), nil
}
