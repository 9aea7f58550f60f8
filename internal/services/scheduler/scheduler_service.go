package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/services/insights"
	"github.com/ternarybob/taskpulse/internal/services/workers"
)

// DigestProcessor handles due recurring digest jobs on each tick.
type DigestProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) error
}

// service drives the periodic regeneration loop. It owns all schedule state:
// bootstrap progress, tick counters, and the last tick outcome.
type service struct {
	insights *insights.Service
	storage  interfaces.StorageManager
	digest   DigestProcessor
	cfg      *common.InsightsConfig
	logger   arbor.ILogger

	cron *cron.Cron

	// tickMu serializes ticks so a slow pass never overlaps the next one.
	tickMu sync.Mutex

	mu           sync.RWMutex
	running      bool
	bootstrapped bool
	lastTickAt   *time.Time
	lastTickErr  string
	ticksRun     int64
}

// NewService creates the insight scheduler. digest may be nil when digests
// are disabled.
func NewService(insightService *insights.Service, storage interfaces.StorageManager, digest DigestProcessor, cfg *common.InsightsConfig, logger arbor.ILogger) interfaces.SchedulerService {
	return &service{
		insights: insightService,
		storage:  storage,
		digest:   digest,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start begins the poll loop and runs an immediate bootstrap pass.
func (s *service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}

	s.cron = cron.New()
	schedule := fmt.Sprintf("@every %ds", s.cfg.PollSeconds)
	if _, err := s.cron.AddFunc(schedule, s.runTick); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to register poll schedule: %w", err)
	}
	s.cron.Start()
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Str("schedule", schedule).
		Int("batch_size", s.cfg.ProjectBatchSize).
		Msg("Insight scheduler started")

	// First pass runs now so existing projects are scheduled before the
	// first cron wake.
	go s.runTick()

	return nil
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (s *service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCtx := s.cron.Stop()
	s.mu.Unlock()

	<-stopCtx.Done()

	// Block until any in-flight tick releases the lock.
	s.tickMu.Lock()
	s.tickMu.Unlock()

	s.logger.Info().Msg("Insight scheduler stopped")
	return nil
}

// TriggerTickNow runs one scheduler pass synchronously and reports its error.
func (s *service) TriggerTickNow() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.tick(context.Background(), time.Now().UTC())
}

func (s *service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *service) Status() interfaces.SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return interfaces.SchedulerStatus{
		Running:      s.running,
		Bootstrapped: s.bootstrapped,
		LastTickAt:   s.lastTickAt,
		LastTickErr:  s.lastTickErr,
		TicksRun:     s.ticksRun,
	}
}

// runTick is the cron entry point. Tick errors are recorded and logged here;
// the loop always continues on the next interval.
func (s *service) runTick() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	now := time.Now().UTC()
	err := s.tick(context.Background(), now)

	s.mu.Lock()
	s.lastTickAt = &now
	s.ticksRun++
	if err != nil {
		s.lastTickErr = err.Error()
	} else {
		s.lastTickErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduler tick completed with errors")
	}
}

// tick runs one full scheduler pass. Each stage returns its own error; the
// stages are independent, so a failure in one never skips the rest.
func (s *service) tick(ctx context.Context, now time.Time) error {
	var stageErrs []error

	if err := s.ensureProjectSchedules(ctx); err != nil {
		stageErrs = append(stageErrs, fmt.Errorf("project bootstrap: %w", err))
	} else {
		s.mu.Lock()
		s.bootstrapped = true
		s.mu.Unlock()
	}

	if _, err := s.insights.ScheduleAdmin(ctx); err != nil {
		stageErrs = append(stageErrs, fmt.Errorf("admin bootstrap: %w", err))
	}

	if err := s.processDueProjects(ctx, now); err != nil {
		stageErrs = append(stageErrs, fmt.Errorf("due projects: %w", err))
	}

	if err := s.processDueAdmin(ctx, now); err != nil {
		stageErrs = append(stageErrs, fmt.Errorf("due admin: %w", err))
	}

	if s.digest != nil {
		if err := s.digest.ProcessDue(ctx, now); err != nil {
			stageErrs = append(stageErrs, fmt.Errorf("digests: %w", err))
		}
	}

	return errors.Join(stageErrs...)
}

// ensureProjectSchedules gives every project without an insight record a
// schedule anchored at its creation time. Runs on every tick so projects
// created after startup are picked up without restart.
func (s *service) ensureProjectSchedules(ctx context.Context) error {
	projects, err := s.storage.ProjectStorage().GetAllProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	var scheduleErrs []error
	for _, project := range projects {
		if _, err := s.insights.ScheduleProject(ctx, project.ID); err != nil {
			scheduleErrs = append(scheduleErrs, err)
			s.logger.Warn().
				Err(err).
				Str("project_id", project.ID).
				Msg("Failed to schedule project insight")
		}
	}
	return errors.Join(scheduleErrs...)
}

// processDueProjects regenerates the earliest-due project scopes, at most one
// batch per tick, with provider calls running concurrently across the batch.
func (s *service) processDueProjects(ctx context.Context, now time.Time) error {
	due, err := s.storage.InsightStorage().ListDueProjects(ctx, now, s.cfg.ProjectBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list due projects: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	s.logger.Info().
		Int("due_count", len(due)).
		Msg("Processing due project insights")

	pool := workers.NewPool(s.cfg.ProjectBatchSize, s.logger)
	pool.Start()
	for _, record := range due {
		scopeKey := record.ScopeKey
		job := func(jobCtx context.Context) error {
			if _, err := s.insights.GenerateNow(jobCtx, models.ScopeProject, scopeKey, "system", false); err != nil {
				return fmt.Errorf("generate %s: %w", scopeKey, err)
			}
			return nil
		}
		if err := pool.Submit(job); err != nil {
			return fmt.Errorf("failed to submit generation job: %w", err)
		}
	}
	pool.Wait()

	return errors.Join(pool.Errors()...)
}

// processDueAdmin regenerates the admin scope once per tick when due.
func (s *service) processDueAdmin(ctx context.Context, now time.Time) error {
	record, err := s.storage.InsightStorage().GetInsight(ctx, models.AdminScopeKey)
	if err != nil {
		return fmt.Errorf("failed to read admin insight: %w", err)
	}
	if record == nil || record.NextDueAt.After(now) {
		return nil
	}

	if _, err := s.insights.GenerateNow(ctx, models.ScopeAdmin, models.AdminScopeKey, "system", false); err != nil {
		return fmt.Errorf("failed to generate admin insight: %w", err)
	}
	return nil
}
