package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/services/digest"
	"github.com/ternarybob/taskpulse/internal/services/insights"
	"github.com/ternarybob/taskpulse/internal/services/llm"
	"github.com/ternarybob/taskpulse/internal/services/notifications"
	"github.com/ternarybob/taskpulse/internal/services/scheduler"
	"github.com/ternarybob/taskpulse/internal/services/scope"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
	"github.com/ternarybob/taskpulse/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	LLMService          interfaces.LLMService
	InsightService      interfaces.InsightService
	SchedulerService    interfaces.SchedulerService
	NotificationService interfaces.NotificationService
	DigestService       *digest.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("scheduler_enabled", cfg.Insights.SchedulerEnabled).
		Bool("digest_enabled", cfg.Digest.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger) and loads seed fixtures
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	if a.Config.Seed.Dir != "" {
		if mgr, ok := storageManager.(*badger.Manager); ok {
			if err := mgr.LoadSeedFixtures(context.Background(), a.Config.Seed.Dir); err != nil {
				// Log warning but don't fail startup
				a.Logger.Warn().Err(err).Msg("Failed to load seed fixtures")
			}
		}
	}

	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	var err error

	// LLM provider. nil means deterministic generation only.
	a.LLMService, err = llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		a.LLMService = nil
		a.Logger.Warn().Err(err).Msg("Failed to initialize LLM service - insights will use deterministic generation")
	} else if a.LLMService != nil {
		if err := a.LLMService.HealthCheck(context.Background()); err != nil {
			a.LLMService = nil
			a.Logger.Warn().Err(err).Msg("LLM service health check failed - service disabled")
		} else {
			a.Logger.Debug().Msg("LLM service initialized and health check passed")
		}
	}

	builder := snapshot.NewBuilder(a.StorageManager, a.Config.Insights.ProjectTaskLimit, a.Logger)
	filter := scope.NewFilter(a.Config.Insights.ScopeTrimLimit, a.Logger)
	engine := insights.NewEngine(a.LLMService, a.Logger)

	insightService := insights.NewService(
		a.StorageManager,
		engine,
		builder,
		filter,
		&a.Config.Insights,
		a.Logger,
	)
	a.InsightService = insightService
	a.Logger.Debug().Msg("Insight service initialized")

	emailSender := notifications.NewLogEmailSender(a.Logger)
	a.NotificationService = notifications.NewService(a.StorageManager, emailSender, a.Logger)

	a.DigestService = digest.NewService(
		a.StorageManager,
		a.NotificationService,
		&a.Config.Digest,
		a.Logger,
	)
	a.Logger.Debug().Msg("Digest service initialized")

	a.SchedulerService = scheduler.NewService(
		insightService,
		a.StorageManager,
		a.DigestService,
		&a.Config.Insights,
		a.Logger,
	)

	if a.Config.Insights.SchedulerEnabled {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler service: %w", err)
		}
	} else {
		a.Logger.Info().Msg("Insight scheduler disabled by configuration")
	}

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
