package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	LLM         LLMConfig      `toml:"llm"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Insights    InsightsConfig `toml:"insights"`
	Digest      DigestConfig   `toml:"digest"`
	Seed        SeedConfig     `toml:"seed"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                       // "stdout", "file"
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderNone disables the external provider; generation runs on the
	// deterministic fallback only.
	LLMProviderNone LLMProvider = "none"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=claude gemini none"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model name (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Per-attempt request budget as duration string (default: "90s")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model name (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Per-attempt request budget as duration string (default: "90s")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// InsightsConfig controls the insight generation and scheduling pipeline
type InsightsConfig struct {
	SchedulerEnabled     bool `toml:"scheduler_enabled"`
	ProjectIntervalHours int  `toml:"project_interval_hours" validate:"min=1"` // Regeneration interval per project scope
	AdminIntervalHours   int  `toml:"admin_interval_hours" validate:"min=1"`   // Regeneration interval for the admin scope
	PollSeconds          int  `toml:"poll_seconds" validate:"min=1"`           // Scheduler wake interval
	ProjectBatchSize     int  `toml:"project_batch_size" validate:"min=1"`     // Max due project scopes processed per tick
	ProjectTaskLimit     int  `toml:"project_task_limit" validate:"min=1"`     // Max tasks serialized into a project snapshot
	JitterMinutes        int  `toml:"jitter_minutes" validate:"min=0"`         // Upper bound of random due-time jitter
	ScopeTrimLimit       int  `toml:"scope_trim_limit" validate:"min=1"`       // Projects kept in the default filtered admin view
}

// DigestConfig controls the per-user weekly digest job
type DigestConfig struct {
	Enabled       bool `toml:"enabled"`
	IntervalHours int  `toml:"interval_hours" validate:"min=1"`
}

// SeedConfig points at optional YAML fixture files loaded into the entity
// stores on startup (development/demo data).
type SeedConfig struct {
	Dir string `toml:"dir"`
}

// ProjectInterval returns the project regeneration interval as a duration.
func (c *InsightsConfig) ProjectInterval() time.Duration {
	return time.Duration(c.ProjectIntervalHours) * time.Hour
}

// AdminInterval returns the admin regeneration interval as a duration.
func (c *InsightsConfig) AdminInterval() time.Duration {
	return time.Duration(c.AdminIntervalHours) * time.Hour
}

// JitterMax returns the due-time jitter bound as a duration.
func (c *InsightsConfig) JitterMax() time.Duration {
	return time.Duration(c.JitterMinutes) * time.Minute
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "90s",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "90s",
			RateLimit:   "4s",
			Temperature: 0.7,
		},
		Insights: InsightsConfig{
			SchedulerEnabled:     true,
			ProjectIntervalHours: 48,
			AdminIntervalHours:   72,
			PollSeconds:          600,
			ProjectBatchSize:     3,
			ProjectTaskLimit:     40,
			JitterMinutes:        360,
			ScopeTrimLimit:       5,
		},
		Digest: DigestConfig{
			Enabled:       false,
			IntervalHours: 168,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against its validate tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TASKPULSE_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("TASKPULSE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("TASKPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("TASKPULSE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider configuration
	if provider := os.Getenv("TASKPULSE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}

	// Insights pipeline configuration
	if v := os.Getenv("TASKPULSE_INSIGHTS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.Insights.SchedulerEnabled = enabled
		}
	}
	if v := os.Getenv("TASKPULSE_INSIGHTS_PROJECT_INTERVAL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			config.Insights.ProjectIntervalHours = hours
		}
	}
	if v := os.Getenv("TASKPULSE_INSIGHTS_ADMIN_INTERVAL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			config.Insights.AdminIntervalHours = hours
		}
	}
	if v := os.Getenv("TASKPULSE_INSIGHTS_POLL_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			config.Insights.PollSeconds = seconds
		}
	}
	if v := os.Getenv("TASKPULSE_INSIGHTS_BATCH_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Insights.ProjectBatchSize = size
		}
	}
	if v := os.Getenv("TASKPULSE_INSIGHTS_JITTER_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			config.Insights.JitterMinutes = minutes
		}
	}

	// Digest configuration
	if v := os.Getenv("TASKPULSE_DIGEST_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.Digest.Enabled = enabled
		}
	}

	// Seed fixtures
	if dir := os.Getenv("TASKPULSE_SEED_DIR"); dir != "" {
		config.Seed.Dir = dir
	}
}
