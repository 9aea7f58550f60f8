package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// configuration. Provider "none" returns nil: the insight engine treats a nil
// provider as unconfigured and generates deterministically.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", string(cfg.LLM.DefaultProvider)).Msg("Initializing LLM service")

	switch cfg.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		service, err := NewClaudeService(&cfg.Claude, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude LLM service: %w", err)
		}
		return service, nil

	case common.LLMProviderGemini:
		service, err := NewGeminiService(&cfg.Gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini LLM service: %w", err)
		}
		return service, nil

	case common.LLMProviderNone:
		logger.Warn().Msg("LLM provider disabled; insights will use deterministic generation")
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.DefaultProvider)
	}
}
