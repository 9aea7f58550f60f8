package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
)

// ErrProviderUnconfigured is returned when no LLM provider is wired in;
// callers fall straight through to deterministic generation.
var ErrProviderUnconfigured = errors.New("llm provider not configured")

const (
	attemptsPerVariant = 2
	attemptBackoff     = 2 * time.Second
)

// Engine drives structured-output requests against the provider: bounded
// retries per schema variant, exactly one repair round-trip per variant, then
// a downgrade to the compact variant. It never writes the store.
type Engine struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewEngine creates a generation engine. llm may be nil when no provider is
// configured.
func NewEngine(llm interfaces.LLMService, logger arbor.ILogger) *Engine {
	return &Engine{
		llm:    llm,
		logger: logger,
	}
}

// RequestProject runs the full retry ladder for a project scope. A non-nil
// error means every attempt failed and the caller must fall back.
func (e *Engine) RequestProject(ctx context.Context, snap *snapshot.ProjectSnapshot) (*projectOutput, error) {
	if e.llm == nil {
		return nil, ErrProviderUnconfigured
	}

	var lastErr error
	for _, variant := range []SchemaVariant{VariantFull, VariantCompact} {
		userPrompt, err := buildProjectPrompt(snap, variant)
		if err != nil {
			return nil, err
		}

		reply, err := e.requestVariant(ctx, projectSystemPrompt, userPrompt, func(text string) error {
			_, perr := parseProjectOutput(text)
			return perr
		})
		if err != nil {
			lastErr = err
			e.logger.Warn().
				Err(err).
				Str("project_id", snap.ProjectID).
				Str("variant", string(variant)).
				Msg("Project insight variant exhausted")
			continue
		}

		out, perr := parseProjectOutput(reply)
		if perr != nil {
			lastErr = perr
			continue
		}
		return out, nil
	}
	return nil, fmt.Errorf("all project generation attempts failed: %w", lastErr)
}

// RequestAdmin runs the full retry ladder for the admin scope.
func (e *Engine) RequestAdmin(ctx context.Context, snap *snapshot.AdminSnapshot) (*adminOutput, error) {
	if e.llm == nil {
		return nil, ErrProviderUnconfigured
	}

	var lastErr error
	for _, variant := range []SchemaVariant{VariantFull, VariantCompact} {
		userPrompt, err := buildAdminPrompt(snap, variant)
		if err != nil {
			return nil, err
		}

		reply, err := e.requestVariant(ctx, adminSystemPrompt, userPrompt, func(text string) error {
			_, perr := parseAdminOutput(text)
			return perr
		})
		if err != nil {
			lastErr = err
			e.logger.Warn().
				Err(err).
				Str("variant", string(variant)).
				Msg("Admin insight variant exhausted")
			continue
		}

		out, perr := parseAdminOutput(reply)
		if perr != nil {
			lastErr = perr
			continue
		}
		return out, nil
	}
	return nil, fmt.Errorf("all admin generation attempts failed: %w", lastErr)
}

// requestVariant issues up to attemptsPerVariant provider calls for one
// schema variant. A parse failure spends the variant's single repair
// round-trip: the conversation is replayed with the invalid reply and an
// instruction to return only valid structured output.
func (e *Engine) requestVariant(ctx context.Context, systemPrompt, userPrompt string, check func(string) error) (string, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	repairUsed := false
	var lastErr error
	for attempt := 1; attempt <= attemptsPerVariant; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(attemptBackoff):
			}
		}

		reply, err := e.llm.Chat(ctx, messages)
		if err != nil {
			lastErr = fmt.Errorf("provider call failed (attempt %d): %w", attempt, err)
			continue
		}

		if perr := check(reply); perr == nil {
			return reply, nil
		} else {
			lastErr = perr
		}

		if repairUsed {
			continue
		}
		repairUsed = true

		repaired, err := e.llm.Chat(ctx, append(messages,
			interfaces.Message{Role: "assistant", Content: reply},
			interfaces.Message{Role: "user", Content: repairInstruction},
		))
		if err != nil {
			lastErr = fmt.Errorf("repair call failed: %w", err)
			continue
		}
		if perr := check(repaired); perr == nil {
			return repaired, nil
		} else {
			lastErr = fmt.Errorf("repair reply still invalid: %w", perr)
		}
	}
	return "", lastErr
}
