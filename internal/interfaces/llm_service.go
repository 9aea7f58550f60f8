package interfaces

import "context"

// LLMMode reports how the provider service operates.
type LLMMode string

const (
	// LLMModeCloud means a cloud API backs the service.
	LLMModeCloud LLMMode = "cloud"

	// LLMModeDisabled means no provider is configured; callers must fall
	// back to deterministic generation.
	LLMModeDisabled LLMMode = "disabled"
)

// Message is one turn of a chat conversation. Role is "system", "user", or
// "assistant".
type Message struct {
	Role    string
	Content string
}

// LLMService is the chat-completion abstraction over cloud providers
// (Anthropic Claude, Google Gemini).
type LLMService interface {
	// Chat generates a reply to the full conversation, which includes the
	// system prompt and any prior assistant turns.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the provider is reachable and configured.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operating mode.
	GetMode() LLMMode

	// Close releases provider resources.
	Close() error
}
