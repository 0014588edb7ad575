package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
)

// Message represents a single conversation turn
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Provider is the contract for chat-completion back-ends used by the
// AI-assisted crawl engine.
type Provider interface {
	// Name returns the provider identifier ("claude" or "gemini")
	Name() string

	// Chat generates a completion for the conversation history
	Chat(ctx context.Context, messages []Message) (string, error)

	// Close releases provider resources
	Close() error
}

// NewProvider creates the provider selected by config. Returns an error when
// the selected provider has no API key; the AI engine then drops out of the
// registry instead of registering broken.
func NewProvider(cfg *common.Config, logger arbor.ILogger) (Provider, error) {
	switch cfg.LLM.DefaultProvider {
	case common.LLMProviderGemini:
		return NewGeminiProvider(&cfg.Gemini, logger)
	case common.LLMProviderClaude, "":
		return NewClaudeProvider(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.DefaultProvider)
	}
}
