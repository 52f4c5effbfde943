package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/gradus/internal/common"
	"github.com/ternarybob/gradus/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// the configured default provider. A missing API credential surfaces here as
// a construction error, which callers treat as fatal at startup.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, logger)

	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)

	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}
