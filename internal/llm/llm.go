package llm

import (
	"fmt"
	"time"

	"github.com/kcscroggins/water-institute-chatbot/internal/config"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
)

// NewClient is a factory returning the chat-completion client selected by the
// configuration. Every client performs one non-streaming completion per call.
func NewClient(cfg config.LLMConfig) (interfaces.LLM, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.APIKey(), cfg.Model, cfg.BaseURL, timeout, cfg.MaxTokens, cfg.Temperature)
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL, timeout)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
