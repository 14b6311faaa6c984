package embedding

import (
	"fmt"
	"time"

	"github.com/kcscroggins/water-institute-chatbot/internal/config"
)

// NewModel is a factory returning the embedding client selected by the
// configuration, wrapped with rate limiting when configured.
func NewModel(cfg config.EmbeddingConfig) (Embedding, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	var model Embedding
	var err error
	switch ModelType(cfg.Provider) {
	case OpenAI:
		model, err = NewOpenAIModel(cfg.APIKey(), cfg.Model, cfg.BaseURL, timeout)
	case Ollama:
		model, err = NewOllamaModel(cfg.Model, cfg.BaseURL, timeout)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RPS > 0 {
		model = NewRateLimited(model, cfg.RPS, cfg.Burst)
	}
	return model, nil
}
