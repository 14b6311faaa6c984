package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
)

// Ollama is a chat-completion client for a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates a new Ollama completion client. An empty baseURL defaults
// to the local Ollama endpoint.
func NewOllama(model, baseURL string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{Timeout: timeout}
	return &Ollama{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Complete performs a single non-streaming chat completion.
func (o *Ollama) Complete(ctx context.Context, system string, messages []interfaces.Message) (string, error) {
	chatMessages := make([]ollama.Message, 0, len(messages)+1)
	chatMessages = append(chatMessages, ollama.Message{Role: "system", Content: system})
	for _, m := range messages {
		chatMessages = append(chatMessages, ollama.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	var out strings.Builder
	err := o.client.Chat(ctx, &ollama.ChatRequest{
		Model:    o.model,
		Messages: chatMessages,
		Stream:   &stream,
	}, func(resp ollama.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to chat with ollama: %w", err)
	}
	return out.String(), nil
}

var _ interfaces.LLM = (*Ollama)(nil)
