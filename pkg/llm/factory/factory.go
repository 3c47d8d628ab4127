package factory

import (
	"fmt"
	"time"

	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/llm"
	"library-ai-be/pkg/llm/forward"
	"library-ai-be/pkg/llm/ollama"
)

type Options struct {
	ForwardURL    string
	OllamaBaseURL string
	OllamaModel   string
	StreamTimeout time.Duration
	RetryBackoff  time.Duration
}

func NewLLMProvider(providerType string, opts Options, log logger.ILogger) (llm.LLMProvider, error) {
	switch providerType {
	case "forward", "":
		if opts.ForwardURL == "" {
			return nil, fmt.Errorf("forward provider requires AI_FORWARD_URL")
		}
		return forward.NewForwardProvider(forward.Config{
			URL:           opts.ForwardURL,
			StreamTimeout: opts.StreamTimeout,
			RetryBackoff:  opts.RetryBackoff,
		}, log), nil
	case "ollama":
		baseURL := opts.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(ollama.Config{
			BaseURL:       baseURL,
			Model:         opts.OllamaModel,
			StreamTimeout: opts.StreamTimeout,
			RetryBackoff:  opts.RetryBackoff,
		}, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
