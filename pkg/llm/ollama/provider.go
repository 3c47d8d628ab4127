package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/llm"
)

// OllamaProvider serves the same contract as the generation gateway straight
// from a local Ollama daemon. Replies and frames are rendered in the gateway
// format so the rest of the pipeline cannot tell them apart.
type OllamaProvider struct {
	BaseURL       string
	ModelName     string
	StreamTimeout time.Duration
	Policy        llm.RelayPolicy
	Client        *http.Client
	logger        logger.ILogger
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

type Config struct {
	BaseURL       string
	Model         string
	StreamTimeout time.Duration
	RetryBackoff  time.Duration
}

func NewOllamaProvider(cfg Config, log logger.ILogger) *OllamaProvider {
	policy := llm.DefaultRelayPolicy()
	if cfg.RetryBackoff > 0 {
		policy.Backoff = cfg.RetryBackoff
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = 600 * time.Second
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &OllamaProvider{
		BaseURL:       cfg.BaseURL,
		ModelName:     cfg.Model,
		StreamTimeout: cfg.StreamTimeout,
		Policy:        policy,
		Client:        &http.Client{},
		logger:        log,
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

type gatewayFrame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func (o *OllamaProvider) buildRequest(req llm.GenerationRequest, stream bool) ollamaChatRequest {
	messages := make([]ollamaMessage, 0, len(req.Messages)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	if req.WithHistory {
		for _, msg := range req.Messages {
			role := msg.Role
			if role == "model" {
				role = "assistant"
			}
			messages = append(messages, ollamaMessage{Role: role, Content: msg.Content})
		}
	}
	// The current question is already the last history entry when history is
	// sent; only add it when it is not.
	if n := len(messages); n == 0 || messages[n-1].Role != "user" || messages[n-1].Content != req.Text {
		messages = append(messages, ollamaMessage{Role: "user", Content: req.Text})
	}

	payload := ollamaChatRequest{
		Model:    o.ModelName,
		Messages: messages,
		Stream:   stream,
	}
	if req.MaxLength > 0 {
		payload.Options = &ollamaOptions{NumPredict: req.MaxLength}
	}
	return payload
}

func (o *OllamaProvider) post(ctx context.Context, payload ollamaChatRequest) (*http.Response, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &llm.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// Complete answers in the gateway shape: reasoning wrapped in think tags,
// then a blank line, then the final answer.
func (o *OllamaProvider) Complete(ctx context.Context, req llm.GenerationRequest) (string, error) {
	resp, err := o.post(ctx, o.buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ollamaResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return "<think>" + ollamaResp.Message.Thinking + "</think>\n\n" + ollamaResp.Message.Content, nil
}

func (o *OllamaProvider) StreamGenerate(ctx context.Context, req llm.GenerationRequest, onFrame llm.FrameHandler) error {
	if err := req.Validate(); err != nil {
		return err
	}
	payload := o.buildRequest(req, true)

	return llm.Relay(ctx, o.Policy, func(ctx context.Context, h llm.FrameHandler) error {
		return o.streamOnce(ctx, payload, h)
	}, onFrame, o.logger)
}

// streamOnce turns Ollama's NDJSON chunks into gateway frames.
func (o *OllamaProvider) streamOnce(ctx context.Context, payload ollamaChatRequest, onFrame llm.FrameHandler) error {
	streamCtx, cancel := context.WithTimeout(ctx, o.StreamTimeout)
	defer cancel()

	resp, err := o.post(streamCtx, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode chunk: %w", err)
		}

		if chunk.Message.Thinking != "" {
			if err := emit(onFrame, "think", chunk.Message.Thinking); err != nil {
				return err
			}
		}
		if chunk.Message.Content != "" {
			if err := emit(onFrame, "content", chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return emit(onFrame, "end", "")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func emit(onFrame llm.FrameHandler, frameType, data string) error {
	b, err := json.Marshal(gatewayFrame{Type: frameType, Data: data})
	if err != nil {
		return err
	}
	return onFrame(string(b))
}
