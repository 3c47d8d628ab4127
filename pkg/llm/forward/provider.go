package forward

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/llm"
)

const maxFrameSize = 1024 * 1024

type Config struct {
	URL           string
	StreamTimeout time.Duration
	RetryBackoff  time.Duration
}

// ForwardProvider talks to the generation gateway that fronts the model.
// Replies are plain text; streams are SSE "data:" lines carrying typed frames.
type ForwardProvider struct {
	URL           string
	StreamTimeout time.Duration
	Policy        llm.RelayPolicy
	Client        *http.Client
	logger        logger.ILogger
}

var _ llm.LLMProvider = &ForwardProvider{}

func NewForwardProvider(cfg Config, log logger.ILogger) *ForwardProvider {
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
	return &ForwardProvider{
		URL:           cfg.URL,
		StreamTimeout: cfg.StreamTimeout,
		Policy:        policy,
		// No client timeout: calls are bounded by their context.
		Client: &http.Client{},
		logger: log,
	}
}

func (p *ForwardProvider) Complete(ctx context.Context, req llm.GenerationRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("forward request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &llm.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}

func (p *ForwardProvider) StreamGenerate(ctx context.Context, req llm.GenerationRequest, onFrame llm.FrameHandler) error {
	if err := req.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	return llm.Relay(ctx, p.Policy, func(ctx context.Context, h llm.FrameHandler) error {
		return p.streamOnce(ctx, payload, h)
	}, onFrame, p.logger)
}

func (p *ForwardProvider) streamOnce(ctx context.Context, payload []byte, onFrame llm.FrameHandler) error {
	streamCtx, cancel := context.WithTimeout(ctx, p.StreamTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("forward stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &llm.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)
	for scanner.Scan() {
		select {
		case <-streamCtx.Done():
			return streamCtx.Err()
		default:
		}

		frame, ok := FrameFromLine(scanner.Text())
		if !ok {
			continue
		}
		if frame == "[DONE]" {
			return nil
		}
		if err := onFrame(frame); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// FrameFromLine extracts the frame carried by one line of the upstream body.
// SSE data lines yield their payload, SSE control lines are skipped and any
// other non-empty line is passed through raw.
func FrameFromLine(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	if strings.HasPrefix(line, "data:") {
		data := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
		if strings.TrimSpace(data) == "" {
			return "", false
		}
		return data, true
	}
	for _, prefix := range []string{":", "event:", "id:", "retry:"} {
		if strings.HasPrefix(line, prefix) {
			return "", false
		}
	}
	return line, true
}
