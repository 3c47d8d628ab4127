package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// GenerationRequest is the body understood by the generation service.
// Classification requests only carry Text and SystemPrompt.
type GenerationRequest struct {
	Messages     []Message `json:"messages,omitempty"`
	MaxLength    int       `json:"max_length,omitempty"`
	WithHistory  bool      `json:"with_history,omitempty"`
	SystemPrompt string    `json:"system_prompt"`
	Text         string    `json:"text"`
}

var ErrMissingText = errors.New("llm: generation request has no current question")

func (r GenerationRequest) Validate() error {
	if r.Text == "" {
		return ErrMissingText
	}
	return nil
}

// FrameHandler receives raw frames in arrival order. A non-nil return stops
// the stream and is handed back to the caller unchanged.
type FrameHandler func(frame string) error

// Completer issues a single non-streaming request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, req GenerationRequest) (string, error)
}

// StreamGenerator relays the generation stream frame by frame.
type StreamGenerator interface {
	StreamGenerate(ctx context.Context, req GenerationRequest, onFrame FrameHandler) error
}

// LLMProvider defines the contract for any generation backend
type LLMProvider interface {
	Completer
	StreamGenerator
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// IsRetryable reports whether err is a transient transport failure: a 5xx
// answer, a broken connection or an attempt running out of its own time.
// Client errors and cancellation are final. Callers check their own context
// first, so a deadline seen here belongs to the attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrMissingText) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return true
}
