package llm

import (
	"context"
	"errors"
	"time"

	"library-ai-be/internal/pkg/logger"
)

// FallbackFrame stands in for the whole answer when the upstream cannot be
// reached after the retry.
const FallbackFrame = `{"type":"content","data":"抱歉，AI服务暂时不可用，请稍后再试。"}`

// Attempt performs one upstream call, handing every frame to onFrame.
type Attempt func(ctx context.Context, onFrame FrameHandler) error

type RelayPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Fallback    string
}

func DefaultRelayPolicy() RelayPolicy {
	return RelayPolicy{MaxAttempts: 2, Backoff: 500 * time.Millisecond, Fallback: FallbackFrame}
}

// handlerError marks a failure raised by the frame handler rather than the
// upstream.
type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }

// Relay runs attempt under policy. A transient failure before the first
// frame is retried. When the upstream stays unreachable, or breaks after
// frames were relayed, the fallback frame is delivered and Relay returns nil.
// Client errors (4xx), cancellation of ctx and handler errors are returned.
func Relay(ctx context.Context, policy RelayPolicy, attempt Attempt, onFrame FrameHandler, log logger.ILogger) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	delivered := false
	relay := func(frame string) error {
		delivered = true
		if err := onFrame(frame); err != nil {
			return &handlerError{err: err}
		}
		return nil
	}

	var lastErr error
	for n := 1; n <= policy.MaxAttempts; n++ {
		lastErr = attempt(ctx, relay)
		if lastErr == nil {
			return nil
		}

		var he *handlerError
		if errors.As(lastErr, &he) {
			return he.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var se *StatusError
		if errors.As(lastErr, &se) && se.StatusCode < 500 {
			return lastErr
		}
		if delivered || !IsRetryable(lastErr) || n == policy.MaxAttempts {
			break
		}

		log.Warn("LLM", "Generation stream failed, retrying", map[string]interface{}{
			"attempt": n,
			"error":   lastErr.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Backoff):
		}
	}

	log.Error("LLM", "Generation stream failed, sending fallback", map[string]interface{}{
		"error":     lastErr.Error(),
		"delivered": delivered,
	})
	if policy.Fallback == "" {
		return lastErr
	}
	return onFrame(policy.Fallback)
}
