package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"time"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/assistant/event"
	"library-ai-be/pkg/assistant/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ChatRunner runs one chat turn and writes its events to sink.
type ChatRunner interface {
	Run(ctx context.Context, req orchestrator.Request, sink event.Sink) orchestrator.Outcome
}

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
}

const DefaultHeartbeat = 15 * time.Second

type chatController struct {
	runner    ChatRunner
	heartbeat time.Duration
	logger    logger.ILogger
}

// NewChatController serves the SSE chat stream. heartbeat is the interval of
// comment pings while a turn is silent; zero picks DefaultHeartbeat.
func NewChatController(runner ChatRunner, heartbeat time.Duration, log logger.ILogger) IChatController {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &chatController{runner: runner, heartbeat: heartbeat, logger: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	// Credentials are checked by the turn itself so that failures still
	// arrive as stream events.
	h.Post("/stream", c.Stream)
}

func (c *chatController) Stream(ctx *fiber.Ctx) error {
	body := parseStreamBody(ctx.Body())
	sessionId := ctx.Query("sessionId")
	if sessionId == "" {
		sessionId = body.SessionId
	}

	requestId := ctx.Get(fiber.HeaderXRequestID)
	if requestId == "" {
		requestId = uuid.NewString()
	}

	req := orchestrator.Request{
		RequestID:  requestId,
		Credential: ctx.Get(fiber.HeaderAuthorization),
		SessionID:  sessionId,
		Message:    body.Text(),
		ReceivedAt: time.Now(),
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
	ctx.Set(fiber.HeaderXRequestID, requestId)

	// The fiber context is recycled once the handler returns, so the turn
	// gets its own context; a failed flush is how a disconnect shows up.
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sse := event.NewSSEWriter(w)
		pingCtx, stopPing := context.WithCancel(runCtx)
		pinged := make(chan struct{})
		go func() {
			defer close(pinged)
			c.keepAlive(pingCtx, sse, cancel)
		}()

		out := c.runner.Run(runCtx, req, sse)

		// w must not be touched once this function returns.
		stopPing()
		<-pinged

		c.logger.Info("CHAT", "Stream closed", map[string]interface{}{
			"request_id": requestId,
			"session_id": out.SessionID.String(),
			"stage":      string(out.Stage),
			"chunks":     out.Chunks,
		})
	})
	return nil
}

// keepAlive pings until ctx ends. A failed ping cancels the turn through
// gone, since the classifier and catalog stages send nothing for a while.
func (c *chatController) keepAlive(ctx context.Context, sse *event.SSEWriter, gone context.CancelFunc) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sse.Ping(); err != nil {
				gone()
				return
			}
		}
	}
}

// parseStreamBody accepts {"sessionId","message"}, {"content"} or the raw
// message text.
func parseStreamBody(raw []byte) dto.ChatStreamRequest {
	var req dto.ChatStreamRequest
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(raw, &req); err == nil {
			return req
		}
	}
	req.Message = string(raw)
	return req
}
