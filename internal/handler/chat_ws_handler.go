package handler

import (
	"context"
	"encoding/json"
	"time"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/internal/pkg/serverutils"
	internalWS "library-ai-be/internal/websocket"
	"library-ai-be/pkg/assistant/event"
	"library-ai-be/pkg/assistant/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type TurnRunner interface {
	Run(ctx context.Context, req orchestrator.Request, sink event.Sink) orchestrator.Outcome
}

// ChatSocketHandler serves chat turns over a websocket. Every inbound text
// message runs one turn; its events go back as {"event","data"} frames.
type ChatSocketHandler struct {
	runner    TurnRunner
	jwtSecret string
	logger    logger.ILogger
}

func NewChatSocketHandler(runner TurnRunner, jwtSecret string, log logger.ILogger) *ChatSocketHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ChatSocketHandler{runner: runner, jwtSecret: jwtSecret, logger: log}
}

func (h *ChatSocketHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/v1/ws", h.ServeWs)
}

func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on the handshake, so the query wins.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c.Get(fiber.HeaderAuthorization))
	}

	userId, err := serverutils.ParseUserID(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("CHAT_WS", "Rejected handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	credential := "Bearer " + tokenStr
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("CHAT_WS", "Session started", map[string]interface{}{"user_id": userId})
		internalWS.Serve(conn, func(ctx context.Context, raw []byte, sink event.Sink) {
			h.runTurn(ctx, credential, raw, sink)
		}, h.logger)
		h.logger.Info("CHAT_WS", "Session ended", map[string]interface{}{"user_id": userId})
	})(c)
}

func (h *ChatSocketHandler) runTurn(ctx context.Context, credential string, raw []byte, sink event.Sink) {
	var msg dto.ChatStreamRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		msg = dto.ChatStreamRequest{Message: string(raw)}
	}

	req := orchestrator.Request{
		RequestID:  uuid.NewString(),
		Credential: credential,
		SessionID:  msg.SessionId,
		Message:    msg.Text(),
		ReceivedAt: time.Now(),
	}
	out := h.runner.Run(ctx, req, sink)
	h.logger.Debug("CHAT_WS", "Turn finished", map[string]interface{}{
		"request_id": req.RequestID,
		"session_id": out.SessionID.String(),
		"stage":      string(out.Stage),
	})
}
