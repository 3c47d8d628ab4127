package service

import (
	"context"
	"encoding/json"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/assistant/orchestrator"
	"library-ai-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher publishes domain events to the cross-service bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ChatEventPublisher fans a finished turn out to the in-process topic and,
// when connected, to the NATS bus.
type ChatEventPublisher struct {
	topicName string
	publisher message.Publisher
	bus       EventPublisher
	logger    logger.ILogger
}

var _ orchestrator.TurnObserver = (*ChatEventPublisher)(nil)

func NewChatEventPublisher(topicName string, publisher message.Publisher, bus EventPublisher, log logger.ILogger) *ChatEventPublisher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ChatEventPublisher{
		topicName: topicName,
		publisher: publisher,
		bus:       bus,
		logger:    log,
	}
}

func (p *ChatEventPublisher) TurnCompleted(ctx context.Context, turn orchestrator.Turn) {
	payload := dto.ChatTurnCompletedMessage{
		RequestId:  turn.RequestID,
		SessionId:  turn.SessionID,
		UserId:     turn.UserID,
		Intent:     turn.Intent.String(),
		Message:    turn.Message,
		Titles:     turn.Titles,
		Resolved:   turn.Resolved,
		Chunks:     turn.Chunks,
		DurationMs: turn.Duration.Milliseconds(),
		FinishedAt: turn.FinishedAt,
	}

	if p.publisher != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			p.logger.Error("EVENTS", "Failed to marshal turn", map[string]interface{}{"error": err.Error()})
			return
		}
		msg := message.NewMessage(watermill.NewUUID(), raw)
		msg.SetContext(ctx)
		if err := p.publisher.Publish(p.topicName, msg); err != nil {
			p.logger.Error("EVENTS", "Failed to publish turn to topic", map[string]interface{}{
				"topic": p.topicName,
				"error": err.Error(),
			})
		}
	}

	if p.bus != nil {
		if err := p.bus.Publish(ctx, events.NewChatTurnCompleted(payload.SessionId, payload.UserId, payload.Intent, payload.Titles, payload.Resolved, payload.FinishedAt)); err != nil {
			p.logger.Error("EVENTS", "Failed to publish CHAT_TURN_COMPLETED event", map[string]interface{}{"error": err.Error()})
		}
	}
}
