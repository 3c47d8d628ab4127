package service

import (
	"context"
	"encoding/json"
	"time"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/entity"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/internal/repository/specification"
	"library-ai-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	previewLimit    = 50
	previewKeep     = 47
	derivedTitleLen = 20
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService keeps session metadata in step with finished turns.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatTurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal turn message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // redelivery cannot fix a bad payload
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: payload.SessionId})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to load session", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}
	if session == nil {
		// Deleted while the answer was streaming.
		msg.Ack()
		return
	}

	if !applyTurn(session, payload.Message) {
		msg.Ack()
		return
	}
	now := cs.now()
	session.UpdatedAt = &now

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		cs.logger.Error("CONSUMER", "Failed to update session", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Debug("CONSUMER", "Session updated from turn", map[string]interface{}{
		"session_id": payload.SessionId.String(),
		"intent":     payload.Intent,
	})
	msg.Ack()
}

// applyTurn refreshes the preview and, for untitled sessions, derives a
// title from the user's message. It reports whether anything changed.
func applyTurn(session *entity.ChatSession, userMessage string) bool {
	changed := false

	preview := Preview(userMessage)
	if preview != session.LastMessagePreview {
		session.LastMessagePreview = preview
		changed = true
	}

	if session.Title == entity.DefaultSessionTitle && userMessage != "" {
		session.Title = truncateRunes(userMessage, derivedTitleLen)
		changed = true
	}
	return changed
}

// Preview shortens text over 50 runes to its first 47 plus "...".
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLimit {
		return text
	}
	return string(r[:previewKeep]) + "..."
}

func truncateRunes(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
