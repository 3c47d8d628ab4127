package events

import (
	"time"

	"github.com/google/uuid"
)

const TypeChatTurnCompleted = "CHAT_TURN_COMPLETED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewChatTurnCompleted describes a finished chat turn. The message text is
// left out; subscribers on the bus only get metadata.
func NewChatTurnCompleted(sessionId, userId uuid.UUID, intent string, titles []string, resolved int, at time.Time) BaseEvent {
	if titles == nil {
		titles = []string{}
	}
	return BaseEvent{
		Type: TypeChatTurnCompleted,
		Data: map[string]interface{}{
			"session_id":  sessionId.String(),
			"user_id":     userId.String(),
			"intent":      intent,
			"titles":      titles,
			"resolved":    resolved,
			"entity_type": "chat_session",
			"entity_id":   sessionId.String(),
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}
