package nats

import (
	"context"
	"testing"
	"time"

	"library-ai-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.CHAT_TURN_COMPLETED", Subject(events.TypeChatTurnCompleted))
}

func TestDecode(t *testing.T) {
	evt, err := decode("events.CHAT_TURN_COMPLETED", []byte(`{"intent":"BOOK_RECOMMEND","occurred_at":"2025-03-01T10:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, events.TypeChatTurnCompleted, evt.EventType())
	assert.Equal(t, "BOOK_RECOMMEND", evt.Payload()["intent"])
	assert.True(t, evt.Timestamp().Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := decode("events.X", []byte(`not json`))
	assert.Error(t, err)
}

func TestPublish_NotConnected(t *testing.T) {
	var p *Publisher
	err := p.Publish(context.Background(), events.BaseEvent{Type: "X"})
	assert.ErrorIs(t, err, ErrNotConnected)
}
