package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatStreamRequest is the body of a streaming chat call. Older clients send
// the text as "content" instead of "message".
type ChatStreamRequest struct {
	SessionId string `json:"sessionId"`
	Message   string `json:"message"`
	Content   string `json:"content"`
}

func (r ChatStreamRequest) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Content
}

// ChatSocketEvent is one outbound websocket frame.
type ChatSocketEvent struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=100"`
}

type UpdateSessionTitleRequest struct {
	Title string `json:"title" validate:"required,max=100"`
}

type SessionResponse struct {
	Id                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	LastMessagePreview string     `json:"last_message_preview"`
	MessageCount       int64      `json:"message_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatTurnCompletedMessage is the payload of the in-process turn topic.
type ChatTurnCompletedMessage struct {
	RequestId  string    `json:"request_id"`
	SessionId  uuid.UUID `json:"session_id"`
	UserId     uuid.UUID `json:"user_id"`
	Intent     string    `json:"intent"`
	Message    string    `json:"message"`
	Titles     []string  `json:"titles"`
	Resolved   int       `json:"resolved"`
	Chunks     int       `json:"chunks"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
