package orchestrator

import (
	"context"
	"time"

	"library-ai-be/pkg/assistant/history"
	"library-ai-be/pkg/assistant/intent"

	"github.com/google/uuid"
)

// Identity is the caller behind a credential. Grade and Major are optional.
type Identity struct {
	UserID uuid.UUID
	Grade  string
	Major  string
}

type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

// ConversationStore persists sessions and their messages.
type ConversationStore interface {
	// EnsureSession returns the caller's session with the given id, or a new
	// one when sessionID is blank. A session that does not exist or belongs to
	// someone else is an error.
	EnsureSession(ctx context.Context, userID uuid.UUID, sessionID string) (uuid.UUID, error)
	AppendMessage(ctx context.Context, sessionID, userID uuid.UUID, role, content string) error
	RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]history.Entry, error)
}

type IntentClassifier interface {
	Classify(ctx context.Context, text string) (intent.Intent, error)
}

// Turn summarises a finished turn for downstream consumers.
type Turn struct {
	RequestID  string
	SessionID  uuid.UUID
	UserID     uuid.UUID
	Intent     intent.Intent
	Message    string
	Titles     []string
	Resolved   int
	Chunks     int
	Duration   time.Duration
	FinishedAt time.Time
}

type TurnObserver interface {
	TurnCompleted(ctx context.Context, turn Turn)
}

// Recorder receives operational measurements.
type Recorder interface {
	TurnStarted()
	TurnFinished(intent, outcome string, elapsed time.Duration)
	StageFailed(stage, kind string)
	FrameParsed(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) TurnStarted() {}
func (nopRecorder) TurnFinished(string, string, time.Duration) {}
func (nopRecorder) StageFailed(string, string) {}
func (nopRecorder) FrameParsed(string) {}

type nopObserver struct{}

func (nopObserver) TurnCompleted(context.Context, Turn) {}
