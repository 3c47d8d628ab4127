// Package history selects the slice of a conversation that is sent to the
// model as context.
package history

import (
	"sort"
	"time"

	"library-ai-be/pkg/llm"
)

const DefaultLimit = 10

type Entry struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// Window keeps the limit most recent entries and returns them oldest first.
// Entries without a timestamp count as written at now.
func Window(entries []Entry, limit int, now time.Time) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].CreatedAt.IsZero() {
			out[i].CreatedAt = now
		}
	}

	// Ties keep their input order, which is taken as chronological.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// ToMessages maps stored roles onto the roles the model expects.
func ToMessages(entries []Entry) []llm.Message {
	messages := make([]llm.Message, 0, len(entries))
	for _, e := range entries {
		role := e.Role
		switch role {
		case "model", "assistant", "ai":
			role = "assistant"
		case "system":
		default:
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: e.Content})
	}
	return messages
}
