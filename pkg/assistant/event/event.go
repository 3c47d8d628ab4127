// Package event defines what a chat turn emits to its client and how those
// events are written to a Server-Sent Events stream.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Name is the SSE event name.
type Name string

const (
	NameChunk   Name = "chunk"
	NameMessage Name = "message"
	NameDone    Name = "done"
	NameError   Name = "error"
)

// Kind orders events within a turn: content, then book info, then the
// summary, then the completion marker, then done. An error replaces
// everything before done.
type Kind int

const (
	KindContent Kind = iota
	KindBookInfo
	KindSummary
	KindCompletion
	KindError
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindBookInfo:
		return "book_info"
	case KindSummary:
		return "summary"
	case KindCompletion:
		return "completion"
	case KindError:
		return "error"
	default:
		return "done"
	}
}

const (
	CompletionText = "生成完成"
	DoneData       = "[DONE]"
)

type Event struct {
	Kind Kind
	Name Name
	Data string
}

// Payload is the {type,data} body shared by content, summary, completion and
// error events.
type Payload struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// BookInfo carries one catalog hit. Unknown optional fields are omitted.
type BookInfo struct {
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	AuthorProfile string   `json:"authorProfile,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Quantity      *int     `json:"quantity,omitempty"`
}

func encode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Payloads are plain structs of strings and numbers.
		panic(fmt.Sprintf("event: encode payload: %v", err))
	}
	return string(b)
}

// Content relays an upstream frame as received.
func Content(raw string) Event {
	return Event{Kind: KindContent, Name: NameChunk, Data: raw}
}

func Book(info BookInfo) Event {
	info.Type = "book_info"
	return Event{Kind: KindBookInfo, Name: NameChunk, Data: encode(info)}
}

func Summary(text string) Event {
	return Event{Kind: KindSummary, Name: NameChunk, Data: encode(Payload{Type: "content", Data: text})}
}

func Completion() Event {
	return Event{Kind: KindCompletion, Name: NameMessage, Data: encode(Payload{Type: "content", Data: CompletionText})}
}

func Failure(message string) Event {
	return Event{Kind: KindError, Name: NameError, Data: encode(Payload{Type: "error", Data: message})}
}

func Done() Event {
	return Event{Kind: KindDone, Name: NameDone, Data: DoneData}
}

// Sink receives the events of one turn in order. An error means the client
// can no longer be reached.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Send(ctx context.Context, e Event) error {
	return f(ctx, e)
}

var (
	ErrOutOfOrder = errors.New("event out of order")
	ErrClosed     = errors.New("event stream already closed")
)

// Sequencer guards a Sink so a turn can never emit events out of order,
// twice after done, or without at most one error.
type Sequencer struct {
	next   Sink
	last   Kind
	sent   bool
	closed bool
	counts map[Kind]int
}

func NewSequencer(next Sink) *Sequencer {
	return &Sequencer{next: next, counts: make(map[Kind]int)}
}

func (s *Sequencer) Send(ctx context.Context, e Event) error {
	if s.closed {
		return ErrClosed
	}
	if s.sent && e.Kind < s.last {
		return fmt.Errorf("%w: %s after %s", ErrOutOfOrder, e.Kind, s.last)
	}
	if (e.Kind == KindSummary || e.Kind == KindCompletion || e.Kind == KindError) && s.counts[e.Kind] > 0 {
		return fmt.Errorf("%w: second %s", ErrOutOfOrder, e.Kind)
	}
	if err := s.next.Send(ctx, e); err != nil {
		return err
	}
	s.last = e.Kind
	s.sent = true
	s.counts[e.Kind]++
	if e.Kind == KindDone {
		s.closed = true
	}
	return nil
}

// Closed reports whether done has been emitted.
func (s *Sequencer) Closed() bool {
	return s.closed
}

func (s *Sequencer) Count(k Kind) int {
	return s.counts[k]
}
