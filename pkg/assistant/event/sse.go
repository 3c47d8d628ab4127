package event

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
)

// SSEWriter writes events as text/event-stream records and flushes after
// each one. A write or flush error means the client went away.
type SSEWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewSSEWriter(w *bufio.Writer) *SSEWriter {
	return &SSEWriter{w: w}
}

func (s *SSEWriter) Send(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(Format(e)); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush sse event: %w", err)
	}
	return nil
}

// Ping writes an SSE comment. Browsers ignore it, but the flush tells a
// silent stream whether the client is still there.
func (s *SSEWriter) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(": ping\n\n"); err != nil {
		return fmt.Errorf("write sse ping: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush sse ping: %w", err)
	}
	return nil
}

// Format renders e as one SSE record. Multi-line data is split over several
// data fields as the protocol requires.
func Format(e Event) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(string(e.Name))
	b.WriteByte('\n')
	for _, line := range strings.Split(e.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}
