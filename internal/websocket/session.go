package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/assistant/event"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
	inboundBuffer  = 4
)

var ErrSessionClosed = errors.New("websocket session closed")

// TurnFunc handles one inbound text message, writing its events to sink.
type TurnFunc func(ctx context.Context, raw []byte, sink event.Sink)

// Session couples one websocket connection with a single writer. Inbound
// messages are handled one at a time, in arrival order.
type Session struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger logger.ILogger
}

func newSession(conn *websocket.Conn, log logger.ILogger) *Session {
	return &Session{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: log,
	}
}

// Serve blocks until the peer goes away and every started turn has
// returned. The connection must not be used after Serve returns.
func Serve(conn *websocket.Conn, turn TurnFunc, log logger.ILogger) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := newSession(conn, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		s.writePump()
	}()

	inbound := make(chan []byte, inboundBuffer)
	var worker sync.WaitGroup
	worker.Add(1)
	go func() {
		defer worker.Done()
		for raw := range inbound {
			turn(ctx, raw, s)
		}
	}()

	s.readPump(ctx, inbound)

	// Peer is gone: abort the running turn, then stop the writer.
	cancel()
	close(inbound)
	worker.Wait()
	s.close()
	writer.Wait()
}

// Send queues e as a {"event","data"} text frame.
func (s *Session) Send(ctx context.Context, e event.Event) error {
	raw, err := json.Marshal(dto.ChatSocketEvent{Event: string(e.Name), Data: e.Data})
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.send <- raw:
		return nil
	}
}

func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) readPump(ctx context.Context, inbound chan<- []byte) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Warn("WEBSOCKET", "Read failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if kind != websocket.TextMessage {
			continue
		}

		select {
		case inbound <- raw:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
		// Unblocks readPump when the writer fails first.
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case raw := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.logger.Debug("WEBSOCKET", "Write failed", map[string]interface{}{"error": err.Error()})
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
