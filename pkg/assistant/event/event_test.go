package event

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "content chunk",
			event: Content(`{"type":"content","data":"你好"}`),
			want:  "event: chunk\ndata: {\"type\":\"content\",\"data\":\"你好\"}\n\n",
		},
		{
			name:  "completion",
			event: Completion(),
			want:  "event: message\ndata: {\"type\":\"content\",\"data\":\"生成完成\"}\n\n",
		},
		{
			name:  "done",
			event: Done(),
			want:  "event: done\ndata: [DONE]\n\n",
		},
		{
			name:  "error",
			event: Failure("请求超时"),
			want:  "event: error\ndata: {\"type\":\"error\",\"data\":\"请求超时\"}\n\n",
		},
		{
			name:  "multi line data",
			event: Event{Name: NameChunk, Data: "a\r\nb"},
			want:  "event: chunk\ndata: a\ndata: b\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.event))
		})
	}
}

func TestBook_OmitsUnknownFields(t *testing.T) {
	e := Book(BookInfo{Title: "三体"})
	assert.Equal(t, KindBookInfo, e.Kind)
	assert.JSONEq(t, `{"type":"book_info","title":"三体"}`, e.Data)
}

func TestSummary_EscapesMarkup(t *testing.T) {
	e := Summary("<br>《三体》")
	assert.JSONEq(t, `{"type":"content","data":"<br>《三体》"}`, e.Data)
}

type collector struct {
	events []Event
}

func (c *collector) Send(ctx context.Context, e Event) error {
	c.events = append(c.events, e)
	return nil
}

func TestSequencer_AcceptsCanonicalOrder(t *testing.T) {
	c := &collector{}
	s := NewSequencer(c)
	ctx := context.Background()

	for _, e := range []Event{Content("a"), Content("b"), Book(BookInfo{Title: "x"}), Book(BookInfo{Title: "y"}), Summary("s"), Completion(), Done()} {
		require.NoError(t, s.Send(ctx, e))
	}
	assert.Len(t, c.events, 7)
	assert.True(t, s.Closed())
	assert.Equal(t, 2, s.Count(KindBookInfo))
}

func TestSequencer_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("content after book info", func(t *testing.T) {
		s := NewSequencer(&collector{})
		require.NoError(t, s.Send(ctx, Book(BookInfo{Title: "x"})))
		assert.ErrorIs(t, s.Send(ctx, Content("late")), ErrOutOfOrder)
	})

	t.Run("second summary", func(t *testing.T) {
		s := NewSequencer(&collector{})
		require.NoError(t, s.Send(ctx, Summary("a")))
		assert.ErrorIs(t, s.Send(ctx, Summary("b")), ErrOutOfOrder)
	})

	t.Run("anything after done", func(t *testing.T) {
		s := NewSequencer(&collector{})
		require.NoError(t, s.Send(ctx, Done()))
		assert.ErrorIs(t, s.Send(ctx, Done()), ErrClosed)
	})

	t.Run("error after content is allowed once", func(t *testing.T) {
		s := NewSequencer(&collector{})
		require.NoError(t, s.Send(ctx, Content("a")))
		require.NoError(t, s.Send(ctx, Failure("x")))
		assert.ErrorIs(t, s.Send(ctx, Failure("y")), ErrOutOfOrder)
		require.NoError(t, s.Send(ctx, Done()))
	})
}

func TestSequencer_FailedSendIsNotCounted(t *testing.T) {
	broken := SinkFunc(func(ctx context.Context, e Event) error { return errors.New("gone") })
	s := NewSequencer(broken)

	assert.Error(t, s.Send(context.Background(), Done()))
	assert.False(t, s.Closed())
}

func TestSSEWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewSSEWriter(bufio.NewWriter(&buf))

	require.NoError(t, w.Send(context.Background(), Done()))
	assert.Equal(t, "event: done\ndata: [DONE]\n\n", buf.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Send(ctx, Done()), context.Canceled)
}

type brokenConn struct{}

func (brokenConn) Write(p []byte) (int, error) { return 0, errors.New("connection reset") }

func TestSSEWriter_Ping(t *testing.T) {
	var buf bytes.Buffer
	w := NewSSEWriter(bufio.NewWriter(&buf))

	require.NoError(t, w.Ping())
	require.NoError(t, w.Send(context.Background(), Done()))
	assert.Equal(t, ": ping\n\nevent: done\ndata: [DONE]\n\n", buf.String())

	assert.Error(t, NewSSEWriter(bufio.NewWriter(brokenConn{})).Ping())
}
