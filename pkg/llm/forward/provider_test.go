package forward

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"library-ai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(url string) *ForwardProvider {
	return NewForwardProvider(Config{URL: url, RetryBackoff: time.Millisecond}, nil)
}

func collect(t *testing.T, p *ForwardProvider, req llm.GenerationRequest) ([]string, error) {
	t.Helper()
	var frames []string
	err := p.StreamGenerate(context.Background(), req, func(f string) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

var question = llm.GenerationRequest{Text: "你好", SystemPrompt: "sys", WithHistory: true, MaxLength: 2000}

func TestStreamGenerate_RelaysSSEFrames(t *testing.T) {
	var body llm.GenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keepalive\n")
		fmt.Fprint(w, "event: chunk\n")
		fmt.Fprint(w, "data: {\"type\":\"think\",\"data\":\"嗯\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content\",\"data\":\"你好\"}\n\n")
		fmt.Fprint(w, "{\"type\":\"end\",\"data\":\"\"}\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content\",\"data\":\"ignored\"}\n\n")
	}))
	defer srv.Close()

	frames, err := collect(t, newProvider(srv.URL), question)

	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"type":"think","data":"嗯"}`,
		`{"type":"content","data":"你好"}`,
		`{"type":"end","data":""}`,
	}, frames)
	assert.Equal(t, "你好", body.Text)
	assert.Equal(t, "sys", body.SystemPrompt)
	assert.Equal(t, 2000, body.MaxLength)
}

func TestStreamGenerate_RetriesOnceThenFallsBack(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	frames, err := collect(t, newProvider(srv.URL), question)

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, []string{llm.FallbackFrame}, frames)
}

func TestStreamGenerate_RecoversOnSecondAttempt(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "data: {\"type\":\"content\",\"data\":\"ok\"}\n\n")
	}))
	defer srv.Close()

	frames, err := collect(t, newProvider(srv.URL), question)

	require.NoError(t, err)
	assert.Equal(t, []string{`{"type":"content","data":"ok"}`}, frames)
}

func TestStreamGenerate_RetriesAfterAttemptTimeout(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			<-r.Context().Done()
			return
		}
		fmt.Fprint(w, "data: {\"type\":\"content\",\"data\":\"ok\"}\n\n")
	}))
	defer srv.Close()

	p := NewForwardProvider(Config{URL: srv.URL, StreamTimeout: 200 * time.Millisecond, RetryBackoff: time.Millisecond}, nil)
	frames, err := collect(t, p, question)

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, []string{`{"type":"content","data":"ok"}`}, frames)
}

func TestStreamGenerate_CallerDeadlineNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := newProvider(srv.URL).StreamGenerate(ctx, question, func(string) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestStreamGenerate_ClientErrorNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "forbidden")
	}))
	defer srv.Close()

	frames, err := collect(t, newProvider(srv.URL), question)

	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "forbidden", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, frames)
}

func TestStreamGenerate_MissingText(t *testing.T) {
	_, err := collect(t, newProvider("http://127.0.0.1:0"), llm.GenerationRequest{SystemPrompt: "sys"})
	assert.ErrorIs(t, err, llm.ErrMissingText)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<think>x</think>BOOK_SEARCH")
	}))
	defer srv.Close()

	reply, err := newProvider(srv.URL).Complete(context.Background(), llm.GenerationRequest{Text: "q"})

	require.NoError(t, err)
	assert.Equal(t, "<think>x</think>BOOK_SEARCH", reply)
}

func TestFrameFromLine(t *testing.T) {
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{line: "data: {\"a\":1}", want: "{\"a\":1}", wantOK: true},
		{line: "data:{\"a\":1}\r", want: "{\"a\":1}", wantOK: true},
		{line: "data: ", wantOK: false},
		{line: "", wantOK: false},
		{line: ": ping", wantOK: false},
		{line: "event: chunk", wantOK: false},
		{line: "id: 7", wantOK: false},
		{line: "retry: 100", wantOK: false},
		{line: "{\"type\":\"content\"}", want: "{\"type\":\"content\"}", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := FrameFromLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
