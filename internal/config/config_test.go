package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"AI_STREAM_TIMEOUT", "CHAT_HISTORY_LIMIT", "ENRICH_CONCURRENCY", "CHAT_SSE_HEARTBEAT", "OTEL_ENABLED", "OTEL_SAMPLE_RATIO"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 600*time.Second, cfg.Ai.StreamTimeout)
	assert.Equal(t, 100*time.Second, cfg.Ai.ClassifyTimeout)
	assert.Equal(t, 10, cfg.Chat.HistoryLimit)
	assert.Equal(t, 30*time.Minute, cfg.Chat.RequestCeiling)
	assert.Equal(t, 15*time.Second, cfg.Chat.Heartbeat)
	assert.Equal(t, 3, cfg.Enrich.Concurrency)
	assert.Equal(t, 5, cfg.Enrich.LookupLimit)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "go duration", value: "250ms", want: 250 * time.Millisecond},
		{name: "seconds", value: "45", want: 45 * time.Second},
		{name: "garbage", value: "soon", want: time.Minute},
		{name: "empty", value: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("TEST_INT", 3))

	t.Setenv("TEST_INT", "x")
	assert.Equal(t, 3, getEnvAsInt("TEST_INT", 3))
}
