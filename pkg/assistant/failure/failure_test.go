package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindInternal},
		{name: "plain", err: errors.New("x"), want: KindInternal},
		{name: "wrapped kind", err: fmt.Errorf("outer: %w", Wrap(KindSession, "init", errors.New("x"))), want: KindSession},
		{name: "deadline wins over kind", err: Wrap(KindClassification, "classifying", context.DeadlineExceeded), want: KindTimeout},
		{name: "bare cancel", err: context.Canceled, want: KindClientGone},
		{name: "kind wins over cancel", err: Wrap(KindUpstreamTransport, "streaming", context.Canceled), want: KindUpstreamTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "timeout", err: Wrap(KindTimeout, "streaming", errors.New("x")), want: MessageTimeout},
		{name: "auth", err: Wrap(KindAuth, "init", errors.New("x")), want: MessageUnauthorized},
		{name: "blank input", err: Wrap(KindInvalidInput, "init", errors.New("x")), want: MessageEmptyInput},
		{name: "session", err: Wrap(KindSession, "init", errors.New("x")), want: MessageSession},
		{name: "transport", err: Wrap(KindUpstreamTransport, "streaming", errors.New("x")), want: MessageUnavailable},
		{name: "upstream 401", err: Wrap(KindUpstreamClient, "streaming", statusErr(401)), want: MessageUnauthorized},
		{name: "upstream 403", err: Wrap(KindUpstreamClient, "streaming", statusErr(403)), want: MessageUnauthorized},
		{name: "upstream 503", err: Wrap(KindUpstreamClient, "streaming", statusErr(503)), want: MessageUnavailable},
		{name: "upstream 422", err: Wrap(KindUpstreamClient, "streaming", statusErr(422)), want: MessageGeneric},
		{name: "classification", err: Wrap(KindClassification, "classifying", errors.New("x")), want: MessageGeneric},
		{name: "internal", err: errors.New("nil pointer"), want: MessageGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestStageOf(t *testing.T) {
	assert.Equal(t, "enriching", StageOf(Wrap(KindInternal, "enriching", nil)))
	assert.Equal(t, "", StageOf(errors.New("x")))
}
