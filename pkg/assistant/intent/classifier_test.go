package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"library-ai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLabel(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr error
	}{
		{name: "plain label", reply: "<think>想想</think>BOOK_SEARCH", want: "BOOK_SEARCH"},
		{name: "lower case with spaces", reply: "<think></think>\n  book_recommend  ", want: "BOOK_RECOMMEND"},
		{name: "trailing quote", reply: `<think>x</think>MATH_PROBLEM"`, want: "MATH_PROBLEM"},
		{name: "extra words dropped", reply: "<think>x</think>RULES 因为用户问规则", want: "RULES"},
		{name: "last boundary wins", reply: "<think>a</think>GENERAL</think>POINTS", want: "POINTS"},
		{name: "json encoded body", reply: `"<think>分析</think>\nCODE_QUESTION"`, want: "CODE_QUESTION"},
		{name: "escaped newlines", reply: `<think>x</think>\nWRITING_HELP`, want: "WRITING_HELP"},
		{name: "no boundary", reply: "BOOK_SEARCH", wantErr: ErrNoBoundary},
		{name: "nothing after boundary", reply: "<think>x</think>   ", wantErr: ErrEmptyLabel},
		{name: "only quotes", reply: `<think>x</think>""`, wantErr: ErrEmptyLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractLabel(tt.reply)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	for _, i := range All() {
		got, ok := Parse(string(i))
		assert.True(t, ok, i)
		assert.Equal(t, i, got)
	}

	got, ok := Parse("BOOKBORROWING")
	assert.True(t, ok)
	assert.Equal(t, BookBorrowing, got)

	_, ok = Parse("WEATHER")
	assert.False(t, ok)
}

func TestEnrichable(t *testing.T) {
	for _, i := range All() {
		want := i == BookSearch || i == BookRecommend
		assert.Equal(t, want, i.Enrichable(), i)
	}
}

type completerFunc func(ctx context.Context, req llm.GenerationRequest) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.GenerationRequest) (string, error) {
	return f(ctx, req)
}

func TestClassifier_Classify(t *testing.T) {
	var got llm.GenerationRequest
	c := NewClassifier(completerFunc(func(ctx context.Context, req llm.GenerationRequest) (string, error) {
		got = req
		return "<think>用户想找书</think>BookBorrowing", nil
	}), 0, nil)

	i, err := c.Classify(context.Background(), "怎么借书")

	require.NoError(t, err)
	assert.Equal(t, BookBorrowing, i)
	assert.True(t, strings.HasSuffix(got.Text, "用户输入: 怎么借书"))
	assert.Equal(t, classifierSystemPrompt, got.SystemPrompt)
	assert.Empty(t, got.Messages)
}

func TestClassifier_UnknownLabelIsAnError(t *testing.T) {
	c := NewClassifier(completerFunc(func(ctx context.Context, req llm.GenerationRequest) (string, error) {
		return "<think></think>WEATHER", nil
	}), 0, nil)

	_, err := c.Classify(context.Background(), "明天天气")

	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestClassifier_Timeout(t *testing.T) {
	c := NewClassifier(completerFunc(func(ctx context.Context, req llm.GenerationRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 10*time.Millisecond, nil)

	_, err := c.Classify(context.Background(), "你好")

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
