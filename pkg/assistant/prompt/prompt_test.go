package prompt

import (
	"testing"
	"time"

	"library-ai-be/pkg/assistant/intent"
	"library-ai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTemplate(t *testing.T) {
	tests := []struct {
		intent intent.Intent
		want   string
	}{
		{intent.General, TemplateDefault},
		{intent.Unknown, TemplateDefault},
		{intent.Intent("SOMETHING_ELSE"), TemplateDefault},
		{intent.BookSearch, TemplateBookSearch},
		{intent.BookRecommend, TemplateBookRecommend},
		{intent.BookReview, TemplateBookReview},
		{intent.CodeQuestion, TemplateCode},
		{intent.MathProblem, TemplateMath},
		{intent.WritingHelp, TemplateWriting},
		{intent.BookBorrowing, TemplateBorrowing},
		{intent.Rules, TemplateRules},
		{intent.Points, TemplatePoints},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			assert.Equal(t, tt.want, SelectTemplate(tt.intent))
		})
	}
}

func TestSelectTemplate_EveryIntentHasAPrompt(t *testing.T) {
	for _, i := range intent.All() {
		assert.NotEmpty(t, SelectTemplate(i), i)
	}
}

func TestProfilePrefix(t *testing.T) {
	october := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		grade string
		major string
		now   time.Time
		want  string
	}{
		{name: "nothing known", now: october, want: ""},
		{name: "freshman in autumn", grade: "2024", major: "数学", now: october, want: "用户为大一学生，数学专业。"},
		{name: "freshman in spring", grade: "2024", major: "数学", now: march, want: "用户为大一学生，数学专业。"},
		{name: "senior", grade: "2021", major: "物理", now: october, want: "用户为大四学生，物理专业。"},
		{name: "graduate", grade: "2015", major: "物理", now: october, want: "用户为毕业生学生，物理专业。"},
		{name: "not yet enrolled", grade: "2025", major: "物理", now: october, want: "用户为准大学生学生，物理专业。"},
		{name: "missing major", grade: "2023", now: october, want: "用户为大二学生，未知专业。"},
		{name: "unparsable grade", grade: "大二", major: "化学", now: october, want: "用户为未知年级学生，化学专业。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfilePrefix(tt.grade, tt.major, tt.now))
		})
	}
}

func TestBuild(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "你好"},
		{Role: "assistant", Content: "你好！"},
		{Role: "user", Content: "推荐一本书"},
	}

	t.Run("question already last turn", func(t *testing.T) {
		req, err := Build(Input{History: history, Question: "推荐一本书", Template: "T", Profile: "P"})
		require.NoError(t, err)
		assert.Len(t, req.Messages, 3)
		assert.Equal(t, "推荐一本书", req.Text)
		assert.Equal(t, "P\n\nT", req.SystemPrompt)
		assert.Equal(t, DefaultMaxLength, req.MaxLength)
		assert.True(t, req.WithHistory)
	})

	t.Run("question appended", func(t *testing.T) {
		req, err := Build(Input{History: history[:2], Question: "再来一本", Template: "T", MaxLength: 500})
		require.NoError(t, err)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, llm.Message{Role: "user", Content: "再来一本"}, req.Messages[2])
		assert.Equal(t, "T", req.SystemPrompt)
		assert.Equal(t, 500, req.MaxLength)
	})

	t.Run("falls back to last user turn", func(t *testing.T) {
		req, err := Build(Input{History: history, Template: "T"})
		require.NoError(t, err)
		assert.Equal(t, "推荐一本书", req.Text)
	})

	t.Run("no question at all", func(t *testing.T) {
		_, err := Build(Input{History: history[1:2], Template: "T"})
		assert.ErrorIs(t, err, llm.ErrMissingText)
	})
}
