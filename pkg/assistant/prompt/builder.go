package prompt

import (
	"strings"

	"library-ai-be/pkg/llm"
)

const DefaultMaxLength = 2000

type Input struct {
	History   []llm.Message // chronological, may already end with the question
	Question  string
	Template  string
	Profile   string
	MaxLength int
}

// Build assembles the generation request. The current question is mandatory:
// when Question is blank the last user turn of History stands in for it, and
// when neither exists the request is rejected with llm.ErrMissingText.
func Build(in Input) (llm.GenerationRequest, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		question = lastUserTurn(in.History)
	}
	if question == "" {
		return llm.GenerationRequest{}, llm.ErrMissingText
	}

	messages := make([]llm.Message, 0, len(in.History)+1)
	messages = append(messages, in.History...)
	if n := len(messages); n == 0 || messages[n-1].Role != "user" || strings.TrimSpace(messages[n-1].Content) != question {
		messages = append(messages, llm.Message{Role: "user", Content: question})
	}

	maxLength := in.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	system := in.Template
	if in.Profile != "" {
		system = in.Profile + "\n\n" + in.Template
	}

	req := llm.GenerationRequest{
		Messages:     messages,
		MaxLength:    maxLength,
		WithHistory:  true,
		SystemPrompt: system,
		Text:         question,
	}
	return req, req.Validate()
}

func lastUserTurn(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}
