package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/llm"
)

// BoundaryMarker separates the model's reasoning from its final answer.
const BoundaryMarker = "</think>"

const (
	classifierSystemPrompt = "你是一个问题分类器。只输出分类结果，不要有任何其他内容。"
	classifierPromptHeader = "你是一个专门负责对用户问题进行分类的AI助手。请分析以下用户输入，将其分类为以下类别之一：\n" +
		"1. GENERAL - 通用问答\n" +
		"2. BOOK_SEARCH - 图书查询\n" +
		"3. BOOK_RECOMMEND - 图书推荐\n" +
		"4. BOOK_REVIEW - 图书评论\n" +
		"5. CODE_QUESTION - 编程问题\n" +
		"6. MATH_PROBLEM - 数学问题\n" +
		"7. WRITING_HELP - 写作帮助\n" +
		"8. BookBorrowing - 图书借阅\n" +
		"9. RULES - 图书馆规则\n" +
		"10. POINTS - 图书馆积分\n\n" +
		"请仅返回类别代码，例如 BOOK_SEARCH，不要包含其他解释。\n\n" +
		"用户输入: "

	DefaultTimeout = 100 * time.Second
)

var (
	ErrNoBoundary   = errors.New("classifier reply has no reasoning boundary")
	ErrEmptyLabel   = errors.New("classifier reply has an empty label")
	ErrUnknownLabel = errors.New("classifier reply has a label outside the intent set")
)

type Classifier struct {
	completer llm.Completer
	timeout   time.Duration
	logger    logger.ILogger
}

func NewClassifier(completer llm.Completer, timeout time.Duration, log logger.ILogger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Classifier{completer: completer, timeout: timeout, logger: log}
}

// BuildRequest returns the classification request for one user message.
func BuildRequest(userText string) llm.GenerationRequest {
	return llm.GenerationRequest{
		Text:         classifierPromptHeader + userText,
		SystemPrompt: classifierSystemPrompt,
	}
}

// Classify asks the upstream for the intent of userText. There is no
// fallback label: a timeout, a missing boundary or an unknown label is an
// error.
func (c *Classifier) Classify(ctx context.Context, userText string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.completer.Complete(ctx, BuildRequest(userText))
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	label, err := ExtractLabel(reply)
	if err != nil {
		c.logger.Warn("INTENT", "Unusable classifier reply", map[string]interface{}{
			"error": err.Error(),
			"reply": truncate(reply, 200),
		})
		return "", err
	}

	i, ok := Parse(label)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	c.logger.Debug("INTENT", "Classified message", map[string]interface{}{"intent": i})
	return i, nil
}

// ExtractLabel pulls the label out of a raw classifier reply: the text after
// the last reasoning boundary, trailing quotes stripped, first token only,
// upper-cased.
func ExtractLabel(reply string) (string, error) {
	text := normalizeReply(reply)

	idx := strings.LastIndex(text, BoundaryMarker)
	if idx < 0 {
		return "", ErrNoBoundary
	}
	label := strings.TrimSpace(text[idx+len(BoundaryMarker):])
	label = strings.TrimRight(label, `"'`)
	if fields := strings.Fields(label); len(fields) > 0 {
		label = fields[0]
	} else {
		label = ""
	}
	label = strings.ToUpper(strings.Trim(label, `"'`))
	if label == "" {
		return "", ErrEmptyLabel
	}
	return label, nil
}

// normalizeReply undoes the transport encodings seen from the gateway: a
// JSON string body, or literal "\n" escape sequences.
func normalizeReply(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}
	return strings.ReplaceAll(trimmed, `\n`, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
