package prompt

import "library-ai-be/pkg/assistant/intent"

var templates = map[intent.Intent]string{
	intent.BookSearch:    TemplateBookSearch,
	intent.BookRecommend: TemplateBookRecommend,
	intent.BookReview:    TemplateBookReview,
	intent.CodeQuestion:  TemplateCode,
	intent.MathProblem:   TemplateMath,
	intent.WritingHelp:   TemplateWriting,
	intent.BookBorrowing: TemplateBorrowing,
	intent.Rules:         TemplateRules,
	intent.Points:        TemplatePoints,
}

// SelectTemplate returns the system prompt for i. GENERAL, UNKNOWN and
// anything without a dedicated template get the default one.
func SelectTemplate(i intent.Intent) string {
	if t, ok := templates[i]; ok {
		return t
	}
	return TemplateDefault
}
