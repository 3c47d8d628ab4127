// Package intent classifies a user message into the closed set of question
// kinds the assistant knows how to answer.
package intent

import "strings"

type Intent string

const (
	General       Intent = "GENERAL"
	BookSearch    Intent = "BOOK_SEARCH"
	BookRecommend Intent = "BOOK_RECOMMEND"
	BookReview    Intent = "BOOK_REVIEW"
	CodeQuestion  Intent = "CODE_QUESTION"
	MathProblem   Intent = "MATH_PROBLEM"
	WritingHelp   Intent = "WRITING_HELP"
	BookBorrowing Intent = "BOOK_BORROWING"
	Rules         Intent = "RULES"
	Points        Intent = "POINTS"
	Unknown       Intent = "UNKNOWN"
)

var all = []Intent{
	General, BookSearch, BookRecommend, BookReview, CodeQuestion,
	MathProblem, WritingHelp, BookBorrowing, Rules, Points, Unknown,
}

// The classifier prompt spells borrowing as "BookBorrowing", which the
// label cleanup upper-cases to BOOKBORROWING.
var aliases = map[string]Intent{
	"BOOKBORROWING": BookBorrowing,
}

func All() []Intent {
	out := make([]Intent, len(all))
	copy(out, all)
	return out
}

// Parse maps a cleaned, upper-case label to an Intent.
func Parse(label string) (Intent, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, i := range all {
		if string(i) == label {
			return i, true
		}
	}
	if i, ok := aliases[label]; ok {
		return i, true
	}
	return "", false
}

// Enrichable reports whether answers to this intent get catalog lookups.
func (i Intent) Enrichable() bool {
	return i == BookSearch || i == BookRecommend
}

func (i Intent) String() string {
	return string(i)
}
