package enrich

import (
	"strconv"
	"strings"

	"library-ai-be/pkg/assistant/stream"
)

const (
	summaryHeader = "<br><br>书籍信息查询结果：<br />"
	notHeld       = " - 未被馆藏收录"
)

// BuildSummary lists every detected title, with holdings for resolved ones
// and a not-held note for the rest.
func BuildSummary(titles []string, st *stream.State) string {
	var b strings.Builder
	b.WriteString(summaryHeader)
	for _, title := range titles {
		b.WriteString("《")
		b.WriteString(title)
		b.WriteString("》")

		rec, ok := st.Resolved(title)
		if !ok {
			b.WriteString(notHeld)
			b.WriteString("<br>")
			continue
		}
		if rec.AuthorProfile != "" {
			b.WriteString(" - ")
			b.WriteString(rec.AuthorProfile)
		}
		if rec.Publisher != "" {
			b.WriteString("，出版社：")
			b.WriteString(rec.Publisher)
		}
		if rec.Rating != nil && *rec.Rating > 0 {
			b.WriteString("，评分：")
			b.WriteString(formatRating(*rec.Rating))
		}
		if rec.Quantity != nil && *rec.Quantity > 0 {
			b.WriteString("，馆藏数量：")
			b.WriteString(strconv.Itoa(*rec.Quantity))
		}
		b.WriteString("<br>")
	}
	return b.String()
}

func formatRating(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
