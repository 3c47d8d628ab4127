package prompt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProfilePrefix describes the asker for the model, e.g.
// "用户为大二学生，计算机科学专业。". grade is the enrolment year ("2023").
// The academic year rolls over in September. An empty result means nothing is
// known about the user.
func ProfilePrefix(grade, major string, now time.Time) string {
	grade = strings.TrimSpace(grade)
	major = strings.TrimSpace(major)
	if grade == "" && major == "" {
		return ""
	}
	if major == "" {
		major = "未知"
	}

	label := "未知年级"
	if enrolled, err := strconv.Atoi(grade); err == nil {
		label = yearLabel(enrolled, now)
	}

	return fmt.Sprintf("用户为%s学生，%s专业。", label, major)
}

func yearLabel(enrolled int, now time.Time) string {
	academicYear := now.Year()
	if now.Month() < time.September {
		academicYear--
	}
	switch year := academicYear - enrolled + 1; {
	case year <= 0:
		return "准大学生"
	case year == 1:
		return "大一"
	case year == 2:
		return "大二"
	case year == 3:
		return "大三"
	case year == 4:
		return "大四"
	default:
		return "毕业生"
	}
}
