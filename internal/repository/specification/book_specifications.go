package specification

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BookKeywordContains matches books whose title, author, description or tags
// contain Keyword, case-insensitively. LIKE wildcards in Keyword are literal.
type BookKeywordContains struct {
	Keyword string
}

func (s BookKeywordContains) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(s.Keyword)) + "%"
	return db.Where(
		"title ILIKE ? OR author ILIKE ? OR description ILIKE ? OR CAST(tags AS text) ILIKE ?",
		pattern, pattern, pattern, pattern,
	)
}

// BookTitleIs matches one exact title.
type BookTitleIs struct {
	Title string
}

func (s BookTitleIs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title = ?", s.Title)
}

// BookBestRatedFirst orders by rating with unrated books last.
type BookBestRatedFirst struct{}

func (s BookBestRatedFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("rating DESC NULLS LAST").Order("title ASC")
}
