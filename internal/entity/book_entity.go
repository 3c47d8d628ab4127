package entity

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	Id            uuid.UUID
	Title         string
	Author        string
	AuthorProfile string
	Publisher     string
	Description   string
	Tags          []string
	Rating        *float64
	Stock         *int
	PublishYear   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
