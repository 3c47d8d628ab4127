package entity

import (
	"time"

	"github.com/google/uuid"
)

const DefaultSessionTitle = "新对话"

type ChatSession struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	Title              string
	LastMessagePreview string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
	IsDeleted          bool
}
