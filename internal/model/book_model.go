package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Book struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title         string         `gorm:"type:varchar(255);not null;index"`
	Author        string         `gorm:"type:varchar(255)"`
	AuthorProfile string         `gorm:"type:text"`
	Publisher     string         `gorm:"type:varchar(255)"`
	Description   string         `gorm:"type:text"`
	Tags          datatypes.JSON `gorm:"type:jsonb"`
	Rating        *float64       `gorm:"type:numeric(3,1)"`
	Stock         *int
	PublishYear   int
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Book) TableName() string {
	return "books"
}
