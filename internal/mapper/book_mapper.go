package mapper

import (
	"encoding/json"

	"library-ai-be/internal/entity"
	"library-ai-be/internal/model"

	"gorm.io/datatypes"
)

type BookMapper struct{}

func NewBookMapper() *BookMapper {
	return &BookMapper{}
}

func (m *BookMapper) ToEntity(b *model.Book) *entity.Book {
	if b == nil {
		return nil
	}

	var tags []string
	if len(b.Tags) > 0 {
		// Tags that are not a JSON string array are ignored.
		_ = json.Unmarshal(b.Tags, &tags)
	}

	return &entity.Book{
		Id:            b.Id,
		Title:         b.Title,
		Author:        b.Author,
		AuthorProfile: b.AuthorProfile,
		Publisher:     b.Publisher,
		Description:   b.Description,
		Tags:          tags,
		Rating:        b.Rating,
		Stock:         b.Stock,
		PublishYear:   b.PublishYear,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (m *BookMapper) ToModel(b *entity.Book) *model.Book {
	if b == nil {
		return nil
	}

	var tags datatypes.JSON
	if len(b.Tags) > 0 {
		raw, _ := json.Marshal(b.Tags)
		tags = datatypes.JSON(raw)
	}

	return &model.Book{
		Id:            b.Id,
		Title:         b.Title,
		Author:        b.Author,
		AuthorProfile: b.AuthorProfile,
		Publisher:     b.Publisher,
		Description:   b.Description,
		Tags:          tags,
		Rating:        b.Rating,
		Stock:         b.Stock,
		PublishYear:   b.PublishYear,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (m *BookMapper) ToEntities(books []*model.Book) []*entity.Book {
	entities := make([]*entity.Book, len(books))
	for i, b := range books {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
