package contract

import (
	"context"

	"library-ai-be/internal/entity"
	"library-ai-be/internal/repository/specification"
)

type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
