package service

import (
	"context"
	"strings"

	"library-ai-be/internal/entity"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/internal/repository/cache"
	"library-ai-be/internal/repository/specification"
	"library-ai-be/internal/repository/unitofwork"
	"library-ai-be/pkg/assistant/catalog"
)

const defaultLookupLimit = 5

// Lookup results reported to the recorder.
const (
	LookupHitL1 = "hit_l1"
	LookupHitL2 = "hit_l2"
	LookupDB    = "db"
	LookupError = "error"
)

type LookupRecorder interface {
	CatalogLookup(result string)
}

// CatalogService answers catalog lookups from the cache tiers before falling
// back to the books table.
type CatalogService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.CatalogCache
	limit      int
	recorder   LookupRecorder
	logger     logger.ILogger
}

var _ catalog.Catalog = (*CatalogService)(nil)

func NewCatalogService(
	uowFactory unitofwork.RepositoryFactory,
	lookupCache *cache.CatalogCache,
	limit int,
	recorder LookupRecorder,
	log logger.ILogger,
) *CatalogService {
	if limit <= 0 {
		limit = defaultLookupLimit
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CatalogService{
		uowFactory: uowFactory,
		cache:      lookupCache,
		limit:      limit,
		recorder:   recorder,
		logger:     log,
	}
}

func (s *CatalogService) Lookup(ctx context.Context, keyword string) ([]catalog.Record, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}

	if s.cache != nil {
		if records, level, ok := s.cache.Get(ctx, keyword); ok {
			if level == cache.LevelL1 {
				s.record(LookupHitL1)
			} else {
				s.record(LookupHitL2)
			}
			return records, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	books, err := uow.BookRepository().FindAll(ctx,
		specification.BookKeywordContains{Keyword: keyword},
		specification.BookBestRatedFirst{},
		specification.Pagination{Limit: s.limit},
	)
	if err != nil {
		s.record(LookupError)
		return nil, err
	}
	s.record(LookupDB)

	records := make([]catalog.Record, 0, len(books))
	for _, b := range books {
		records = append(records, toRecord(b))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, keyword, records); err != nil {
			s.logger.Warn("CATALOG", "Failed to cache lookup", map[string]interface{}{
				"keyword": keyword,
				"error":   err.Error(),
			})
		}
	}
	return records, nil
}

func (s *CatalogService) record(result string) {
	if s.recorder != nil {
		s.recorder.CatalogLookup(result)
	}
}

func toRecord(b *entity.Book) catalog.Record {
	author := b.AuthorProfile
	if author == "" {
		author = b.Author
	}
	return catalog.Record{
		Title:         b.Title,
		AuthorProfile: author,
		Publisher:     b.Publisher,
		Rating:        b.Rating,
		Quantity:      b.Stock,
	}
}
