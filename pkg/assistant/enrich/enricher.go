// Package enrich resolves the book titles mentioned in an answer against the
// library catalog.
package enrich

import (
	"context"
	"time"

	"library-ai-be/internal/pkg/logger"
	"library-ai-be/pkg/assistant/catalog"
	"library-ai-be/pkg/assistant/event"
	"library-ai-be/pkg/assistant/stream"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrency = 3
	DefaultInterval    = 100 * time.Millisecond
)

type Config struct {
	Concurrency int
	Interval    time.Duration // minimum spacing between two lookups
}

type Enricher struct {
	catalog     catalog.Catalog
	concurrency int
	interval    time.Duration
	logger      logger.ILogger
}

// Result is empty when enrichment had nothing to do.
type Result struct {
	Books   []event.BookInfo
	Summary string
	Looked  []string // titles sent to the catalog
}

func (r Result) Empty() bool {
	return r.Summary == ""
}

func NewEnricher(c catalog.Catalog, cfg Config, log logger.ILogger) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Enricher{catalog: c, concurrency: cfg.Concurrency, interval: cfg.Interval, logger: log}
}

// Enrich looks up every title quoted after the last reasoning boundary,
// records hits in st and builds the book events and the summary. The summary
// is appended to st's buffer. A failed lookup only loses that title; the
// returned error is reserved for cancellation of ctx.
func (e *Enricher) Enrich(ctx context.Context, st *stream.State) (Result, error) {
	detected := st.Titles()
	if len(detected) == 0 {
		return Result{}, nil
	}

	var candidates []string
	for _, title := range stream.ExtractTitles(stream.AfterBoundary(st.Text())) {
		if st.HasTitle(title) {
			candidates = append(candidates, title)
		}
	}
	if len(candidates) == 0 {
		e.logger.Info("ENRICH", "No titles after reasoning boundary, skipping lookups", map[string]interface{}{
			"detected": len(detected),
		})
		return Result{}, nil
	}

	hits, err := e.lookupAll(ctx, candidates)
	if err != nil {
		return Result{}, err
	}

	res := Result{Looked: candidates}
	for i, title := range candidates {
		records := hits[i]
		if len(records) == 0 {
			continue
		}
		// The catalog answers best rated first; that record stands for the title.
		if err := st.Resolve(title, records[0]); err != nil {
			e.logger.Warn("ENRICH", "Dropping hit for unknown title", map[string]interface{}{"title": title})
			continue
		}
		for _, rec := range records {
			res.Books = append(res.Books, toBookInfo(rec))
		}
	}

	res.Summary = BuildSummary(detected, st)
	st.AppendRaw(res.Summary)
	return res, nil
}

func (e *Enricher) lookupAll(ctx context.Context, titles []string) ([][]catalog.Record, error) {
	hits := make([][]catalog.Record, len(titles))
	limiter := rate.NewLimiter(rate.Every(e.interval), 1)

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, title := range titles {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			records, err := e.catalog.Lookup(ctx, title)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Error("ENRICH", "Catalog lookup failed", map[string]interface{}{
					"title": title,
					"error": err.Error(),
				})
				return nil
			}
			hits[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hits, nil
}

func toBookInfo(rec catalog.Record) event.BookInfo {
	info := event.BookInfo{
		Title:         rec.Title,
		AuthorProfile: rec.AuthorProfile,
		Publisher:     rec.Publisher,
	}
	if rec.Rating != nil && *rec.Rating > 0 {
		r := *rec.Rating
		info.Rating = &r
	}
	if rec.Quantity != nil && *rec.Quantity > 0 {
		q := *rec.Quantity
		info.Quantity = &q
	}
	return info
}
