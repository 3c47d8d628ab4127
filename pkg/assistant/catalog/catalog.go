// Package catalog declares the read-only view of the library catalog used to
// enrich answers with holdings.
package catalog

import "context"

// Record is one catalog hit. Optional fields are nil or empty when the
// catalog does not know them.
type Record struct {
	Title         string
	AuthorProfile string
	Publisher     string
	Rating        *float64
	Quantity      *int
}

// Catalog finds records whose title, author, description or tags contain
// keyword, best rated first.
type Catalog interface {
	Lookup(ctx context.Context, keyword string) ([]Record, error)
}
