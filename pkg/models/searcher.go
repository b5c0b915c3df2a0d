package models

import "context"

// ProductSearcher runs the full embed, index-search, decode, resolve
// pipeline for one query.
type ProductSearcher interface {
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}
