package models

import "context"

// CatalogStore resolves decoded neighbor identifiers against the product
// warehouse. Both operations are single batched queries; the warehouse is
// a SQL-style store where per-row round trips are a performance trap at
// this data size.
type CatalogStore interface {
	// ResolveImageURLs returns a browser-usable, time-limited URL for each
	// storage URI. For a well-formed batch the result has the same
	// cardinality and order as the input.
	ResolveImageURLs(ctx context.Context, uris []string) ([]string, error)

	// LookupAisles returns the aisle code per product id. The store has no
	// obligation to preserve order or to return a row for every id.
	LookupAisles(ctx context.Context, productIDs []string) (map[string]string, error)

	Close() error
}
