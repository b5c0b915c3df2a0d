// Package postgres implements the catalog store against the product
// warehouse. Signed image URLs and aisle locations are each resolved with
// a single batched query; the warehouse is never queried row by row.
package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/uptrace/bun"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/models"
)

var _ models.CatalogStore = &CatalogStore{}

type CatalogStore struct {
	db         *bun.DB
	imagesView string
	aisleTable string
}

// NewCatalogStore returns a CatalogStore bound to the configured warehouse
// views. The bun.DB handle is shared read-only; no per-request state is
// written to it.
func NewCatalogStore(db *bun.DB, cfg *config.Config) *CatalogStore {
	return &CatalogStore{
		db:         db,
		imagesView: cfg.Catalog.ImagesView,
		aisleTable: cfg.Catalog.AisleTable,
	}
}

type imageURLRow struct {
	URI       string `bun:"uri"`
	SignedURL string `bun:"signed_url"`
}

// ResolveImageURLs returns a time-limited signed URL per storage URI, in
// input order, via one batched query against the signed-URL view. The
// query result is keyed by URI and expanded back over the input, so a URI
// appearing twice in the batch yields a URL at both positions. A URI with
// no row is simply absent from the result; the caller treats a short
// result as unresolvable.
func (s *CatalogStore) ResolveImageURLs(ctx context.Context, uris []string) ([]string, error) {
	if len(uris) == 0 {
		return nil, nil
	}

	var rows []imageURLRow
	err := s.db.NewSelect().
		Table(s.imagesView).
		Column("uri", "signed_url").
		Where("uri IN (?)", bun.In(uris)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("%w: signed url query: %v", models.ErrCatalogUnavailable, err)
	}

	urlByURI := make(map[string]string, len(rows))
	for _, row := range rows {
		urlByURI[row.URI] = row.SignedURL
	}

	urls := make([]string, 0, len(uris))
	for _, uri := range uris {
		if url, ok := urlByURI[uri]; ok {
			urls = append(urls, url)
		}
	}
	return urls, nil
}

type aisleRow struct {
	ProductID int64  `bun:"productid"`
	Aisle     string `bun:"aisle"`
}

// LookupAisles returns the aisle code per product id via one batched
// query. Ids with no shelf-location row are simply absent from the result;
// that gap is the caller's to soft-fail.
func (s *CatalogStore) LookupAisles(
	ctx context.Context,
	productIDs []string,
) (map[string]string, error) {
	if len(productIDs) == 0 {
		return map[string]string{}, nil
	}

	ids := make([]int64, len(productIDs))
	for i, pid := range productIDs {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			return nil, fmt.Errorf(
				"product id %q is not a decimal numeral: %w",
				pid,
				models.ErrInvalidInput,
			)
		}
		ids[i] = id
	}

	var rows []aisleRow
	err := s.db.NewSelect().
		Table(s.aisleTable).
		Column("productid", "aisle").
		Where("productid IN (?)", bun.In(ids)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("%w: aisle query: %v", models.ErrCatalogUnavailable, err)
	}

	aisles := make(map[string]string, len(rows))
	for _, row := range rows {
		aisles[strconv.FormatInt(row.ProductID, 10)] = row.Aisle
	}
	return aisles, nil
}

func (s *CatalogStore) Close() error {
	return s.db.Close()
}
