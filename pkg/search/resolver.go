package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shelfsight/shelfsight/pkg/models"
)

// Resolver assembles display records from decoded neighbors and the
// catalog warehouse.
type Resolver struct {
	catalog models.CatalogStore
}

func NewResolver(catalog models.CatalogStore) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve batches the URL resolution and the aisle lookup, then joins
// them back onto the decoded neighbors in rank order. The two lookups are
// independent and run concurrently.
//
// The URI to URL join is positional: the warehouse guarantees cardinality
// and order for a well-formed batch, so a short URL list means at least
// one image cannot be served and the whole resolve fails. The aisle join
// is keyed: a product id with no aisle row gets AisleUnknown and the
// resolve still succeeds.
func (r *Resolver) Resolve(
	ctx context.Context,
	decoded []models.DecodedNeighbor,
) ([]models.ProductDisplayRecord, error) {
	if len(decoded) == 0 {
		return []models.ProductDisplayRecord{}, nil
	}

	uris := make([]string, len(decoded))
	productIDs := make([]string, len(decoded))
	for i, neighbor := range decoded {
		uris[i] = neighbor.StorageURI
		productIDs[i] = neighbor.ProductID
	}

	var (
		urls   []string
		aisles map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		urls, err = r.catalog.ResolveImageURLs(gctx, uris)
		return err
	})
	g.Go(func() error {
		var err error
		aisles, err = r.catalog.LookupAisles(gctx, productIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(urls) != len(decoded) {
		return nil, &models.UnresolvableImageError{
			Requested: len(decoded),
			Resolved:  len(urls),
		}
	}

	records := make([]models.ProductDisplayRecord, len(decoded))
	for i, neighbor := range decoded {
		aisle, ok := aisles[neighbor.ProductID]
		if !ok || aisle == "" {
			aisle = models.AisleUnknown
		}
		records[i] = models.ProductDisplayRecord{
			ProductID: neighbor.ProductID,
			ImageURL:  urls[i],
			Aisle:     aisle,
		}
	}

	return records, nil
}
