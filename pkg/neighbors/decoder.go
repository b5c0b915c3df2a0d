// Package neighbors decodes the vector index's raw, positionally-addressed
// neighbor records into strongly-typed (product id, storage URI) pairs.
package neighbors

import (
	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/models"
)

// Decoder decodes raw neighbor records. The slot positions carrying the
// product id and the storage URI are a contract with the external index
// schema and are bound exactly once, from configuration. Decoding is a
// pure function of its input: the same raw list always yields the same
// decoded sequence.
type Decoder struct {
	productIDSlot int
	uriSlot       int
}

// NewDecoder binds a decoder to the feature slot layout in cfg.
func NewDecoder(cfg config.FeatureStoreConfig) *Decoder {
	return &Decoder{
		productIDSlot: cfg.ProductIDSlot,
		uriSlot:       cfg.URISlot,
	}
}

// Decode turns raw index records into decoded neighbors, preserving rank
// order. Only the records actually returned are decoded, which may be
// fewer than the caller requested from the index.
//
// A record whose configured slots do not yield both a product id and a
// storage URI fails the whole decode with MalformedNeighborError. Exact duplicate
// product ids within one response fail with DuplicateProductIDError.
func (d *Decoder) Decode(raw []models.NeighborRecord) ([]models.DecodedNeighbor, error) {
	decoded := make([]models.DecodedNeighbor, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, record := range raw {
		idRaw, _ := record.Slot(d.productIDSlot)
		uriRaw, _ := record.Slot(d.uriSlot)

		productID, ok := extractProductID(idRaw)
		if !ok {
			return nil, &models.MalformedNeighborError{Index: i, RawValue: idRaw}
		}

		storageURI, ok := extractStorageURI(uriRaw)
		if !ok {
			return nil, &models.MalformedNeighborError{Index: i, RawValue: uriRaw}
		}

		if _, dup := seen[productID]; dup {
			return nil, &models.DuplicateProductIDError{ProductID: productID}
		}
		seen[productID] = struct{}{}

		decoded = append(decoded, models.DecodedNeighbor{
			ProductID:  productID,
			StorageURI: storageURI,
		})
	}

	return decoded, nil
}
