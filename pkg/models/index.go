package models

import "context"

// VectorIndex searches the managed feature online store for nearest
// neighbors of a query vector. The returned records are opaque and
// rank-ordered, closest first. The index may legitimately return fewer
// records than requested; callers must decode only what was returned.
type VectorIndex interface {
	SearchNearest(
		ctx context.Context,
		embedding EmbeddingVector,
		neighborCount int,
	) ([]NeighborRecord, error)
}
