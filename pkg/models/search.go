package models

import "time"

// EmbeddingVector is a fixed-dimensionality multimodal embedding. Produced
// fresh per query and owned by the orchestrator for the duration of one
// search; never persisted.
type EmbeddingVector []float32

// SearchQuery is one product search request. At least one of Text and
// ImageData must be present.
type SearchQuery struct {
	Text          string
	ImageData     []byte
	NeighborCount int
}

// ProductDisplayRecord is the per-product answer assembled from the vector
// index hit and the warehouse lookups. Constructed once per search
// response and immutable afterwards.
type ProductDisplayRecord struct {
	ProductID string `json:"id"`
	ImageURL  string `json:"image_url"`
	Aisle     string `json:"aisle"`
}

// AisleUnknown marks a product with no shelf-location row in the
// warehouse. A missing aisle is an expected data-completeness gap, not a
// failure.
const AisleUnknown = "unknown"

// SearchResult is the final answer list in neighbor rank order, with the
// elapsed wall time across all external calls. Elapsed is a transparency
// signal for the caller, not a control input.
type SearchResult struct {
	Results []ProductDisplayRecord
	Elapsed time.Duration
}
