package models

import (
	"github.com/shelfsight/shelfsight/config"
)

// AppState is a struct that holds the state of the application.
// All clients are constructed once at startup and shared read-only across
// concurrent requests; nothing here is mutated per request.
// Use cmd.NewAppState to create a new instance
type AppState struct {
	EmbeddingClient EmbeddingClient
	VectorIndex     VectorIndex
	CatalogStore    CatalogStore
	Describer       ImageDescriber
	Searcher        ProductSearcher
	Config          *config.Config
}
