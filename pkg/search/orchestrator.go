// Package search runs the product search pipeline: embed the query,
// search the vector index, decode the raw neighbors, resolve them against
// the catalog warehouse.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/internal"
	"github.com/shelfsight/shelfsight/pkg/models"
	"github.com/shelfsight/shelfsight/pkg/neighbors"
)

var log = internal.GetLogger()

var _ models.ProductSearcher = &Orchestrator{}

// Orchestrator sequences the strictly sequential pipeline. Each external
// call gets its own timeout. Embedding and catalog calls are idempotent
// reads and are retried once on timeout; the vector index search is
// treated as potentially rate-limited and is never retried.
type Orchestrator struct {
	embedder models.EmbeddingClient
	index    models.VectorIndex
	decoder  *neighbors.Decoder
	resolver *Resolver

	callTimeout      time.Duration
	maxNeighborCount int

	// retry once, only on a timed-out call
	timeoutRetry retrypolicy.RetryPolicy[any]
}

func NewOrchestrator(
	cfg *config.Config,
	embedder models.EmbeddingClient,
	index models.VectorIndex,
	catalog models.CatalogStore,
) *Orchestrator {
	return &Orchestrator{
		embedder:         embedder,
		index:            index,
		decoder:          neighbors.NewDecoder(cfg.FeatureStore),
		resolver:         NewResolver(catalog),
		callTimeout:      time.Duration(cfg.Search.CallTimeoutSeconds) * time.Second,
		maxNeighborCount: cfg.Search.MaxNeighborCount,
		timeoutRetry: retrypolicy.Builder[any]().
			HandleErrors(context.DeadlineExceeded).
			WithMaxRetries(1).
			Build(),
	}
}

// Search runs embed, index search, decode, resolve and reports elapsed
// wall time across all three external round trips. Every stage failure is
// wrapped with the stage name; no stage is silently skipped and no stage
// substitutes default data for a hard failure.
func (o *Orchestrator) Search(
	ctx context.Context,
	query models.SearchQuery,
) (*models.SearchResult, error) {
	if len(query.ImageData) == 0 && query.Text == "" {
		return nil, fmt.Errorf(
			"search requires a text query, image data, or both: %w",
			models.ErrInvalidInput,
		)
	}
	if query.NeighborCount <= 0 {
		return nil, fmt.Errorf(
			"neighbor count must be positive, got %d: %w",
			query.NeighborCount,
			models.ErrInvalidInput,
		)
	}
	if o.maxNeighborCount > 0 && query.NeighborCount > o.maxNeighborCount {
		return nil, fmt.Errorf(
			"neighbor count %d exceeds maximum %d: %w",
			query.NeighborCount,
			o.maxNeighborCount,
			models.ErrInvalidInput,
		)
	}

	start := time.Now()

	embedding, err := o.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed stage: %w", err)
	}

	raw, err := o.searchIndex(ctx, embedding, query.NeighborCount)
	if err != nil {
		return nil, fmt.Errorf("index search stage: %w", err)
	}

	decoded, err := o.decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode stage: %w", err)
	}

	records, err := o.resolve(ctx, decoded)
	if err != nil {
		return nil, fmt.Errorf("resolve stage: %w", err)
	}

	elapsed := time.Since(start)
	log.Debugf("search returned %d results in %s", len(records), elapsed)

	return &models.SearchResult{
		Results: records,
		Elapsed: elapsed,
	}, nil
}

func (o *Orchestrator) embed(
	ctx context.Context,
	query models.SearchQuery,
) (models.EmbeddingVector, error) {
	embeddingVal, err := failsafe.Get(func() (any, error) {
		callCtx, cancel := o.callContext(ctx)
		defer cancel()
		return o.embedder.EmbedMultimodal(callCtx, query.ImageData, query.Text)
	}, o.timeoutRetry)
	if err != nil {
		return nil, err
	}
	return embeddingVal.(models.EmbeddingVector), nil
}

func (o *Orchestrator) searchIndex(
	ctx context.Context,
	embedding models.EmbeddingVector,
	neighborCount int,
) ([]models.NeighborRecord, error) {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	raw, err := o.index.SearchNearest(callCtx, embedding, neighborCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndexSearchFailed, err)
	}
	return raw, nil
}

func (o *Orchestrator) resolve(
	ctx context.Context,
	decoded []models.DecodedNeighbor,
) ([]models.ProductDisplayRecord, error) {
	recordsVal, err := failsafe.Get(func() (any, error) {
		callCtx, cancel := o.callContext(ctx)
		defer cancel()
		return o.resolver.Resolve(callCtx, decoded)
	}, o.timeoutRetry)
	if err != nil {
		return nil, err
	}
	return recordsVal.([]models.ProductDisplayRecord), nil
}

// callContext bounds one external call. The parent ctx still wins: a
// disconnected caller cancels in-flight calls rather than letting them
// run to completion for a result nobody will read.
func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.callTimeout)
}
