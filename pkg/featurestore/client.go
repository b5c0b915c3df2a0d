// Package featurestore queries the managed feature online store that
// serves the product vector index.
package featurestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/internal"
	"github.com/shelfsight/shelfsight/pkg/gcpclient"
	"github.com/shelfsight/shelfsight/pkg/models"
)

var log = internal.GetLogger()

var _ models.VectorIndex = &Client{}

// Client queries one feature view for nearest neighbors. The serving
// endpoint for the named online store is resolved once at construction,
// not per query. The client is read-only after construction and safe to
// share across concurrent searches.
//
// Searches go through a non-retrying transport: the index is
// rate-limited, and a replayed search can only make that worse. The
// retrying client is used for the idempotent admin lookup only.
type Client struct {
	searchClient    *gcpclient.Client
	featureView     string
	servingEndpoint string
}

// NewClient resolves the online store's dedicated serving endpoint via the
// admin surface and binds the client to the configured feature view.
func NewClient(ctx context.Context, cfg *config.Config, gcp *gcpclient.Client) (*Client, error) {
	storeName := fmt.Sprintf(
		"projects/%s/locations/%s/featureOnlineStores/%s",
		cfg.GCP.ProjectID, cfg.GCP.Location, cfg.FeatureStore.StoreID,
	)

	c := &Client{
		searchClient: gcp.WithoutRetries(),
		featureView:  fmt.Sprintf("%s/featureViews/%s", storeName, cfg.FeatureStore.ViewID),
	}

	if cfg.FeatureStore.Endpoint != "" {
		c.servingEndpoint = cfg.FeatureStore.Endpoint
		return c, nil
	}

	adminEndpoint := fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.GCP.Location)
	endpoint, err := resolveServingEndpoint(ctx, gcp, adminEndpoint, storeName)
	if err != nil {
		return nil, err
	}
	c.servingEndpoint = endpoint

	log.Infof("feature store %s serving at %s", cfg.FeatureStore.StoreID, c.servingEndpoint)
	return c, nil
}

type onlineStore struct {
	DedicatedServingEndpoint struct {
		PublicEndpointDomainName string `json:"publicEndpointDomainName"`
	} `json:"dedicatedServingEndpoint"`
}

func resolveServingEndpoint(
	ctx context.Context,
	gcp *gcpclient.Client,
	adminEndpoint string,
	storeName string,
) (string, error) {
	var store onlineStore
	url := fmt.Sprintf("%s/v1beta1/%s", adminEndpoint, storeName)
	if err := gcp.GetJSON(ctx, url, &store); err != nil {
		return "", fmt.Errorf("failed to resolve feature store %s: %w", storeName, err)
	}
	domain := store.DedicatedServingEndpoint.PublicEndpointDomainName
	if domain == "" {
		return "", fmt.Errorf("feature store %s has no public serving endpoint", storeName)
	}
	return "https://" + domain, nil
}

type searchRequest struct {
	Query            searchQuery `json:"query"`
	ReturnFullEntity bool        `json:"returnFullEntity"`
}

type searchQuery struct {
	Embedding     queryEmbedding `json:"embedding"`
	NeighborCount int            `json:"neighborCount"`
}

type queryEmbedding struct {
	Value models.EmbeddingVector `json:"value"`
}

// rawFeature keeps the feature value as raw JSON text. The value format is
// the index's contract, not ours; decoding belongs to pkg/neighbors.
type rawFeature struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type searchResponse struct {
	NearestNeighbors struct {
		Neighbors []struct {
			EntityKeyValues struct {
				KeyValues struct {
					Features []rawFeature `json:"features"`
				} `json:"keyValues"`
			} `json:"entityKeyValues"`
		} `json:"neighbors"`
	} `json:"nearestNeighbors"`
}

// SearchNearest returns the raw neighbor records for the query embedding,
// rank-ordered and capped at neighborCount. The index may return fewer
// records than requested; the result is exactly what the index returned.
func (c *Client) SearchNearest(
	ctx context.Context,
	embedding models.EmbeddingVector,
	neighborCount int,
) ([]models.NeighborRecord, error) {
	url := fmt.Sprintf("%s/v1beta1/%s:searchNearestEntities", c.servingEndpoint, c.featureView)

	var resp searchResponse
	err := c.searchClient.PostJSON(ctx, url, searchRequest{
		Query: searchQuery{
			Embedding:     queryEmbedding{Value: embedding},
			NeighborCount: neighborCount,
		},
		ReturnFullEntity: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("nearest entities search failed: %w", err)
	}

	neighbors := resp.NearestNeighbors.Neighbors
	if len(neighbors) > neighborCount {
		neighbors = neighbors[:neighborCount]
	}

	records := make([]models.NeighborRecord, len(neighbors))
	for i, neighbor := range neighbors {
		features := neighbor.EntityKeyValues.KeyValues.Features
		slots := make([]models.FeatureSlot, len(features))
		for j, feature := range features {
			slots[j] = models.FeatureSlot{
				Name:  feature.Name,
				Value: string(feature.Value),
			}
		}
		records[i] = models.NeighborRecord{Features: slots}
	}

	return records, nil
}
