// Package embeddings wraps the multimodal embedding service. Image bytes,
// text, or both are normalized into one fixed-length vector.
package embeddings

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/internal"
	"github.com/shelfsight/shelfsight/pkg/gcpclient"
	"github.com/shelfsight/shelfsight/pkg/models"
)

var log = internal.GetLogger()

var _ models.EmbeddingClient = &VertexEmbeddingClient{}

// VertexEmbeddingClient calls the Vertex AI multimodal embedding model
// over REST. Construct once at startup and share across requests.
type VertexEmbeddingClient struct {
	client     *gcpclient.Client
	endpoint   string
	model      string
	projectID  string
	location   string
	dimensions int
}

// NewVertexEmbeddingClient creates a client on top of a shared
// authenticated GCP HTTP client.
func NewVertexEmbeddingClient(
	cfg *config.Config,
	client *gcpclient.Client,
) *VertexEmbeddingClient {
	endpoint := cfg.Embeddings.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.GCP.Location)
	}
	return &VertexEmbeddingClient{
		client:     client,
		endpoint:   endpoint,
		model:      cfg.Embeddings.Model,
		projectID:  cfg.GCP.ProjectID,
		location:   cfg.GCP.Location,
		dimensions: cfg.Embeddings.Dimensions,
	}
}

type predictInstance struct {
	Text  string        `json:"text,omitempty"`
	Image *imagePayload `json:"image,omitempty"`
}

type imagePayload struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictResponse struct {
	Predictions []struct {
		ImageEmbedding models.EmbeddingVector `json:"imageEmbedding"`
		TextEmbedding  models.EmbeddingVector `json:"textEmbedding"`
	} `json:"predictions"`
}

// EmbedMultimodal returns a single embedding for the given inputs. When
// both inputs are present and the model returns both vectors, the
// image-derived vector wins; the text vector is only used when no image
// was supplied. The encoded image payload is scoped to this call and not
// retained.
func (c *VertexEmbeddingClient) EmbedMultimodal(
	ctx context.Context,
	imageData []byte,
	text string,
) (models.EmbeddingVector, error) {
	if len(imageData) == 0 && text == "" {
		return nil, fmt.Errorf(
			"embed requires image bytes, text, or both: %w",
			models.ErrInvalidInput,
		)
	}

	instance := predictInstance{Text: text}
	if len(imageData) > 0 {
		instance.Image = &imagePayload{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(imageData),
		}
	}

	url := fmt.Sprintf(
		"%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.endpoint, c.projectID, c.location, c.model,
	)

	var resp predictResponse
	err := c.client.PostJSON(ctx, url, predictRequest{
		Instances: []predictInstance{instance},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("embedding predict call failed: %w", err)
	}

	if len(resp.Predictions) == 0 {
		return nil, models.ErrEmbeddingUnavailable
	}

	// Image-derived vector takes precedence; the text vector is the
	// fallback when the model produced no image embedding.
	prediction := resp.Predictions[0]
	embedding := prediction.ImageEmbedding
	if len(embedding) == 0 {
		embedding = prediction.TextEmbedding
	}

	if len(embedding) == 0 {
		return nil, models.ErrEmbeddingUnavailable
	}

	if c.dimensions > 0 && len(embedding) != c.dimensions {
		log.Warnf(
			"embedding dimensionality drift: got %d, configured %d",
			len(embedding),
			c.dimensions,
		)
	}

	return embedding, nil
}
