package models

import "context"

// EmbeddingClient generates a single multimodal embedding from image
// bytes, text, or both. Implementations must be safe for concurrent use
// and must not mutate shared state per call.
type EmbeddingClient interface {
	// EmbedMultimodal returns one vector for the given inputs. At least one
	// of imageData/text must be non-empty or ErrInvalidInput is returned.
	// When both inputs are supplied and the service returns both vectors,
	// the image-derived vector takes precedence.
	EmbedMultimodal(ctx context.Context, imageData []byte, text string) (EmbeddingVector, error)
}
