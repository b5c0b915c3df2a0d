package models

import "context"

// ImageDescriber extracts apparel attributes from a photo using a
// vision-language model.
type ImageDescriber interface {
	Describe(ctx context.Context, imageData []byte) (*ApparelAttributes, error)
}
