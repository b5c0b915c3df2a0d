package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ErrInvalidInput is returned when a caller supplies neither a text query
// nor image bytes, or an otherwise unusable request. It is the only member
// of the error taxonomy that maps to a 400 at the API boundary.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmbeddingUnavailable is returned when the embedding service responds
// but yields no vector for the given inputs.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// ErrIndexSearchFailed is returned when the vector index call errors or
// times out. Index searches are never retried.
var ErrIndexSearchFailed = errors.New("index search failed")

// ErrCatalogUnavailable is returned when the catalog warehouse call errors.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// ErrDescribeFailed is returned when the image describer call errors.
var ErrDescribeFailed = errors.New("describe failed")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// MalformedNeighborError is raised when the product id or the storage URI
// cannot be extracted from a raw neighbor record. The whole decode
// fails: silently skipping a record would desynchronize the rank-ordered
// lists that downstream callers zip together by position.
type MalformedNeighborError struct {
	Index    int
	RawValue string
}

func (e *MalformedNeighborError) Error() string {
	return fmt.Sprintf("malformed neighbor record at index %d: %q", e.Index, e.RawValue)
}

// DuplicateProductIDError is raised when two records in one index response
// decode to the same product id. Duplicates indicate an index consistency
// problem worth surfacing rather than masking.
type DuplicateProductIDError struct {
	ProductID string
}

func (e *DuplicateProductIDError) Error() string {
	return fmt.Sprintf("duplicate product id %q in index response", e.ProductID)
}

// UnresolvableImageError is raised when the warehouse resolves fewer image
// URLs than URIs requested. A result with no viewable image has no product
// value, so this is fatal rather than producing a shorter, misaligned list.
type UnresolvableImageError struct {
	Requested int
	Resolved  int
}

func (e *UnresolvableImageError) Error() string {
	return fmt.Sprintf(
		"unresolvable image: requested %d urls, warehouse returned %d",
		e.Requested,
		e.Resolved,
	)
}

// UnparsableAttributesError is raised when no structured payload can be
// extracted from the describer's response after fence-stripping and
// brace-span fallback.
type UnparsableAttributesError struct {
	Raw string
}

func (e *UnparsableAttributesError) Error() string {
	return fmt.Sprintf("unparsable describer attributes: %q", e.Raw)
}

func (e *UnparsableAttributesError) Unwrap() error {
	return ErrDescribeFailed
}
