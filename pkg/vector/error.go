package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrDimensions is returned when an embedding does not match the store's
	// configured dimensionality.
	ErrDimensions = errors.New("embedding dimensions mismatch")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
