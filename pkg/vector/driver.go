// Package vector provides interfaces and implementations for storing and
// querying document embeddings produced by experiment runs.
package vector

import "context"

// Document represents a stored document embedding with its metadata.
type Document struct {
	// ID is a unique identifier for the document (typically its corpus path).
	ID string

	// RunID is the experiment run that produced this embedding.
	RunID string

	// Author is the document author label from the corpus.
	Author string

	// Embedding is the vector representation of the document.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of document embeddings.
type Driver interface {
	// Add stores documents with their embeddings.
	// If a document with the same ID already exists, implementers should update
	// the document.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
