// Package vector provides interfaces and implementations for vector storage
// and similarity search.
package vector

import "context"

// Document represents a stored item with its embedding.
type Document struct {
	// ID is a unique identifier for the document (the record id).
	ID string

	// Type is the record type, used for filtered similarity queries.
	Type string

	// Embedding is the vector representation of the document content.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score is the cosine similarity in [0,1] (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Add stores documents with their embeddings. If a document with the
	// same ID already exists, implementers should update the document.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding,
	// keeping only those with similarity >= threshold, sorted descending.
	// An empty types slice means no type filter.
	Query(ctx context.Context, embedding []float32, topK int, threshold float32, types []string) ([]QueryResult, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Probe is a cheap, side-effect-free call whose failure means the
	// similarity capability is unavailable.
	Probe(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}
