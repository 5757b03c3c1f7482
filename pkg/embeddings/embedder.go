// Package embeddings defines the text embedding boundary used by the search
// and ingest pipelines.
package embeddings

import "context"

// Embedder converts record text into vector embeddings. Implementations must
// be safe for concurrent use; the ingest pool calls Embed from multiple
// workers.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
