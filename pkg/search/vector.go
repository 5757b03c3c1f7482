package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/embeddings"
	"github.com/engramhq/engram/pkg/vector"
)

// CapabilityState tracks whether the vector backend has been probed and what
// the probe found.
type CapabilityState int

const (
	// CapabilityUnknown means the backend has not been probed yet.
	CapabilityUnknown CapabilityState = iota
	// CapabilityAvailable means the probe succeeded.
	CapabilityAvailable
	// CapabilityUnavailable means the probe failed. The channel stays off
	// for the lifetime of this instance.
	CapabilityUnavailable
)

// VectorChannel runs similarity search through an embedder and a vector
// driver. The backend is probed at most once per channel instance; the
// outcome is cached so repeated searches do not hammer a dead backend.
type VectorChannel struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *zap.Logger

	mu    sync.Mutex
	state CapabilityState
}

// NewVectorChannel returns a VectorChannel in the unknown capability state.
func NewVectorChannel(embedder embeddings.Embedder, driver vector.Driver, logger *zap.Logger) *VectorChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorChannel{
		embedder: embedder,
		driver:   driver,
		logger:   logger,
		state:    CapabilityUnknown,
	}
}

// State reports the cached capability state.
func (c *VectorChannel) State() CapabilityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Search embeds the query and runs a similarity lookup.
//
// The embedding step runs before the capability check so that a missing
// embedder degrades the search to exact-only without marking the backend
// unavailable: embedding failures return no candidates and no error. A
// failed capability probe, by contrast, returns a capability error with
// remediation and is cached.
func (c *VectorChannel) Search(ctx context.Context, query string, topK int, threshold float64, types []string) ([]Candidate, error) {
	if c.embedder == nil || c.driver == nil {
		return nil, nil
	}

	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newEmbeddingError("embedding aborted", err)
		}
		c.logger.Warn("embedding failed, degrading to exact-only search", zap.Error(err))
		return nil, nil
	}

	if err := c.ensureAvailable(ctx); err != nil {
		return nil, err
	}

	results, err := c.driver.Query(ctx, embedding, topK, float32(threshold), types)
	if err != nil {
		return nil, newStoreError("vector query failed", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, Candidate{
			ID:     res.ID,
			Origin: ChannelVector,
			Score:  float64(res.Score),
		})
	}
	return candidates, nil
}

// ensureAvailable runs the one-shot capability probe under the lock. Only
// the first caller in the unknown state pays for the probe; everyone after
// that gets the cached verdict.
func (c *VectorChannel) ensureAvailable(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CapabilityAvailable:
		return nil
	case CapabilityUnavailable:
		return newCapabilityError(
			"vector search backend is unavailable",
			"check that the vector store is running and reachable, then restart the server",
			nil,
		)
	}

	if err := c.driver.Probe(ctx); err != nil {
		c.state = CapabilityUnavailable
		c.logger.Warn("vector backend probe failed", zap.Error(err))
		return newCapabilityError(
			"vector search backend is unavailable",
			"check that the vector store is running and reachable, then restart the server",
			err,
		)
	}

	c.state = CapabilityAvailable
	return nil
}
