package search

import (
	"context"

	"github.com/engramhq/engram/pkg/record"
)

// exactMatchScore is the base score assigned to any exact hit. A hit that is
// also found by the vector channel gets boosted on top of this during fusion.
const exactMatchScore = 0.90

// ExactChannel finds literal substring matches on record names, metadata and
// observation content.
type ExactChannel struct {
	store record.Store
}

// NewExactChannel returns an ExactChannel backed by the given store.
func NewExactChannel(store record.Store) *ExactChannel {
	return &ExactChannel{store: store}
}

// Search runs the exact-match lookup and converts hits to candidates. Store
// failures surface as store errors; they are not swallowed.
func (c *ExactChannel) Search(ctx context.Context, query string, limit int, types []string) ([]Candidate, error) {
	matches, err := c.store.MatchExact(ctx, query, limit, types)
	if err != nil {
		return nil, newStoreError("exact match lookup failed", err)
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, Candidate{
			ID:     match.ID,
			Origin: ChannelExact,
			Fields: match.Fields,
			Score:  exactMatchScore,
		})
	}
	return candidates, nil
}
