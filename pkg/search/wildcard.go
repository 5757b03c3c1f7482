package search

import (
	"context"

	"github.com/engramhq/engram/pkg/record"
)

// WildcardChannel answers enumeration queries: list everything, optionally
// filtered by type, with a shallow graph neighborhood attached.
type WildcardChannel struct {
	store record.Store
}

// NewWildcardChannel returns a WildcardChannel backed by the given store.
func NewWildcardChannel(store record.Store) *WildcardChannel {
	return &WildcardChannel{store: store}
}

// List returns up to limit enriched records. Every entry is a full match:
// score 1.0, exact match type.
func (c *WildcardChannel) List(ctx context.Context, limit int, types []string, includeGraph bool) ([]Result, error) {
	opts := record.FetchOptions{}
	if includeGraph {
		opts = record.FetchOptions{IncludeRelated: true, MaxHops: 2, PerDirection: 3}
	}

	enriched, err := c.store.List(ctx, limit, types, opts)
	if err != nil {
		return nil, newStoreError("wildcard listing failed", err)
	}

	results := make([]Result, 0, len(enriched))
	for _, ent := range enriched {
		results = append(results, resultFromEnriched(ent, 1.0, MatchExact, nil))
	}
	return results, nil
}

// resultFromEnriched converts a store record into a search result, attaching
// graph context only when the record carries any.
func resultFromEnriched(ent *record.Enriched, score float64, matchType MatchType, fields []record.MatchField) Result {
	res := Result{
		ID:            ent.ID,
		Name:          ent.Name,
		Type:          ent.Type,
		Metadata:      ent.Metadata,
		Observations:  ent.Observations,
		Tags:          ent.Tags,
		Score:         score,
		MatchType:     matchType,
		MatchedFields: fields,
	}
	if len(ent.Ancestors) > 0 || len(ent.Descendants) > 0 {
		res.Related = &RelatedContext{
			Ancestors:   ent.Ancestors,
			Descendants: ent.Descendants,
		}
	}
	return res
}
