package search

import "github.com/engramhq/engram/pkg/record"

// MatchType says how a result was found.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchSemantic MatchType = "semantic"
)

// RelatedContext carries the graph neighborhood attached to a result when
// graph context is requested.
type RelatedContext struct {
	Ancestors   []record.Related `json:"ancestors,omitempty"`
	Descendants []record.Related `json:"descendants,omitempty"`
}

// Result is one fused, enriched search hit.
type Result struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Type          string               `json:"type"`
	Metadata      map[string]any       `json:"metadata,omitempty"`
	Observations  []record.Observation `json:"observations,omitempty"`
	Tags          []string             `json:"tags,omitempty"`
	Score         float64              `json:"score"`
	MatchType     MatchType            `json:"match_type"`
	MatchedFields []record.MatchField  `json:"matched_fields,omitempty"`
	Related       *RelatedContext      `json:"related,omitempty"`

	// Placeholder is set when the record behind a candidate id could not be
	// fetched during enrichment and a synthetic entry stands in for it.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Response is the full answer to one search request.
type Response struct {
	Query      string     `json:"query"`
	Intent     IntentType `json:"intent"`
	Results    []Result   `json:"results"`
	TotalFound int        `json:"total_found"`
}
