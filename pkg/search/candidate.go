package search

import "github.com/engramhq/engram/pkg/record"

// ChannelKind identifies which search channel produced a candidate.
type ChannelKind string

const (
	ChannelExact    ChannelKind = "exact"
	ChannelVector   ChannelKind = "vector"
	ChannelWildcard ChannelKind = "wildcard"
)

// Candidate is an intermediate hit from a single channel, keyed by record
// id. Candidates for the same id from different channels are fused by the
// orchestrator before enrichment.
type Candidate struct {
	ID     string
	Origin ChannelKind
	Fields []record.MatchField
	Score  float64
}
