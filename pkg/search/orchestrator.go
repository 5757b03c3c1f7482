package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/record"
)

const (
	// vectorBoostWeight scales the vector score's contribution when a hit
	// was found by both channels.
	vectorBoostWeight = 0.10

	// channelOverfetch widens per-channel limits so fusion and threshold
	// filtering still leave enough results to fill the final page.
	channelOverfetch = 2
)

// Options control one search request.
type Options struct {
	Limit               int
	Types               []string
	Threshold           float64
	IncludeGraphContext bool
}

// DefaultOptions returns the options used when the caller specifies nothing.
func DefaultOptions() Options {
	return Options{
		Limit:               10,
		Threshold:           0.1,
		IncludeGraphContext: true,
	}
}

// Orchestrator classifies queries, fans out to the matching channels, fuses
// their candidates and enriches the survivors in a single batch fetch.
type Orchestrator struct {
	store    record.Store
	exact    *ExactChannel
	vector   *VectorChannel
	wildcard *WildcardChannel
	logger   *zap.Logger
}

// NewOrchestrator wires the channels over a store. vectorChannel may be nil,
// in which case every search degrades to exact-only.
func NewOrchestrator(store record.Store, vectorChannel *VectorChannel, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:    store,
		exact:    NewExactChannel(store),
		vector:   vectorChannel,
		wildcard: NewWildcardChannel(store),
		logger:   logger,
	}
}

// Search runs one query end to end. Validation happens before any I/O. The
// query must not be empty; use "*" (or whitespace) to enumerate everything.
func (o *Orchestrator) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	if query == "" {
		return nil, newValidationError("query must not be empty")
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	intent := Classify(query)
	o.logger.Debug("classified query",
		zap.String("intent", string(intent.Type)),
		zap.Float64("confidence", intent.Confidence),
	)

	if intent.Type == IntentWildcard {
		results, err := o.wildcard.List(ctx, opts.Limit, opts.Types, opts.IncludeGraphContext)
		if err != nil {
			return nil, err
		}
		return &Response{
			Query:      query,
			Intent:     intent.Type,
			Results:    results,
			TotalFound: len(results),
		}, nil
	}

	exactCands, vectorCands, err := o.gather(ctx, intent, opts)
	if err != nil {
		return nil, err
	}

	fused := fuse(exactCands, vectorCands)
	fused = filterByThreshold(fused, opts.Threshold)
	sortFused(fused)
	if len(fused) > opts.Limit {
		fused = fused[:opts.Limit]
	}

	results, err := o.enrich(ctx, fused, opts.IncludeGraphContext)
	if err != nil {
		return nil, err
	}

	return &Response{
		Query:      query,
		Intent:     intent.Type,
		Results:    results,
		TotalFound: len(results),
	}, nil
}

// gather runs the exact and vector channels, concurrently when both apply.
// Identifier-shaped queries skip the vector channel entirely.
func (o *Orchestrator) gather(ctx context.Context, intent Intent, opts Options) ([]Candidate, []Candidate, error) {
	channelLimit := opts.Limit * channelOverfetch

	runVector := intent.Type == IntentSemanticSearch && o.vector != nil
	if !runVector {
		exactCands, err := o.exact.Search(ctx, intent.NormalizedQuery, channelLimit, opts.Types)
		if err != nil {
			return nil, nil, err
		}
		return exactCands, nil, nil
	}

	type outcome struct {
		candidates []Candidate
		err        error
	}

	exactCh := make(chan outcome, 1)
	vectorCh := make(chan outcome, 1)

	go func() {
		cands, err := o.exact.Search(ctx, intent.NormalizedQuery, channelLimit, opts.Types)
		exactCh <- outcome{candidates: cands, err: err}
	}()
	go func() {
		cands, err := o.vector.Search(ctx, intent.NormalizedQuery, channelLimit, opts.Threshold, opts.Types)
		vectorCh <- outcome{candidates: cands, err: err}
	}()

	exactOut := <-exactCh
	vectorOut := <-vectorCh

	if exactOut.err != nil {
		return nil, nil, exactOut.err
	}
	if vectorOut.err != nil {
		// Any vector-side failure, capability or transient, only disables
		// the vector half; exact hits still serve.
		o.logger.Warn("vector channel failed, serving exact results only",
			zap.Error(vectorOut.err),
		)
		return exactOut.candidates, nil, nil
	}

	return exactOut.candidates, vectorOut.candidates, nil
}

// fused is one post-fusion entry keyed by record id.
type fusedCandidate struct {
	ID        string
	Score     float64
	MatchType MatchType
	Fields    []record.MatchField
}

// fuse merges candidates by id. Exact-only hits keep the exact base score,
// vector-only hits keep their similarity score, and hits found by both get
// the base score plus a capped vector boost.
func fuse(exactCands, vectorCands []Candidate) []fusedCandidate {
	byID := make(map[string]*fusedCandidate)
	order := make([]string, 0, len(exactCands)+len(vectorCands))

	for _, cand := range exactCands {
		byID[cand.ID] = &fusedCandidate{
			ID:        cand.ID,
			Score:     cand.Score,
			MatchType: MatchExact,
			Fields:    cand.Fields,
		}
		order = append(order, cand.ID)
	}

	for _, cand := range vectorCands {
		if existing, ok := byID[cand.ID]; ok {
			boosted := exactMatchScore + vectorBoostWeight*cand.Score
			if boosted > 1.0 {
				boosted = 1.0
			}
			existing.Score = boosted
			continue
		}
		byID[cand.ID] = &fusedCandidate{
			ID:        cand.ID,
			Score:     cand.Score,
			MatchType: MatchSemantic,
		}
		order = append(order, cand.ID)
	}

	fused := make([]fusedCandidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, *byID[id])
	}
	return fused
}

func filterByThreshold(cands []fusedCandidate, threshold float64) []fusedCandidate {
	filtered := cands[:0]
	for _, cand := range cands {
		if cand.Score >= threshold {
			filtered = append(filtered, cand)
		}
	}
	return filtered
}

// sortFused orders by score descending, then exact before semantic, then id
// ascending so equal-score pages are stable.
func sortFused(cands []fusedCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if cands[i].MatchType != cands[j].MatchType {
			return cands[i].MatchType == MatchExact
		}
		return cands[i].ID < cands[j].ID
	})
}

// enrich fetches every surviving candidate in one batch and assembles the
// final results. Candidates whose records are gone (deleted between channel
// query and fetch, or dangling vector index entries) become placeholders
// rather than silently disappearing.
func (o *Orchestrator) enrich(ctx context.Context, cands []fusedCandidate, includeGraph bool) ([]Result, error) {
	if len(cands) == 0 {
		return []Result{}, nil
	}

	ids := make([]string, 0, len(cands))
	for _, cand := range cands {
		ids = append(ids, cand.ID)
	}

	opts := record.FetchOptions{}
	if includeGraph {
		opts = record.FetchOptions{IncludeRelated: true, MaxHops: 2, PerDirection: 3}
	}

	fetched, err := o.store.FetchByIDs(ctx, ids, opts)
	if err != nil {
		return nil, newStoreError("batch enrichment failed", err)
	}

	results := make([]Result, 0, len(cands))
	for _, cand := range cands {
		ent, ok := fetched[cand.ID]
		if !ok || ent == nil {
			results = append(results, placeholderResult(cand))
			continue
		}
		results = append(results, resultFromEnriched(ent, cand.Score, cand.MatchType, cand.Fields))
	}
	return results, nil
}

func placeholderResult(cand fusedCandidate) Result {
	return Result{
		ID:            cand.ID,
		Name:          fmt.Sprintf("Unknown Memory %s", cand.ID),
		Score:         cand.Score,
		MatchType:     cand.MatchType,
		MatchedFields: cand.Fields,
		Placeholder:   true,
	}
}

func validateOptions(opts Options) error {
	if opts.Limit <= 0 {
		return newValidationError("limit must be positive")
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return newValidationError("threshold must be between 0 and 1")
	}
	return nil
}
