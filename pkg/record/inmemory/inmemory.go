// Package inmemory provides an in-memory record store, used in tests and for
// running engram without a database.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engramhq/engram/pkg/record"
)

// Store implements record.Store using mutex-guarded maps.
type Store struct {
	mu sync.RWMutex

	// records maps record id to the stored record
	records map[string]*record.Record

	// relations holds every directed edge in insertion order
	relations []record.Relation
}

// NewStore creates a new in-memory record store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*record.Record),
	}
}

// Create persists a new record, minting an id and timestamps as needed.
func (s *Store) Create(_ context.Context, rec *record.Record) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	for i := range rec.Observations {
		if rec.Observations[i].CreatedAt.IsZero() {
			rec.Observations[i].CreatedAt = now
		}
	}

	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("record already exists: %s", rec.ID)
	}

	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Get retrieves a record by id.
func (s *Store) Get(_ context.Context, id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, record.NotFoundError{ID: id}
	}
	return cloneRecord(rec), nil
}

// AddObservations appends observations to an existing record.
func (s *Store) AddObservations(_ context.Context, id string, observations []record.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return record.NotFoundError{ID: id}
	}

	now := time.Now().UTC()
	for _, obs := range observations {
		if obs.CreatedAt.IsZero() {
			obs.CreatedAt = now
		}
		rec.Observations = append(rec.Observations, obs)
	}
	rec.UpdatedAt = now
	return nil
}

// Relate creates a directed labeled edge between two existing records.
func (s *Store) Relate(_ context.Context, rel record.Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rel.FromID]; !ok {
		return record.NotFoundError{ID: rel.FromID}
	}
	if _, ok := s.records[rel.ToID]; !ok {
		return record.NotFoundError{ID: rel.ToID}
	}

	for _, existing := range s.relations {
		if existing == rel {
			return nil
		}
	}
	s.relations = append(s.relations, rel)
	return nil
}

// Delete removes a record and every edge touching it.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return record.NotFoundError{ID: id}
	}
	delete(s.records, id)

	kept := s.relations[:0]
	for _, rel := range s.relations {
		if rel.FromID != id && rel.ToID != id {
			kept = append(kept, rel)
		}
	}
	s.relations = kept
	return nil
}

// MatchExact finds records containing the query text in their name, metadata
// values, or observation content.
func (s *Store) MatchExact(_ context.Context, query string, limit int, types []string) ([]record.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	typeSet := toSet(types)

	var matches []record.Match
	for id, rec := range s.records {
		if len(typeSet) > 0 {
			if _, ok := typeSet[rec.Type]; !ok {
				continue
			}
		}

		var fields []record.MatchField
		if strings.Contains(strings.ToLower(rec.Name), needle) {
			fields = append(fields, record.FieldName)
		}
		if metadataContains(rec.Metadata, needle) {
			fields = append(fields, record.FieldMetadata)
		}
		for _, obs := range rec.Observations {
			if strings.Contains(strings.ToLower(obs.Content), needle) {
				fields = append(fields, record.FieldContent)
				break
			}
		}

		if len(fields) > 0 {
			matches = append(matches, record.Match{ID: id, Fields: fields})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// List enumerates records ordered by name ascending.
func (s *Store) List(_ context.Context, limit int, types []string, opts record.FetchOptions) ([]*record.Enriched, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typeSet := toSet(types)

	var recs []*record.Record
	for _, rec := range s.records {
		if len(typeSet) > 0 {
			if _, ok := typeSet[rec.Type]; !ok {
				continue
			}
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Name != recs[j].Name {
			return recs[i].Name < recs[j].Name
		}
		return recs[i].ID < recs[j].ID
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	enriched := make([]*record.Enriched, 0, len(recs))
	for _, rec := range recs {
		enriched = append(enriched, s.enrich(rec, opts))
	}
	return enriched, nil
}

// FetchByIDs batch-fetches full records keyed by id. Missing ids are absent
// from the result.
func (s *Store) FetchByIDs(_ context.Context, ids []string, opts record.FetchOptions) (map[string]*record.Enriched, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*record.Enriched, len(ids))
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		result[id] = s.enrich(rec, opts)
	}
	return result, nil
}

// Close releases store resources.
func (s *Store) Close() error {
	return nil
}

// enrich attaches bounded graph context. Callers must hold at least a read lock.
func (s *Store) enrich(rec *record.Record, opts record.FetchOptions) *record.Enriched {
	enriched := &record.Enriched{Record: *cloneRecord(rec)}
	if !opts.IncludeRelated {
		return enriched
	}

	enriched.Ancestors = s.traverse(rec.ID, opts, true)
	enriched.Descendants = s.traverse(rec.ID, opts, false)
	return enriched
}

// traverse walks relations breadth-first up to opts.MaxHops from start,
// following incoming edges for ancestors and outgoing edges for descendants.
func (s *Store) traverse(start string, opts record.FetchOptions, ancestors bool) []record.Related {
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = 1
	}
	maxPer := opts.PerDirection
	if maxPer <= 0 {
		maxPer = 3
	}

	type frontierEntry struct {
		id    string
		label string
	}

	visited := map[string]bool{start: true}
	frontier := []frontierEntry{{id: start}}
	var out []record.Related

	for hop := 1; hop <= maxHops && len(out) < maxPer; hop++ {
		var next []frontierEntry
		for _, entry := range frontier {
			for _, rel := range s.relations {
				var neighbor string
				switch {
				case ancestors && rel.ToID == entry.id:
					neighbor = rel.FromID
				case !ancestors && rel.FromID == entry.id:
					neighbor = rel.ToID
				default:
					continue
				}

				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true

				rec, ok := s.records[neighbor]
				if !ok {
					continue
				}

				next = append(next, frontierEntry{id: neighbor, label: rel.Label})
				out = append(out, record.Related{
					ID:            rec.ID,
					Name:          rec.Name,
					Type:          rec.Type,
					RelationLabel: rel.Label,
					HopDistance:   hop,
				})
				if len(out) >= maxPer {
					return out
				}
			}
		}
		frontier = next
	}

	return out
}

func metadataContains(metadata map[string]any, needle string) bool {
	for _, v := range metadata {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func cloneRecord(rec *record.Record) *record.Record {
	clone := *rec
	if rec.Metadata != nil {
		clone.Metadata = make(map[string]any, len(rec.Metadata))
		for k, v := range rec.Metadata {
			clone.Metadata[k] = v
		}
	}
	clone.Observations = append([]record.Observation(nil), rec.Observations...)
	clone.Tags = append([]string(nil), rec.Tags...)
	return &clone
}
