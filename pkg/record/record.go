// Package record defines the memory record model for the engram knowledge
// graph and the Store interface through which records are persisted and read.
//
// A Record is a typed memory: a named entity with free-text observations,
// arbitrary metadata, tags, and directed labeled relations to other records.
// The search engine only ever reads records through a Store; creating,
// updating, and deleting them is the concern of the API and MCP surfaces.
package record

import (
	"context"
	"time"
)

// Record is a persisted memory in the knowledge graph.
type Record struct {
	// ID is the unique record identifier (a UUID minted at creation).
	ID string `json:"id"`

	// Name is the display name of the memory.
	Name string `json:"name"`

	// Type classifies the memory (e.g. "person", "project", "concept").
	Type string `json:"type"`

	// Metadata holds arbitrary caller-provided key/value pairs.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Observations are the free-text facts recorded against this memory,
	// in insertion order.
	Observations []Observation `json:"observations,omitempty"`

	// Tags are caller-provided labels.
	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Observation is one free-text fact attached to a record.
type Observation struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Relation is a directed, labeled edge between two records.
type Relation struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Label  string `json:"label"`
}

// Related is a bounded graph-context entry: a record reachable from another
// record within a small number of relation hops.
type Related struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	RelationLabel string `json:"relation_label"`
	HopDistance   int    `json:"hop_distance"`
}

// MatchField identifies which indexed field an exact-match query hit.
type MatchField string

const (
	FieldName     MatchField = "name"
	FieldMetadata MatchField = "metadata"
	FieldContent  MatchField = "content"
)

// Match is one exact-match hit: a record id plus the fields the query text
// was found in.
type Match struct {
	ID     string
	Fields []MatchField
}

// FetchOptions bounds the graph context attached to enriched fetches.
type FetchOptions struct {
	// IncludeRelated attaches ancestor/descendant context when true.
	IncludeRelated bool

	// MaxHops is the maximum relation-hop distance to traverse.
	MaxHops int

	// PerDirection caps how many ancestors and how many descendants are
	// returned per record.
	PerDirection int
}

// Enriched is a record plus its bounded graph context. Ancestors are records
// with an edge pointing at this record; descendants are records this record
// points at.
type Enriched struct {
	Record
	Ancestors   []Related `json:"ancestors,omitempty"`
	Descendants []Related `json:"descendants,omitempty"`
}

// Store persists and reads records. Read methods are idempotent and
// side-effect-free; the connection lifecycle is owned by the caller.
type Store interface {
	// MatchExact finds records whose name, metadata values, or observation
	// content contain the query text literally (case-insensitive). Each
	// match reports which fields hit. Results are capped at limit and
	// ordered by id ascending for determinism.
	MatchExact(ctx context.Context, query string, limit int, types []string) ([]Match, error)

	// List enumerates records ordered by name ascending, capped at limit,
	// optionally filtered to the given types.
	List(ctx context.Context, limit int, types []string, opts FetchOptions) ([]*Enriched, error)

	// FetchByIDs batch-fetches full records (observations, tags, and graph
	// context per opts) keyed by id. IDs that no longer exist are simply
	// absent from the returned map.
	FetchByIDs(ctx context.Context, ids []string, opts FetchOptions) (map[string]*Enriched, error)

	// Get retrieves a single record by id.
	Get(ctx context.Context, id string) (*Record, error)

	// Create persists a new record. A missing ID is minted; zero timestamps
	// are set to now.
	Create(ctx context.Context, rec *Record) error

	// AddObservations appends observations to an existing record.
	AddObservations(ctx context.Context, id string, observations []Observation) error

	// Relate creates a directed labeled edge. Both endpoints must exist.
	Relate(ctx context.Context, rel Relation) error

	// Delete removes a record along with its observations, tags, and edges.
	Delete(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}
