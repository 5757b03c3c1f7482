package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRecordIndexed is emitted after a memory record has been
	// persisted and (if configured) embedded into the vector index.
	EventTypeRecordIndexed = "engram.record.indexed"
)

// RecordIndexedEvent is a transport-neutral event payload for an indexed
// memory record.
type RecordIndexedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Record        RecordMeta  `json:"record"`
}

// EventSource identifies the server instance the event originated from.
type EventSource struct {
	Instance string `json:"instance,omitempty"`
	Store    string `json:"store"`
}

// RecordMeta captures record-level metadata for the event.
type RecordMeta struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	ObservationCount int       `json:"observation_count"`
	Embedded         bool      `json:"embedded"`
	IndexedAt        time.Time `json:"indexed_at"`
}
