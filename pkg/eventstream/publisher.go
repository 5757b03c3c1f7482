package eventstream

import "context"

// Publisher publishes indexing events to an event stream backend.
type Publisher interface {
	PublishIndexed(ctx context.Context, event *RecordIndexedEvent) error
	Close() error
}
