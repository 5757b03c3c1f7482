package testutils

import (
	"context"
	"sync"

	"github.com/engramhq/engram/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.RecordIndexedEvent

	// PublishErr causes PublishIndexed to return this error
	PublishErr error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishIndexed(_ context.Context, event *eventstream.RecordIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.PublishErr != nil {
		return m.PublishErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of all published events.
func (m *MockPublisher) Events() []*eventstream.RecordIndexedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*eventstream.RecordIndexedEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockPublisher) Close() error {
	return nil
}
