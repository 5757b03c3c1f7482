package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/engramhq/engram/pkg/eventstream"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "engram.records.indexed"

// Config holds the connection settings for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string
}

// Publisher publishes indexed-record events to a Kafka topic, keyed by
// record id so all events for one record land on the same partition.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	}

	return &Publisher{writer: writer}, nil
}

// PublishIndexed serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishIndexed(ctx context.Context, event *eventstream.RecordIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling indexed event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Record.ID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing indexed event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
