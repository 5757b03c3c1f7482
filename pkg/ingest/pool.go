// Package ingest provides an asynchronous worker pool that indexes persisted
// memory records: generating embeddings, writing them to the vector store and
// publishing indexed events.
//
// The pool decouples embedding generation from the API hot path so record
// writes stay fast even when the embedding backend is slow.
package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/embeddings"
	"github.com/engramhq/engram/pkg/eventstream"
	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/vector"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of indexing work for the worker pool to execute against.
type Job struct {
	Record *record.Record
}

// Config is the configuration options for the worker pool.
type Config struct {
	// VectorDriver is the optional vector store driver for embeddings.
	VectorDriver vector.Driver

	// Embedder generates text embeddings.
	// A configured Embedder is required if VectorDriver is set.
	Embedder embeddings.Embedder

	// Publisher receives indexed events. Optional; nil disables publishing.
	Publisher eventstream.Publisher

	// Instance names this server in published events.
	Instance string

	// StoreName names the record store backend in published events.
	StoreName string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes indexing jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.VectorDriver != nil && c.Embedder == nil {
		return nil, fmt.Errorf("vector driver configured without an embedder")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Record == nil {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("indexing job queued",
			zap.String("record_id", job.Record.ID),
			zap.String("record_type", job.Record.Type),
		)
		return true
	default:
		p.logger.Error("indexing job not queued, queue full, job dropped",
			zap.String("record_id", job.Record.ID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("indexing worker stopped", zap.Uint("worker_id", id))
}

// processJob embeds the record if the vector store is configured, then
// publishes the indexed event. Indexing failures are logged, never retried:
// the record itself is already persisted and exact search still finds it.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	embedded := false
	if p.config.VectorDriver != nil && p.config.Embedder != nil {
		embedded = p.storeEmbedding(ctx, job.Record)
	}

	if p.config.Publisher != nil {
		p.publishIndexed(ctx, job.Record, embedded)
	}
}

// storeEmbedding embeds the record text and writes it to the vector store.
// Returns whether the embedding was stored.
func (p *Pool) storeEmbedding(ctx context.Context, rec *record.Record) bool {
	text := embeddableText(rec)
	if text == "" {
		p.logger.Debug("skipping embedding for record with no text content",
			zap.String("record_id", rec.ID),
		)
		return false
	}

	embedding, err := p.config.Embedder.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("failed to generate embedding",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return false
	}

	doc := vector.Document{
		ID:        rec.ID,
		Type:      rec.Type,
		Embedding: embedding,
	}

	if err := p.config.VectorDriver.Add(ctx, []vector.Document{doc}); err != nil {
		p.logger.Warn("failed to store embedding",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return false
	}

	p.logger.Debug("stored embedding",
		zap.String("record_id", rec.ID),
		zap.Int("embedding_dim", len(embedding)),
	)
	return true
}

func (p *Pool) publishIndexed(ctx context.Context, rec *record.Record, embedded bool) {
	event := &eventstream.RecordIndexedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeRecordIndexed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			Instance: p.config.Instance,
			Store:    p.config.StoreName,
		},
		Record: eventstream.RecordMeta{
			ID:               rec.ID,
			Type:             rec.Type,
			ObservationCount: len(rec.Observations),
			Embedded:         embedded,
			IndexedAt:        time.Now().UTC(),
		},
	}

	if err := p.config.Publisher.PublishIndexed(ctx, event); err != nil {
		p.logger.Warn("failed to publish indexed event",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
}

// embeddableText flattens a record into the text that gets embedded: the name
// followed by every observation.
func embeddableText(rec *record.Record) string {
	parts := make([]string, 0, len(rec.Observations)+1)
	if rec.Name != "" {
		parts = append(parts, rec.Name)
	}
	for _, obs := range rec.Observations {
		if obs.Content != "" {
			parts = append(parts, obs.Content)
		}
	}
	return strings.Join(parts, "\n")
}
