// Package qdrant provides a Qdrant vector database driver implementation.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing
	// engram record embeddings.
	DefaultCollectionName = "engram"
)

// Driver implements vector.Driver using Qdrant's gRPC API.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port (typically 6334).
	Port int

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint64
}

// NewDriver creates a new Qdrant vector driver, creating the collection with
// cosine distance if it does not exist yet.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: c.Host,
		Port: c.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     c.Dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", collection),
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// Probe checks that the Qdrant server is reachable.
func (d *Driver) Probe(ctx context.Context) error {
	if _, err := d.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %v", vector.ErrUnavailable, err)
	}
	return nil
}

// Add stores documents with their embeddings.
// Existing points with the same ID are overwritten.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{"type": doc.Type}),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding with
// similarity >= threshold, optionally filtered by record type.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, threshold float32, types []string) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	limit := uint64(topK)
	query := &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(types) > 0 {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords("type", types...),
			},
		}
	}

	points, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		result := vector.QueryResult{
			Document: vector.Document{
				ID: point.GetId().GetUuid(),
			},
			// Qdrant reports cosine similarity directly for cosine
			// collections.
			Score: vector.ClampScore(point.GetScore()),
		}
		if payload := point.GetPayload(); payload != nil {
			result.Type = payload["type"].GetStringValue()
		}
		results = append(results, result)
	}

	d.logger.Debug("queried qdrant",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
