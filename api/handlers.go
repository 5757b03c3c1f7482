package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/ingest"
	"github.com/engramhq/engram/pkg/record"
)

// CreateRecordRequest is the body for POST /v1/records.
type CreateRecordRequest struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Observations []string       `json:"observations,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
}

// AddObservationsRequest is the body for POST /v1/records/:id/observations.
type AddObservationsRequest struct {
	Observations []string `json:"observations"`
}

// CreateRelationRequest is the body for POST /v1/relations.
type CreateRelationRequest struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Label  string `json:"label"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateRecord persists a new record and enqueues it for async
// indexing.
func (s *Server) handleCreateRecord(c *fiber.Ctx) error {
	var req CreateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "malformed request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "name is required",
		})
	}

	rec := &record.Record{
		Name:         req.Name,
		Type:         req.Type,
		Metadata:     req.Metadata,
		Tags:         req.Tags,
		Observations: toObservations(req.Observations),
	}

	if err := s.store.Create(c.Context(), rec); err != nil {
		s.logger.Error("failed to create record", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Kind:    "store_error",
			Message: "failed to create record",
		})
	}

	s.enqueueIndexing(rec)

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// handleGetRecord returns a single record by id.
func (s *Server) handleGetRecord(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "id parameter required",
		})
	}

	rec, err := s.store.Get(c.Context(), id)
	if err != nil {
		var notFound record.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Kind:    "not_found",
				Message: "record not found",
			})
		}
		s.logger.Error("failed to get record", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Kind:    "store_error",
			Message: "failed to get record",
		})
	}

	return c.JSON(rec)
}

// handleDeleteRecord removes a record and its relations.
func (s *Server) handleDeleteRecord(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "id parameter required",
		})
	}

	if err := s.store.Delete(c.Context(), id); err != nil {
		var notFound record.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Kind:    "not_found",
				Message: "record not found",
			})
		}
		s.logger.Error("failed to delete record", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Kind:    "store_error",
			Message: "failed to delete record",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleAddObservations appends observations to an existing record and
// re-enqueues it for indexing so the embedding reflects the new content.
func (s *Server) handleAddObservations(c *fiber.Ctx) error {
	id := c.Params("id")

	var req AddObservationsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "malformed request body",
		})
	}

	if len(req.Observations) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "at least one observation is required",
		})
	}

	if err := s.store.AddObservations(c.Context(), id, toObservations(req.Observations)); err != nil {
		var notFound record.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Kind:    "not_found",
				Message: "record not found",
			})
		}
		s.logger.Error("failed to add observations", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Kind:    "store_error",
			Message: "failed to add observations",
		})
	}

	rec, err := s.store.Get(c.Context(), id)
	if err == nil {
		s.enqueueIndexing(rec)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleCreateRelation links two records.
func (s *Server) handleCreateRelation(c *fiber.Ctx) error {
	var req CreateRelationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "malformed request body",
		})
	}

	if req.FromID == "" || req.ToID == "" || req.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Kind:    "validation_error",
			Message: "from_id, to_id and label are required",
		})
	}

	rel := record.Relation{FromID: req.FromID, ToID: req.ToID, Label: req.Label}
	if err := s.store.Relate(c.Context(), rel); err != nil {
		var notFound record.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Kind:    "not_found",
				Message: "record not found",
			})
		}
		s.logger.Error("failed to create relation", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Kind:    "store_error",
			Message: "failed to create relation",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) enqueueIndexing(rec *record.Record) {
	if s.pool == nil || rec == nil {
		return
	}
	s.pool.Enqueue(ingest.Job{Record: rec})
}

func toObservations(contents []string) []record.Observation {
	now := time.Now().UTC()
	observations := make([]record.Observation, 0, len(contents))
	for _, content := range contents {
		if content == "" {
			continue
		}
		observations = append(observations, record.Observation{Content: content, CreatedAt: now})
	}
	return observations
}
