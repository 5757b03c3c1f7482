package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/ingest"
	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/search"
)

// ErrorResponse is the error payload returned by every endpoint.
type ErrorResponse struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// Server is the API server for managing and querying memory records.
type Server struct {
	config       Config
	store        record.Store
	orchestrator *search.Orchestrator
	pool         *ingest.Pool
	logger       *zap.Logger
	app          *fiber.App
}

// NewServer creates a new API server.
// The store and orchestrator are injected to allow sharing with other
// components (e.g., the MCP server). pool may be nil, in which case record
// writes skip async indexing. mcpHandler may be nil to disable the /mcp mount.
func NewServer(config Config, store record.Store, orchestrator *search.Orchestrator, pool *ingest.Pool, mcpHandler http.Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:       config,
		store:        store,
		orchestrator: orchestrator,
		pool:         pool,
		logger:       logger,
		app:          app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Post("/v1/records", s.handleCreateRecord)
	app.Get("/v1/records/:id", s.handleGetRecord)
	app.Delete("/v1/records/:id", s.handleDeleteRecord)
	app.Post("/v1/records/:id/observations", s.handleAddObservations)
	app.Post("/v1/relations", s.handleCreateRelation)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// errorStatus maps a search error kind to an HTTP status code. Unclassified
// errors are treated as internal.
func errorStatus(err error) (int, ErrorResponse) {
	if searchErr, ok := search.AsError(err); ok {
		status := fiber.StatusInternalServerError
		switch searchErr.Kind {
		case search.KindValidation:
			status = fiber.StatusBadRequest
		case search.KindCapabilityUnavailable:
			status = fiber.StatusServiceUnavailable
		case search.KindStore:
			status = fiber.StatusBadGateway
		}
		return status, ErrorResponse{
			Kind:        string(searchErr.Kind),
			Message:     searchErr.Message,
			Remediation: searchErr.Remediation,
		}
	}

	return fiber.StatusInternalServerError, ErrorResponse{
		Kind:    "internal_error",
		Message: err.Error(),
	}
}
