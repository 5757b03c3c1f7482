package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/engramhq/engram/pkg/search"
)

// maxSearchLimit caps the page size a single HTTP request can ask for.
const maxSearchLimit = 100

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required, non-empty; "*" enumerates everything)
//   - limit (optional, default 10, capped at 100)
//   - threshold (optional, default 0.1)
//   - memory_types (optional, comma-separated type filter)
//   - include_graph_context (optional, default true)
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	opts := search.DefaultOptions()

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Kind:    "validation_error",
				Message: "limit must be an integer",
			})
		}
		if parsed > maxSearchLimit {
			parsed = maxSearchLimit
		}
		opts.Limit = parsed
	}

	if thresholdStr := c.Query("threshold"); thresholdStr != "" {
		parsed, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Kind:    "validation_error",
				Message: "threshold must be a number",
			})
		}
		opts.Threshold = parsed
	}

	if typesStr := c.Query("memory_types"); typesStr != "" {
		for _, t := range strings.Split(typesStr, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.Types = append(opts.Types, t)
			}
		}
	}

	if includeStr := c.Query("include_graph_context"); includeStr != "" {
		parsed, err := strconv.ParseBool(includeStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Kind:    "validation_error",
				Message: "include_graph_context must be a boolean",
			})
		}
		opts.IncludeGraphContext = parsed
	}

	response, err := s.orchestrator.Search(c.Context(), c.Query("query"), opts)
	if err != nil {
		status, payload := errorStatus(err)
		return c.Status(status).JSON(payload)
	}

	return c.JSON(response)
}
