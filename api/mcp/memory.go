package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/ingest"
	"github.com/engramhq/engram/pkg/record"
)

var (
	storeToolName    = "memory_store"
	storeDescription = "Store a new memory with a name, type, optional metadata, observations and tags. Returns the created memory including its id."

	relateToolName    = "memory_relate"
	relateDescription = "Create a directed, labeled relation between two existing memories (e.g. 'works_at', 'depends_on')."

	getToolName    = "memory_get"
	getDescription = "Fetch a single memory by its id, including all observations and tags."
)

// StoreInput represents the input arguments for the memory_store tool.
type StoreInput struct {
	Name         string         `json:"name" jsonschema:"unique human-readable name of the memory"`
	Type         string         `json:"type,omitempty" jsonschema:"memory type used for filtering (e.g. 'person', 'project')"`
	Metadata     map[string]any `json:"metadata,omitempty" jsonschema:"arbitrary key/value metadata"`
	Observations []string       `json:"observations,omitempty" jsonschema:"free-text facts about the memory"`
	Tags         []string       `json:"tags,omitempty" jsonschema:"tags for grouping memories"`
}

// RelateInput represents the input arguments for the memory_relate tool.
type RelateInput struct {
	FromID string `json:"from_id" jsonschema:"id of the source memory"`
	ToID   string `json:"to_id" jsonschema:"id of the target memory"`
	Label  string `json:"label" jsonschema:"relation label (e.g. 'works_at')"`
}

// RelateOutput represents the output of the memory_relate tool.
type RelateOutput struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Label  string `json:"label"`
}

// GetInput represents the input arguments for the memory_get tool.
type GetInput struct {
	ID string `json:"id" jsonschema:"id of the memory to fetch"`
}

// handleStore processes a memory_store request.
func (s *Server) handleStore(ctx context.Context, req *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, *record.Record, error) {
	logger := s.config.Logger

	if input.Name == "" {
		return toolError("name is required"), nil, nil
	}

	now := time.Now().UTC()
	observations := make([]record.Observation, 0, len(input.Observations))
	for _, content := range input.Observations {
		if content == "" {
			continue
		}
		observations = append(observations, record.Observation{Content: content, CreatedAt: now})
	}

	rec := &record.Record{
		Name:         input.Name,
		Type:         input.Type,
		Metadata:     input.Metadata,
		Observations: observations,
		Tags:         input.Tags,
	}

	if err := s.config.Store.Create(ctx, rec); err != nil {
		logger.Error("failed to store memory", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to store memory: %v", err)), nil, nil
	}

	if s.config.Pool != nil {
		s.config.Pool.Enqueue(ingest.Job{Record: rec})
	}

	return jsonResult(rec), rec, nil
}

// handleRelate processes a memory_relate request.
func (s *Server) handleRelate(ctx context.Context, req *mcp.CallToolRequest, input RelateInput) (*mcp.CallToolResult, *RelateOutput, error) {
	logger := s.config.Logger

	if input.FromID == "" || input.ToID == "" || input.Label == "" {
		return toolError("from_id, to_id and label are required"), nil, nil
	}

	rel := record.Relation{FromID: input.FromID, ToID: input.ToID, Label: input.Label}
	if err := s.config.Store.Relate(ctx, rel); err != nil {
		var notFound record.NotFoundError
		if errors.As(err, &notFound) {
			return toolError(fmt.Sprintf("Memory not found: %s", notFound.ID)), nil, nil
		}
		logger.Error("failed to relate memories", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to relate memories: %v", err)), nil, nil
	}

	output := &RelateOutput{FromID: input.FromID, ToID: input.ToID, Label: input.Label}
	return jsonResult(output), output, nil
}

// handleGet processes a memory_get request.
func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, *record.Record, error) {
	logger := s.config.Logger

	if input.ID == "" {
		return toolError("id is required"), nil, nil
	}

	rec, err := s.config.Store.Get(ctx, input.ID)
	if err != nil {
		var notFound record.NotFoundError
		if errors.As(err, &notFound) {
			return toolError(fmt.Sprintf("Memory not found: %s", input.ID)), nil, nil
		}
		logger.Error("failed to get memory", zap.String("id", input.ID), zap.Error(err))
		return toolError(fmt.Sprintf("Failed to get memory: %v", err)), nil, nil
	}

	return jsonResult(rec), rec, nil
}

// jsonResult serializes v into a TextContent block alongside the structured
// output.
func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
