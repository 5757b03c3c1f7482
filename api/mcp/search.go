package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/search"
)

var (
	searchToolName    = "memory_search"
	searchDescription = "Search stored memories. Plain text runs combined exact and semantic search, identifiers run exact lookup, and '*' lists everything. Results include graph context (related memories) by default."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query               string   `json:"query" jsonschema:"the search query text; must not be empty, '*' lists all memories"`
	Limit               int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default: 10)"`
	MemoryTypes         []string `json:"memory_types,omitempty" jsonschema:"restrict results to these memory types"`
	Threshold           float64  `json:"threshold,omitempty" jsonschema:"minimum relevance score in [0,1] (default: 0.1)"`
	IncludeGraphContext *bool    `json:"include_graph_context,omitempty" jsonschema:"attach related memories to each result (default: true)"`
}

// handleSearch processes a memory_search request.
func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, *search.Response, error) {
	logger := s.config.Logger

	opts := search.DefaultOptions()
	if input.Limit > 0 {
		opts.Limit = input.Limit
	}
	if input.Threshold > 0 {
		opts.Threshold = input.Threshold
	}
	if len(input.MemoryTypes) > 0 {
		opts.Types = input.MemoryTypes
	}
	if input.IncludeGraphContext != nil {
		opts.IncludeGraphContext = *input.IncludeGraphContext
	}

	logger.Debug("MCP search request",
		zap.String("query", input.Query),
		zap.Int("limit", opts.Limit),
	)

	output, err := s.config.Orchestrator.Search(ctx, input.Query, opts)
	if err != nil {
		logger.Error("memory search failed", zap.Error(err))
		return toolError(fmt.Sprintf("Search failed: %v", err)), nil, nil
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// toolError wraps a message in an IsError tool result.
func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}
