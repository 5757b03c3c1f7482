// Package mcp provides an MCP (Model Context Protocol) server for the Engram system.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/ingest"
	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/search"
	"github.com/engramhq/engram/pkg/utils"
)

type Config struct {
	// Store is the record store backing the memory tools
	Store record.Store

	// Orchestrator answers memory_search requests
	Orchestrator *search.Orchestrator

	// Pool receives async indexing jobs after writes (optional)
	Pool *ingest.Pool

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "engram",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Store == nil {
		return nil, errors.New("record store is required")
	}
	if c.Orchestrator == nil {
		return nil, errors.New("search orchestrator is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        storeToolName,
		Description: storeDescription,
	}, s.handleStore)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        relateToolName,
		Description: relateDescription,
	}, s.handleRelate)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getToolName,
		Description: getDescription,
	}, s.handleGet)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
