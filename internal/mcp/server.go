// ABOUTME: MCP server setup for the cohort metrics engine.
// ABOUTME: Wraps the MCP server with the aggregation engine it queries.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
)

// Server wraps the MCP server with engine access.
type Server struct {
	mcpServer *mcp.Server
	engine    *aggregate.Engine
	logger    *zap.Logger
}

// NewServer creates a new MCP server over the given engine.
func NewServer(engine *aggregate.Engine, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "workwell",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    engine,
		logger:    logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting", zap.String("transport", "stdio"))
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
