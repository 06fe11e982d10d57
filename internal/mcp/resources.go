// ABOUTME: MCP resource implementations for the cohort store.
// ABOUTME: Provides workwell://cohort/summary and workwell://metrics resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/workwell/internal/aggregate"
)

// Resource URIs.
const (
	uriCohortSummary = "workwell://cohort/summary"
	uriMetrics       = "workwell://metrics"
)

func (s *Server) registerResources() {
	// workwell://cohort/summary - headline metrics for the whole cohort
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriCohortSummary,
		Name:        "Cohort Summary",
		Description: "CGM summary, time in range, box plots and device QC for all participants",
		MIMEType:    "application/json",
	}, s.handleCohortSummaryResource)

	// workwell://metrics - catalog of names accepted by compute_metric
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriMetrics,
		Name:        "Metric Catalog",
		Description: "Every metric name compute_metric accepts, with descriptions",
		MIMEType:    "application/json",
	}, s.handleMetricsResource)
}

// Resource handlers

func (s *Server) handleCohortSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	report, err := s.engine.CohortReport(ctx, aggregate.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to build cohort report: %w", err)
	}
	return jsonResource(uriCohortSummary, report)
}

func (s *Server) handleMetricsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(uriMetrics, aggregate.Metrics())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
