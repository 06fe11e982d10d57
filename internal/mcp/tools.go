// ABOUTME: MCP tool implementations for cohort metrics.
// ABOUTME: Participant listing, named metric dispatch, box plots, TIR and events.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
)

func (s *Server) registerTools() {
	// list_participants
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_participants",
		Description: "List every participant id present in the cohort store",
	}, s.handleListParticipants)

	// compute_metric
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compute_metric",
		Description: "Compute a named cohort metric (see the workwell://metrics resource for names)",
	}, s.handleComputeMetric)

	// box_plot
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "box_plot",
		Description: "Five-number summary of wear days, average sleep hours, or device file size (MB)",
	}, s.handleBoxPlot)

	// time_in_range
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "time_in_range",
		Description: "Percentage of CGM readings in each clinical glucose band per participant",
	}, s.handleTimeInRange)

	// glucose_events
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "glucose_events",
		Description: "Daily hypoglycemia and hyperglycemia counts with average and peak glucose",
	}, s.handleGlucoseEvents)
}

// Tool input/output types

type filterInput struct {
	PIDs []string `json:"pids,omitempty" jsonschema:"Participant ids to include; all when empty"`
	From string   `json:"from,omitempty" jsonschema:"Inclusive start date (YYYY-MM-DD)"`
	To   string   `json:"to,omitempty" jsonschema:"Inclusive end date (YYYY-MM-DD)"`
}

func (in filterInput) filter() aggregate.Filter {
	return aggregate.Filter{PIDs: in.PIDs, From: in.From, To: in.To}
}

type listParticipantsInput struct{}

type participantsOutput struct {
	Participants []string `json:"participants"`
	Count        int      `json:"count"`
}

type computeMetricInput struct {
	Metric string   `json:"metric" jsonschema:"Metric name, for example cgm-metrics or qc-metrics"`
	PIDs   []string `json:"pids,omitempty" jsonschema:"Participant ids; per-participant metrics need exactly one"`
	From   string   `json:"from,omitempty" jsonschema:"Inclusive start date (YYYY-MM-DD)"`
	To     string   `json:"to,omitempty" jsonschema:"Inclusive end date (YYYY-MM-DD)"`
}

type boxPlotInput struct {
	Kind string   `json:"kind" jsonschema:"One of wear-time, avg-sleep, file-size"`
	PIDs []string `json:"pids,omitempty" jsonschema:"Participant ids to include; all when empty"`
}

// Box plot kinds accepted by box_plot.
const (
	boxWearTime = "wear-time"
	boxAvgSleep = "avg-sleep"
	boxFileSize = "file-size"
)

// Tool handlers

func (s *Server) handleListParticipants(ctx context.Context, req *mcp.CallToolRequest, _ listParticipantsInput) (*mcp.CallToolResult, participantsOutput, error) {
	pids, err := s.engine.Participants(ctx)
	if err != nil {
		return nil, participantsOutput{}, fmt.Errorf("failed to list participants: %w", err)
	}
	return nil, participantsOutput{Participants: pids, Count: len(pids)}, nil
}

func (s *Server) handleComputeMetric(ctx context.Context, req *mcp.CallToolRequest, input computeMetricInput) (*mcp.CallToolResult, any, error) {
	f := aggregate.Filter{PIDs: input.PIDs, From: input.From, To: input.To}
	v, err := s.engine.Compute(ctx, strings.TrimSpace(input.Metric), f)
	if err != nil {
		s.logger.Debug("compute_metric failed", zap.String("metric", input.Metric), zap.Error(err))
		return nil, nil, err
	}
	return nil, v, nil
}

func (s *Server) handleBoxPlot(ctx context.Context, req *mcp.CallToolRequest, input boxPlotInput) (*mcp.CallToolResult, any, error) {
	f := aggregate.Filter{PIDs: input.PIDs}
	var fn func(context.Context, aggregate.Filter) (aggregate.BoxPlot, error)
	switch input.Kind {
	case boxWearTime:
		fn = s.engine.WearTimeBoxPlot
	case boxAvgSleep:
		fn = s.engine.AvgSleepBoxPlot
	case boxFileSize:
		fn = s.engine.FileSizeBoxPlot
	default:
		return nil, nil, fmt.Errorf("unknown box plot kind %q (wear-time, avg-sleep, file-size)", input.Kind)
	}
	plot, err := fn(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return nil, plot, nil
}

func (s *Server) handleTimeInRange(ctx context.Context, req *mcp.CallToolRequest, input filterInput) (*mcp.CallToolResult, any, error) {
	rows, err := s.engine.TimeInRanges(ctx, input.filter())
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, map[string]any{"message": "No glucose readings found."}, nil
	}
	return nil, rows, nil
}

func (s *Server) handleGlucoseEvents(ctx context.Context, req *mcp.CallToolRequest, input filterInput) (*mcp.CallToolResult, any, error) {
	report, err := s.engine.GlucoseEvents(ctx, input.filter())
	if err != nil {
		return nil, nil, err
	}
	return nil, report, nil
}
