// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/workwell/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout; logs go to stderr.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "workwell": {
        "command": "workwell",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_participants   List participant ids in the cohort
  compute_metric      Compute any named metric (see workwell://metrics)
  box_plot            Wear-time, average sleep or file-size box plot
  time_in_range       Per-participant time in each glucose band
  glucose_events      Daily hypo/hyper counts

AVAILABLE RESOURCES:

  workwell://cohort/summary   Cohort report for all participants
  workwell://metrics          Metric catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeCache, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeCache()

		server, err := mcp.NewServer(engine, logger)
		if err != nil {
			return err
		}
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
