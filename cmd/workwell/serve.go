// ABOUTME: CLI command for starting the HTTP API.
// ABOUTME: Serves read-only cohort metrics until interrupted.
package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/workwell/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the read-only HTTP API over the cohort store.

Every response is JSON: {"data": ...} on success, {"error", "detail"} on
failure. Cohort endpoints accept pid (repeatable), from and to query
parameters.

EXAMPLES:

  workwell serve                    # Listen on the configured address (:8080)
  workwell serve --addr :9000       # Listen on another port
  curl localhost:8080/cgm-metrics?pid=p01&pid=p02
  curl localhost:8080/metrics/qc-metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeCache, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeCache()

		addr := cfg.GetAddr()
		if serveAddr != "" {
			addr = serveAddr
		}

		color.Green("✓ Serving cohort metrics on %s", addr)
		return server.New(engine, logger).Run(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
