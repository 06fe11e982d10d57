// ABOUTME: Root Cobra command for workwell CLI.
// ABOUTME: Loads config, logger and storage via PersistentPre/PostRunE.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
	"github.com/harperreed/workwell/internal/config"
	"github.com/harperreed/workwell/internal/storage"
)

var (
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.DB

	dataDirFlag string
	backendFlag string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "workwell",
	Short: "Cohort metrics for CGM and activity studies",
	Long: `Workwell ingests continuous glucose monitor and wearable activity exports
for a study cohort and computes the summary metrics researchers look at.

WHAT IT COMPUTES:

  Glucose    time in range, hypo/hyper events, daily averages, distribution
  Activity   sedentary/light/moderate/vigorous minutes, sleep, wear time
  Devices    file sizes, wear/non-wear days, calibration quality
  Cohort     box plots of wear days, average sleep and file size

QUICK START:

  $ workwell ingest cgm ./exports/cgm          # Load CGM CSVs (pid_timepoint.csv)
  $ workwell ingest files file_summary.csv     # Load device file metadata
  $ workwell participants                      # See who is in the cohort
  $ workwell report cgm-metrics                # Cohort glucose summary as JSON
  $ workwell export markdown -o cohort.md      # Full cohort report

SERVING:

  $ workwell serve          # HTTP API on :8080
  $ workwell mcp            # MCP server on stdio

CONFIGURATION:

  Settings live in ~/.config/workwell/config.json and can be overridden with
  WORKWELL_* environment variables (WORKWELL_BACKEND, WORKWELL_DSN,
  WORKWELL_DATA_DIR, WORKWELL_CACHE, WORKWELL_LOG_LEVEL, ...).

DATA STORAGE:

  SQLite at ~/.local/share/workwell/workwell.db by default, or PostgreSQL
  with backend "postgres" and a dsn.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip storage init for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		// stdout carries command output and the MCP protocol
		logger, err = cfg.NewLogger("stderr")
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		store, err = cfg.OpenStorage(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		if store != nil {
			err := store.Close()
			store = nil
			return err
		}
		return nil
	},
}

// openEngine builds the aggregation engine over the open store. The returned
// func closes the result cache.
func openEngine(ctx context.Context) (*aggregate.Engine, func(), error) {
	engine, c, err := cfg.NewEngine(ctx, store, logger)
	if err != nil {
		return nil, nil, err
	}
	return engine, func() { _ = c.Close() }, nil
}

// filterFlags holds the participant and date flags shared by query commands.
type filterFlags struct {
	pids []string
	from string
	to   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.pids, "pid", "p", nil, "participant id (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.from, "from", "", "inclusive start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "inclusive end date (YYYY-MM-DD)")
}

func (f *filterFlags) filter() aggregate.Filter {
	var pids []string
	for _, p := range f.pids {
		if p = strings.TrimSpace(p); p != "" {
			pids = append(pids, p)
		}
	}
	return aggregate.Filter{PIDs: pids, From: f.from, To: f.to}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default: ~/.local/share/workwell)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
