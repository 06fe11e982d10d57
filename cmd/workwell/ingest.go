// ABOUTME: CLI commands for loading study CSV exports into the store.
// ABOUTME: One subcommand per file format; each run commits a single batch.
package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/workwell/internal/ingest"
)

var ingestWorkers int

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load CSV exports into the cohort store",
	Long: `Load study CSV exports. Arguments may be files or directories; directories
are searched recursively for .csv files. All files of one run are parsed in
parallel and committed in a single transaction, so a bad file loads nothing.

FORMATS:

  cgm     CGM reader exports named <pid>_<timepoint>*.csv (two preamble lines)
  wear    Daily recorded wear hours (pid, calendar_date, recorded_wear_time_hrs)
  days    Daily activity and sleep summaries (dur_day_total_*_min, ...)
  files   Device file metadata (file_size, wear/non-wear days, calibration)
  diet    Food logs (Date, Time, Total Carbs (g), Calories, ...)
  trace   Minute-level activity and sleep traces

EXAMPLES:

  workwell ingest cgm ./exports/cgm
  workwell ingest files file_summary.csv
  workwell ingest days ./summaries --workers 8`,
}

var ingestDescriptions = map[ingest.Kind]string{
	ingest.KindCGM:   "Load CGM reader exports",
	ingest.KindWear:  "Load daily wear-time rows",
	ingest.KindDays:  "Load daily activity and sleep summaries",
	ingest.KindFiles: "Load device file metadata",
	ingest.KindDiet:  "Load food log entries",
	ingest.KindTrace: "Load minute-level activity traces",
}

func newIngestKindCmd(kind ingest.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " <path>...",
		Short: ingestDescriptions[kind],
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers := cfg.IngestWorkers
			if ingestWorkers > 0 {
				workers = ingestWorkers
			}

			loader := ingest.NewLoader(store, workers, logger)
			summary, err := loader.Load(cmd.Context(), kind, args)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", kind, err)
			}

			color.Green("✓ Ingested %s rows from %s", humanize.Comma(int64(summary.Rows)), plural(summary.Files, "file"))
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", color.New(color.Faint).Sprint("batch "+summary.ID))
			return nil
		},
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

func init() {
	ingestCmd.PersistentFlags().IntVarP(&ingestWorkers, "workers", "w", 0, "parallel file parsers (default from config)")
	for _, kind := range ingest.Kinds {
		ingestCmd.AddCommand(newIngestKindCmd(kind))
	}
	rootCmd.AddCommand(ingestCmd)
}
