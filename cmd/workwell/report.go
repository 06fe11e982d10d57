// ABOUTME: CLI command for computing a named metric.
// ABOUTME: Lists the metric catalog without arguments; renders JSON, YAML or Markdown.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/workwell/internal/aggregate"
	"github.com/harperreed/workwell/internal/report"
)

var (
	reportFilter filterFlags
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report [metric]",
	Short: "Compute a cohort metric",
	Long: `Compute a named metric over the cohort and print it.

Run without arguments to list every metric. Per-participant metrics such as
daily-avg-glucose and sleep-data need exactly one --pid.

FORMATS:

  json       Default
  yaml       Human-readable
  markdown   Only for cohort-report

EXAMPLES:

  workwell report                                   # List metrics
  workwell report cgm-metrics                       # Cohort glucose summary
  workwell report participant-time-in-ranges -p p01,p02
  workwell report daily-avg-glucose --pid p01 -f yaml
  workwell report glucose-events --from 2024-01-01 --to 2024-01-31
  workwell report cohort-report -f markdown -o cohort.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			listMetrics(cmd.OutOrStdout())
			return nil
		}

		format, err := report.ParseFormat(reportFormat)
		if err != nil {
			return err
		}
		name := args[0]
		if format == report.FormatMarkdown && name != aggregate.MetricCohortReport {
			return fmt.Errorf("markdown output is only available for %s", aggregate.MetricCohortReport)
		}

		engine, closeCache, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeCache()

		f := reportFilter.filter()
		return writeOutput(cmd, reportOutput, func(w io.Writer) error {
			if format == report.FormatMarkdown {
				r, err := engine.CohortReport(cmd.Context(), f)
				if err != nil {
					return err
				}
				return report.WriteMarkdown(w, r)
			}
			v, err := engine.Compute(cmd.Context(), name, f)
			if err != nil {
				return err
			}
			return report.Write(w, v, format)
		})
	},
}

func listMetrics(w io.Writer) {
	faint := color.New(color.Faint)
	for _, m := range aggregate.Metrics() {
		scope := ""
		if m.PerParticipant {
			scope = faint.Sprint(" (one pid)")
		}
		fmt.Fprintf(w, "%s %s%s\n", padRight(m.Name, 28), m.Description, scope)
	}
}

// writeOutput renders into a buffer so nothing is written when render fails,
// then sends it to path or stdout.
func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if path == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	color.Green("✓ Wrote %s", path)
	return nil
}

func init() {
	reportFilter.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "json", "output format: json, yaml, markdown")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(reportCmd)
}
