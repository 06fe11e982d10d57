// ABOUTME: CLI commands for exporting and importing cohort data.
// ABOUTME: JSON/YAML dumps for backup and restore, Markdown for the cohort report.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/workwell/internal/report"
)

var (
	exportOutput string
	exportFilter filterFlags
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export cohort data",
	Long: `Export cohort data in various formats.

FORMATS:

  json       Every stored row as JSON (suitable for backup/restore)
  yaml       Every stored row as YAML
  markdown   Cohort report: CGM summary, time in range, box plots, QC

OPTIONS:

  --output, -o   Write to file instead of stdout
  --pid, --from, --to
                 Narrow the cohort report (markdown only)

EXAMPLES:

  workwell export json -o backup.json
  workwell export yaml
  workwell export markdown -o cohort.md
  workwell export markdown --from 2024-01-01 --to 2024-03-31`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(args[0])
		if err != nil {
			return err
		}

		return writeOutput(cmd, exportOutput, func(w io.Writer) error {
			var data []byte
			var err error
			switch format {
			case report.FormatJSON:
				data, err = store.ExportJSON(cmd.Context())
			case report.FormatYAML:
				data, err = store.ExportYAML(cmd.Context())
			case report.FormatMarkdown:
				engine, closeCache, err := openEngine(cmd.Context())
				if err != nil {
					return err
				}
				defer closeCache()
				r, err := engine.CohortReport(cmd.Context(), exportFilter.filter())
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				return report.WriteMarkdown(w, r)
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			_, err = w.Write(data)
			return err
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import cohort data from a JSON or YAML export",
	Long: `Import cohort data from a file produced by 'workwell export json' or
'workwell export yaml'. The rows are committed as a single batch.

EXAMPLES:

  workwell import backup.json
  workwell import backup.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			err = store.ImportYAML(cmd.Context(), data)
		default:
			err = store.ImportJSON(cmd.Context(), data)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported from %s", filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportFilter.register(exportCmd)

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
