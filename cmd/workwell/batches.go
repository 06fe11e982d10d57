// ABOUTME: CLI command for listing committed ingest batches.
// ABOUTME: Shows batch ids, kinds, sizes and age plus per-table row counts.
package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/workwell/internal/storage"
)

var batchesLimit int

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List ingest batches and table sizes",
	Long: `List committed ingest and import batches, newest first, followed by the
row count of every table.

EXAMPLES:

  workwell batches
  workwell batches -n 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		batches, err := store.ListBatches(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list batches: %w", err)
		}

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		if len(batches) == 0 {
			fmt.Fprintln(out, "No batches found.")
		}
		for i, b := range batches {
			if batchesLimit > 0 && i >= batchesLimit {
				break
			}
			fmt.Fprintf(out, "%s %s %s %s %s\n",
				faint.Sprint(shortID(b.ID)),
				padRight(b.Kind, 7),
				padRight(plural(b.Files, "file"), 9),
				padRight(humanize.Comma(int64(b.Rows))+" rows", 14),
				faint.Sprint(humanize.Time(b.CreatedAt)))
		}

		counts, err := store.TableCounts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
		fmt.Fprintln(out)
		for _, table := range storage.Tables {
			fmt.Fprintf(out, "%s %s\n", padRight(table, 18), humanize.Comma(int64(counts[table])))
		}
		return nil
	},
}

func init() {
	batchesCmd.Flags().IntVarP(&batchesLimit, "limit", "n", 20, "max number of batches")
	rootCmd.AddCommand(batchesCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
