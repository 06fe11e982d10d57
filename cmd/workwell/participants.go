// ABOUTME: CLI command for listing cohort participants.
// ABOUTME: Shows each pid with the number of days that have CGM data.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
)

var participantsCmd = &cobra.Command{
	Use:     "participants",
	Aliases: []string{"pids", "ls"},
	Short:   "List cohort participants",
	Long: `List every participant id found in any loaded table.

OUTPUT FORMAT:

  Each line shows: PID  DAYS WORN

  Days worn counts distinct calendar dates with CGM readings; participants
  with no CGM data show "-".

EXAMPLES:

  workwell participants
  workwell pids`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeCache, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeCache()

		pids, err := engine.Participants(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}
		if len(pids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No participants found. Load data with 'workwell ingest'.")
			return nil
		}

		worn := make(map[string]int)
		days, err := engine.DaysWorn(cmd.Context(), aggregate.Filter{})
		if err != nil {
			logger.Debug("days worn unavailable", zap.Error(err))
		}
		for _, d := range days {
			worn[d.PID] = d.DaysWorn
		}

		faint := color.New(color.Faint)
		out := cmd.OutOrStdout()
		for _, pid := range pids {
			n, ok := worn[pid]
			daysCol := faint.Sprint("-")
			if ok {
				daysCol = fmt.Sprintf("%d", n)
			}
			fmt.Fprintf(out, "%s %s\n", padRight(truncate(pid, 24), 24), daysCol)
		}
		fmt.Fprintln(out, faint.Sprint(plural(len(pids), "participant")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(participantsCmd)
}
