package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReportsCommand(ctx *commandContext) *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect the verification history",
	}
	reportsCmd.AddCommand(newReportsListCommand(ctx))
	reportsCmd.AddCommand(newReportsShowCommand(ctx))
	return reportsCmd
}

func newReportsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent verification runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.reportStore()
			if err != nil {
				return err
			}
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No verification runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Profile,
					run.OSFactor,
					fmt.Sprintf("%d/%d", run.PassedCount, run.CaseCount),
					run.Status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Profile", "OS", "Passed", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newReportsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the cases of one verification run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.reportStore()
			if err != nil {
				return err
			}
			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, run)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
			fmt.Fprintf(out, "os_factor=%s channels=%d input_fft_length=%d input_overlap=%d threshold=%g\n",
				run.OSFactor, run.Channels, run.InputFFTLength, run.InputOverlap, run.Threshold)
			rows := make([][]string, 0, len(run.Cases))
			for _, c := range run.Cases {
				rows = append(rows, []string{
					c.Suite,
					c.Label,
					fmt.Sprintf("%.6f", c.Mean),
					fmt.Sprintf("%.3e", c.MaxAbsDiff),
					yesNo(c.Passed),
					c.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Suite", "Case", "Mean", "Max |diff|", "Passed", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}
