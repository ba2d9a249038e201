package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pfbverify/internal/verify"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var fftSize int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "process <base-dir>",
		Short: "Run dspsr on every channelized test vector under base-dir",
		Long: "Each <base-dir>/{time,freq}/<case> directory must hold a meta.json naming its\n" +
			"channelized_file. The dspsr archive and stage dump names are written back to it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			tools, err := ctx.toolbox()
			if err != nil {
				return err
			}
			report, err := verify.ProcessTestVectors(cmd.Context(), tools.Dump, args[0], fftSize, logger)
			if jsonOutput && report != nil {
				if werr := writeJSON(cmd, report); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			if !jsonOutput {
				out := cmd.OutOrStdout()
				for _, domain := range []string{"time", "freq"} {
					fmt.Fprintf(out, "%s: %d dumps\n", domain, len(report[domain]))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&fftSize, "fft-size", verify.DefaultProcessFFTSize, "dspsr forward FFT length")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the dump paths as JSON")
	return cmd
}
