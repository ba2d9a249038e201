package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pfbverify/internal/datagen"
	"pfbverify/internal/preflight"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
	"pfbverify/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var opts verify.Options
	var skipPreflight bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare the reference PFB inversion with dspsr",
		Long: "Generate impulse and sinusoid test vectors, channelize and synthesize them with the\n" +
			"reference tools, run dspsr on the channelized data and compare the results.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Time && !opts.Freq && !opts.SimulatedPulsar {
				return services.Wrap(services.ErrValidation, "verify", "flags",
					"select at least one of --time, --freq or --simulated-pulsar", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !skipPreflight {
				if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
					names := make([]string, len(failed))
					for i, r := range failed {
						names[i] = fmt.Sprintf("%s: %s", r.Name, r.Detail)
					}
					return services.Wrap(services.ErrConfiguration, "verify", "preflight",
						strings.Join(names, "; "), nil)
				}
			}
			tools, err := ctx.toolbox()
			if err != nil {
				return err
			}
			store, err := ctx.reportStore()
			if err != nil {
				return err
			}

			withLogger := runner.WithLogger(logger)
			v, err := verify.New(cfg, verify.Tools{
				Generator:   datagen.NewGenerator(cfg, withLogger),
				Channelizer: datagen.NewChannelizer(cfg, withLogger),
				Synthesizer: datagen.NewSynthesizer(cfg, withLogger),
				Dumper:      tools.Dump,
			}, verify.WithLogger(logger), verify.WithStore(store))
			if err != nil {
				return err
			}

			report, runErr := v.Run(cmd.Context(), opts)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			if runErr != nil {
				return runErr
			}
			if !report.Passed() {
				return services.Wrap(services.ErrValidation, "verify", "compare",
					fmt.Sprintf("run %s: reference and dspsr data differ", report.RunID), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Time, "time", "t", false, "Run the time domain impulse cases")
	cmd.Flags().BoolVarP(&opts.Freq, "freq", "f", false, "Run the complex sinusoid cases")
	cmd.Flags().BoolVarP(&opts.SimulatedPulsar, "simulated-pulsar", "s", false, "Run the simulated pulsar case")
	cmd.Flags().IntVarP(&opts.NTest, "n-test", "n", 100, "Number of test vectors per domain")
	cmd.Flags().BoolVar(&opts.SaveOutput, "save-output", false, "Keep intermediate data products")
	cmd.Flags().StringVar(&opts.ExtraDspsrArgs, "extra-args", "", "Additional arguments passed to dspsr")
	cmd.Flags().BoolVar(&opts.Spectral, "spectral", false, "Also compare the spectra of both outputs")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not check tools and directories first")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(out io.Writer, report *verify.Report) {
	if report == nil {
		return
	}
	rows := make([][]string, 0, len(report.Cases()))
	for _, c := range report.Cases() {
		rows = append(rows, []string{
			c.Suite,
			c.Label(),
			fmt.Sprintf("%.6f", c.Mean),
			fmt.Sprintf("%.0f", c.Sum),
			fmt.Sprintf("%.3e", c.MaxAbsDiff),
			yesNo(c.Passed()),
		})
	}
	fmt.Fprintf(out, "Run %s\n", report.RunID)
	fmt.Fprintln(out, renderTable(
		[]string{"Suite", "Case", "Mean", "Sum", "Max |diff|", "Passed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}
