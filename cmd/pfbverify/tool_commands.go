package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pfbverify/internal/dspsr"
	"pfbverify/internal/runner"
)

func newToolCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newFoldCommand(ctx),
		newDumpCommand(ctx),
		newDiffCommand(ctx),
		newTextCommand(ctx),
	}
}

type requestFlags struct {
	outputName string
	outputDir  string
	extraArgs  string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outputName, "output-file-name", "o", "", "Output file name (defaults to the input basename)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory (defaults to the input directory)")
	cmd.Flags().StringVar(&f.extraArgs, "extra-args", "", "Additional tool arguments")
}

func (f *requestFlags) request(input string) runner.Request {
	return runner.Request{
		FilePath:       input,
		OutputFileName: f.outputName,
		OutputDir:      f.outputDir,
		ExtraArgs:      f.extraArgs,
	}
}

type ephemerisFlags struct {
	dm     float64
	period float64
}

func (f *ephemerisFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.dm, "dm", 0, "Dispersion measure (defaults to the configured value)")
	cmd.Flags().Float64Var(&f.period, "period", 0, "Pulsar period in seconds (defaults to the configured value)")
}

func (f *ephemerisFlags) override(cmd *cobra.Command, base dspsr.Ephemeris) *dspsr.Ephemeris {
	if !cmd.Flags().Changed("dm") && !cmd.Flags().Changed("period") {
		return nil
	}
	if cmd.Flags().Changed("dm") {
		base.DM = f.dm
	}
	if cmd.Flags().Changed("period") {
		base.Period = f.period
	}
	return &base
}

func newFoldCommand(ctx *commandContext) *cobra.Command {
	var req requestFlags
	var eph ephemerisFlags
	cmd := &cobra.Command{
		Use:   "fold <file>",
		Short: "Fold a file with dspsr",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tools, err := ctx.toolbox()
			if err != nil {
				return err
			}
			res, err := tools.Fold.Run(cmd.Context(), dspsr.FoldRequest{
				Request:   req.request(args[0]),
				Ephemeris: eph.override(cmd, dspsr.Ephemeris{DM: cfg.Dspsr.DM, Period: cfg.Dspsr.Period}),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "archive: %s\n", res.Archive)
			fmt.Fprintf(out, "log:     %s\n", res.Log)
			return nil
		},
	}
	req.register(cmd)
	eph.register(cmd)
	return cmd
}

func newDumpCommand(ctx *commandContext) *cobra.Command {
	var req requestFlags
	var eph ephemerisFlags
	var stage string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Run dspsr and dump the data entering an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tools, err := ctx.toolbox()
			if err != nil {
				return err
			}
			res, err := tools.Dump.Run(cmd.Context(), dspsr.DumpRequest{
				FoldRequest: dspsr.FoldRequest{
					Request:   req.request(args[0]),
					Ephemeris: eph.override(cmd, dspsr.Ephemeris{DM: cfg.Dspsr.DM, Period: cfg.Dspsr.Period}),
				},
				Stage: stage,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dump:    %s\n", res.DumpPath())
			fmt.Fprintf(out, "archive: %s\n", res.Archive)
			fmt.Fprintf(out, "log:     %s\n", res.Log)
			return nil
		},
	}
	req.register(cmd)
	eph.register(cmd)
	cmd.Flags().StringVar(&stage, "stage", "", "dspsr operation to dump before (defaults to the configured dump_stage)")
	return cmd
}

func newDiffCommand(ctx *commandContext) *cobra.Command {
	var outputName, outputDir string
	cmd := &cobra.Command{
		Use:   "diff <archive> <archive>...",
		Short: "Compare archives with psrdiff",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := ctx.toolbox()
			if err != nil {
				return err
			}
			res, err := tools.Diff.Run(cmd.Context(), dspsr.DiffRequest{
				Files:          args,
				OutputFileName: outputName,
				OutputDir:      outputDir,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "report: %s\n", res.Output)
			fmt.Fprintf(out, "log:    %s\n", res.Log)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputName, "output-file-name", "o", "", "Report file name")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Report directory")
	return cmd
}

func newTextCommand(ctx *commandContext) *cobra.Command {
	var req requestFlags
	var show bool
	cmd := &cobra.Command{
		Use:   "text <archive>",
		Short: "Convert an archive to text with psrtxt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := ctx.toolbox()
			if err != nil {
				return err
			}
			res, err := tools.Text.Run(cmd.Context(), req.request(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "text: %s\n", res.Text)
			fmt.Fprintf(out, "log:  %s\n", res.Log)
			if !show {
				return nil
			}
			columns, err := dspsr.LoadText(res.Text)
			if err != nil {
				return err
			}
			rows := 0
			if len(columns) > 0 {
				rows = len(columns[0])
			}
			fmt.Fprintf(out, "columns: %d, rows: %d\n", len(columns), rows)
			return nil
		},
	}
	req.register(cmd)
	cmd.Flags().BoolVar(&show, "summary", false, "Parse the text output and print its shape")
	return cmd
}

func newFindInLogCommand() *cobra.Command {
	var sep, delim string
	cmd := &cobra.Command{
		Use:         "find-in-log <log> <keyword>...",
		Short:       "Extract key=value settings from a tool log",
		Args:        cobra.MinimumNArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := dspsr.LogScanner{Sep: sep, Delimiter: delim}
			values, err := scanner.FindInFile(args[0], args[1:]...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, kw := range args[1:] {
				fmt.Fprintf(out, "%s=%s\n", kw, strings.TrimSpace(values[i]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sep, "sep", dspsr.DefaultLogScanner.Sep, "Separator between keyword and value")
	cmd.Flags().StringVar(&delim, "delimiter", dspsr.DefaultLogScanner.Delimiter, "Delimiter ending a value")
	return cmd
}
