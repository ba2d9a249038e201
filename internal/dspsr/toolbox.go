package dspsr

import (
	"pfbverify/internal/config"
	"pfbverify/internal/runner"
)

// Toolbox bundles the production tool runners. Each runner type is built at
// most once per registry.
type Toolbox struct {
	Fold *FoldRunner
	Dump *DumpRunner
	Diff *DiffRunner
	Text *TextRunner
}

// NewToolbox builds the runners described by cfg.
func NewToolbox(reg *runner.Registry, cfg *config.Config, opts ...runner.Option) *Toolbox {
	fold := runner.Provide(reg, func() *FoldRunner {
		return NewFoldRunner(FoldConfig{
			Binary:    cfg.Dspsr.Binary,
			Ephemeris: Ephemeris{DM: cfg.Dspsr.DM, Period: cfg.Dspsr.Period},
			WorkDir:   cfg.Paths.WorkDir,
		}, opts...)
	})
	return &Toolbox{
		Fold: fold,
		Dump: runner.Provide(reg, func() *DumpRunner {
			return NewDumpRunner(fold, cfg.Dspsr.DumpStage)
		}),
		Diff: runner.Provide(reg, func() *DiffRunner {
			return NewDiffRunner(cfg.Dspsr.PsrdiffBinary, cfg.Paths.WorkDir, opts...)
		}),
		Text: runner.Provide(reg, func() *TextRunner {
			return NewTextRunner(cfg.Dspsr.PsrtxtBinary, opts...)
		}),
	}
}
