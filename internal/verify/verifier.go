package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pfbverify/internal/compare"
	"pfbverify/internal/config"
	"pfbverify/internal/dada"
	"pfbverify/internal/datagen"
	"pfbverify/internal/dispose"
	"pfbverify/internal/dspsr"
	"pfbverify/internal/logging"
	"pfbverify/internal/pipeline"
	"pfbverify/internal/reportstore"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// SimulatedPulsarFileName is looked up in the data directory.
const SimulatedPulsarFileName = "simulated_pulsar.noise_0.0.nseries_3.ndim_2.dump"

// Generator builds the first pipeline stage for a test vector.
type Generator interface {
	Stage(req datagen.GenerateRequest) pipeline.GenerateFunc
}

// Transformer is a channelize or synthesize stage.
type Transformer interface {
	Stage() pipeline.TransformFunc
}

// Dumper runs dspsr with a stage dump.
type Dumper interface {
	Run(ctx context.Context, req dspsr.DumpRequest) (dspsr.DumpResult, error)
}

// RunSaver persists finished runs.
type RunSaver interface {
	SaveRun(ctx context.Context, run reportstore.Run) error
}

// Tools are the collaborators a Verifier drives.
type Tools struct {
	Generator   Generator
	Channelizer Transformer
	Synthesizer Transformer
	Dumper      Dumper
}

// Options selects what a run covers.
type Options struct {
	NTest           int
	Time            bool
	Freq            bool
	SimulatedPulsar bool
	// SaveOutput keeps every intermediate file.
	SaveOutput bool
	// ExtraDspsrArgs are appended after the inversion arguments.
	ExtraDspsrArgs string
	Spectral       bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the verifier logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithStore persists each report after it is written.
func WithStore(store RunSaver) Option {
	return func(v *Verifier) { v.store = store }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// Verifier compares the reference inversion with dspsr.
type Verifier struct {
	cfg    *config.Config
	tools  Tools
	sizes  Sizes
	logger *slog.Logger
	store  RunSaver
	now    func() time.Time
}

// New validates the derived sizes and returns a Verifier.
func New(cfg *config.Config, tools Tools, opts ...Option) (*Verifier, error) {
	if tools.Generator == nil || tools.Channelizer == nil || tools.Synthesizer == nil || tools.Dumper == nil {
		return nil, services.Wrap(services.ErrConfiguration, "verify", "init", "all tools are required", nil)
	}
	sizes, err := ComputeSizes(cfg.Filterbank)
	if err != nil {
		return nil, err
	}
	v := &Verifier{cfg: cfg, tools: tools, sizes: sizes, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = logging.NewComponentLogger(v.logger, "verify")
	return v, nil
}

// Sizes returns the derived sample counts.
func (v *Verifier) Sizes() Sizes { return v.sizes }

// DspsrArgs renders the dspsr arguments that reproduce the configured inversion.
func (v *Verifier) DspsrArgs(extra string) string {
	fb := v.cfg.Filterbank
	parts := []string{fmt.Sprintf("-IF 1:%d:%d", fb.InputFFTLength, fb.InputOverlap)}
	if fb.Deripple {
		parts = append(parts, "-dr")
	}
	parts = append(parts, "-fft-window", fb.FFTWindow)
	if s := strings.TrimSpace(v.cfg.Dspsr.ExtraArgs); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(extra); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, "-V")
	return strings.Join(parts, " ")
}

// Run executes the selected suites, writes the JSON report and persists it.
// A case that cannot run is recorded with its error and the remaining cases
// still run; the joined case errors are returned with the report.
func (v *Verifier) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.NTest <= 0 {
		opts.NTest = 1
	}
	report := &Report{
		RunID:     uuid.NewString(),
		Profile:   v.cfg.Profile(),
		StartedAt: v.now().UTC(),
		Sizes:     v.sizes,
	}
	ctx = services.WithRequestID(ctx, report.RunID)
	logger := logging.WithContext(ctx, v.logger)
	logger.Info("verification started",
		logging.String(logging.FieldEventType, "verify_start"),
		logging.Int("n_test", opts.NTest),
		logging.Int("block_size", v.sizes.BlockSize),
		logging.Int("n_samples", v.sizes.NSamples),
		logging.Int("total_sample_shift", v.sizes.TotalSampleShift),
	)

	var errs []error
	if opts.Time {
		for _, offset := range v.sizes.TimeOffsets(opts.NTest) {
			c := CaseResult{Suite: SuiteTime, Offset: &offset}
			gen := v.tools.Generator.Stage(datagen.GenerateRequest{
				Domain: datagen.DomainTime,
				NBins:  v.sizes.NSamples,
				Args:   datagen.ImpulseArgs(offset),
			})
			errs = append(errs, v.runCase(ctx, &c, gen, false, opts))
			report.TimeImpulse = append(report.TimeImpulse, c)
		}
	}
	if opts.Freq {
		for _, freq := range v.sizes.FreqBins(opts.NTest) {
			c := CaseResult{Suite: SuiteFreq, Freq: &freq}
			gen := v.tools.Generator.Stage(datagen.GenerateRequest{
				Domain: datagen.DomainFreq,
				NBins:  v.sizes.NSamples,
				Args:   datagen.SinusoidArgs(freq),
			})
			errs = append(errs, v.runCase(ctx, &c, gen, false, opts))
			report.ComplexSinusoid = append(report.ComplexSinusoid, c)
		}
	}
	if opts.SimulatedPulsar {
		c := CaseResult{Suite: SuiteSimulatedPulsar}
		path := filepath.Join(v.cfg.Paths.DataDir, SimulatedPulsarFileName)
		errs = append(errs, v.runCase(ctx, &c, pipeline.Existing(path), true, opts))
		report.SimulatedPulsar = append(report.SimulatedPulsar, c)
	}
	report.FinishedAt = v.now().UTC()

	if err := v.finish(ctx, report); err != nil {
		errs = append(errs, err)
	}
	logger.Info("verification finished",
		logging.String(logging.FieldEventType, "verify_complete"),
		logging.String("status", report.Status()),
		logging.Int("cases", len(report.Cases())),
	)
	return report, errors.Join(errs...)
}

func (v *Verifier) finish(ctx context.Context, report *Report) error {
	path, err := report.WriteJSON(v.cfg.Paths.ProductsDir)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, v.logger).Info("report written", logging.String("path", path))
	if v.store == nil {
		return nil
	}
	fb := v.cfg.Filterbank
	run := report.Record(fb.OSFactor, fb.Channels, fb.InputFFTLength, fb.InputOverlap, v.cfg.Verify.Threshold)
	if err := v.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	return nil
}

// pipelineOutputs disposes a pipeline result, optionally sparing its input.
type pipelineOutputs struct {
	pipeline.Result
	keepInput bool
}

func (o pipelineOutputs) BackingPaths() []string {
	if !o.keepInput {
		return o.Result.BackingPaths()
	}
	trimmed := o.Result
	trimmed.Input = nil
	return trimmed.BackingPaths()
}

func (v *Verifier) runCase(ctx context.Context, c *CaseResult, gen pipeline.GenerateFunc, keepInput bool, opts Options) error {
	ctx = services.WithCase(ctx, c.Suite+"/"+c.Label())
	logger := logging.WithContext(ctx, v.logger)
	scopeOpts := []dispose.Option{dispose.WithEnabled(!opts.SaveOutput), dispose.WithLogger(v.logger)}

	p := pipeline.New(gen, v.tools.Channelizer.Stage(), v.tools.Synthesizer.Stage(), v.cfg.Paths.DataDir, v.logger)
	runPipeline := dispose.ProducerFunc(func(ctx context.Context) (dispose.Resource, error) {
		res, err := p.Run(ctx)
		return pipelineOutputs{Result: res, keepInput: keepInput}, err
	})

	err := dispose.Do(ctx, []dispose.Producer{runPipeline}, func(ctx context.Context, outer *dispose.Scope) error {
		files := outer.Resource().(pipelineOutputs)
		runDump := dispose.ProducerFunc(func(ctx context.Context) (dispose.Resource, error) {
			return v.tools.Dumper.Run(services.WithStage(ctx, "dspsr"), dspsr.DumpRequest{
				FoldRequest: dspsr.FoldRequest{Request: runner.Request{
					FilePath:  files.Channelized.Path,
					OutputDir: v.cfg.Paths.DataDir,
					ExtraArgs: v.DspsrArgs(opts.ExtraDspsrArgs),
				}},
				Stage: v.cfg.Dspsr.DumpStage,
			})
		})
		return dispose.Do(ctx, []dispose.Producer{runDump}, func(ctx context.Context, inner *dispose.Scope) error {
			dump := inner.Resource().(dspsr.DumpResult)
			c.apply(v.compareFiles(ctx, files.Synthesized.File, dump.Dump, opts.Spectral))
			return nil
		}, scopeOpts...)
	}, scopeOpts...)
	if err != nil {
		c.Error = err.Error()
		logger.Error("verification case failed",
			logging.String(logging.FieldEventType, "case_error"),
			logging.Error(err),
		)
		return fmt.Errorf("%s %s: %w", c.Suite, c.Label(), err)
	}
	logger.Info("verification case compared",
		logging.String(logging.FieldEventType, "case_complete"),
		logging.Bool("passed", c.Passed()),
		logging.String("result", c.Str),
	)
	return nil
}

// compareFiles compares the synthesized data with the dspsr dump scaled to
// the reference amplitude.
func (v *Verifier) compareFiles(ctx context.Context, synthesized, dump *dada.File, spectral bool) compare.Result {
	logger := logging.WithContext(ctx, v.logger)
	scaled := compare.Scale(dump.Data, float64(v.sizes.Normalize))
	res := compare.Compare(synthesized.Data, scaled, compare.Options{
		Absolute: v.cfg.Verify.Threshold,
		Relative: compare.DefaultRelativeTolerance,
		Spectral: spectral,
	})
	if res.LengthMismatch() {
		logger.Error("sample counts differ",
			logging.Int("reference", res.LengthA),
			logging.Int("dspsr", res.LengthB),
		)
	}
	if res.Mean != 1.0 {
		logger.Error("data are not equal",
			logging.Float64("mean", res.Mean),
			logging.Float64("max_abs_diff", res.MaxAbsDiff),
		)
	}
	return res
}
