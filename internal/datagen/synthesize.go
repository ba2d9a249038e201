package datagen

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"pfbverify/internal/config"
	"pfbverify/internal/pipeline"
	"pfbverify/internal/runner"
)

// SynthesizeRequest describes one synthesizer call. Zero values take the
// configured filterbank settings; Deripple nil keeps the configured flag.
type SynthesizeRequest struct {
	Input          string
	InputFFTLength int
	InputOverlap   int
	FFTWindow      string
	Deripple       *bool
	OutputFileName string
	OutputDir      string
}

// Synthesizer runs the synthesize tool.
type Synthesizer struct {
	base     *runner.Base
	binary   string
	backend  string
	fft      int
	overlap  int
	window   string
	deripple bool
}

// NewSynthesizer builds a Synthesizer from configuration.
func NewSynthesizer(cfg *config.Config, opts ...runner.Option) *Synthesizer {
	return &Synthesizer{
		base:     runner.NewBase("synthesize", opts...),
		binary:   cfg.BuildBinary("synthesize"),
		backend:  cfg.Backend.Synthesize,
		fft:      cfg.Filterbank.InputFFTLength,
		overlap:  cfg.Filterbank.InputOverlap,
		window:   cfg.Filterbank.FFTWindow,
		deripple: cfg.Filterbank.Deripple,
	}
}

// Synthesize runs the tool and loads the synthesized file.
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesizeRequest) (*pipeline.Artifact, error) {
	if err := requireBackend("synthesize", s.backend); err != nil {
		return nil, err
	}
	fft := req.InputFFTLength
	if fft <= 0 {
		fft = s.fft
	}
	overlap := req.InputOverlap
	if overlap <= 0 {
		overlap = s.overlap
	}
	window := req.FFTWindow
	if window == "" {
		window = s.window
	}
	if window == "" {
		window = "no_window"
	}
	deripple := s.deripple
	if req.Deripple != nil {
		deripple = *req.Deripple
	}
	names := NamesFor(req.OutputFileName, fmt.Sprintf("synthesize.%d", fft))

	state, err := s.base.Begin(runner.Request{FilePath: req.Input, OutputFileName: names.File, OutputDir: req.OutputDir})
	if err != nil {
		return nil, err
	}
	defer s.base.End()
	outputDir := outputDirOr(state.OutputDir, "")

	deripArg := "0"
	if deripple {
		deripArg = "1"
	}
	spec := runner.CommandSpec{
		Executable: s.binary,
		Args: []string{
			req.Input,
			strconv.Itoa(fft),
			names.File,
			outputDir,
			"1",
			"1",
			deripArg,
			strconv.Itoa(overlap),
			window,
		},
		LogFilePath: filepath.Join(outputDir, names.Log),
	}
	return runTool(ctx, s.base, spec, filepath.Join(outputDir, names.File))
}

// Stage adapts the synthesizer to the pipeline.
func (s *Synthesizer) Stage() pipeline.TransformFunc {
	return func(ctx context.Context, input string, out pipeline.Output) (*pipeline.Artifact, error) {
		return s.Synthesize(ctx, SynthesizeRequest{Input: input, OutputFileName: out.FileName, OutputDir: out.Dir})
	}
}
