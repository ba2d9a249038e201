package datagen

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"pfbverify/internal/config"
	"pfbverify/internal/pipeline"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// Domain selects the kind of test vector.
type Domain string

const (
	DomainTime Domain = "time"
	DomainFreq Domain = "freq"
)

// Handler returns the generator function the tool dispatches on.
func (d Domain) Handler() (string, error) {
	switch d {
	case DomainTime:
		return "time_domain_impulse", nil
	case DomainFreq:
		return "complex_sinusoid", nil
	default:
		return "", services.Wrap(services.ErrValidation, "generate", "domain",
			fmt.Sprintf("unknown domain %q", string(d)), nil)
	}
}

// DefaultDType is the sample precision passed to the generator.
const DefaultDType = "single"

// ImpulseArgs are the generator arguments for an impulse at offset.
func ImpulseArgs(offset int) []float64 {
	return []float64{float64(offset), 1}
}

// SinusoidArgs are the generator arguments for a tone at bin freq.
func SinusoidArgs(freq int) []float64 {
	return []float64{float64(freq), math.Pi / 4, 0}
}

// GenerateRequest describes one test vector.
type GenerateRequest struct {
	Domain         Domain
	NBins          int
	Args           []float64
	NPol           int
	DType          string
	HeaderTemplate string
	OutputFileName string
	OutputDir      string
}

// Generator runs the generate_test_vector tool.
type Generator struct {
	base           *runner.Base
	binary         string
	backend        string
	headerTemplate string
}

// NewGenerator builds a Generator from configuration.
func NewGenerator(cfg *config.Config, opts ...runner.Option) *Generator {
	return &Generator{
		base:           runner.NewBase("generate", opts...),
		binary:         cfg.BuildBinary("generate_test_vector"),
		backend:        cfg.Backend.TestVectors,
		headerTemplate: cfg.HeaderTemplatePath(),
	}
}

// DefaultBase names a test vector when no override is given.
func DefaultBase(handler string, req GenerateRequest) string {
	return fmt.Sprintf("%s.%d.%s.%d.%s.%s",
		handler, req.NBins, formatArgs(req.Args, "-"), req.NPol, req.DType, BackendMatlab)
}

// Generate runs the tool and loads the resulting file.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*pipeline.Artifact, error) {
	if err := requireBackend("generate", g.backend); err != nil {
		return nil, err
	}
	handler, err := req.Domain.Handler()
	if err != nil {
		return nil, err
	}
	if req.NBins <= 0 {
		return nil, services.Wrap(services.ErrValidation, "generate", "n_bins", "must be positive", nil)
	}
	if req.NPol <= 0 {
		req.NPol = 1
	}
	if req.DType == "" {
		req.DType = DefaultDType
	}
	header := req.HeaderTemplate
	if header == "" {
		header = g.headerTemplate
	}
	names := NamesFor(req.OutputFileName, DefaultBase(handler, req))
	outputDir := outputDirOr(req.OutputDir, "")

	if _, err := g.base.Begin(runner.Request{OutputFileName: names.File, OutputDir: outputDir}); err != nil {
		return nil, err
	}
	defer g.base.End()

	spec := runner.CommandSpec{
		Executable: g.binary,
		Args: []string{
			handler,
			strconv.Itoa(req.NBins),
			formatArgs(req.Args, ","),
			req.DType,
			strconv.Itoa(req.NPol),
			header,
			names.File,
			outputDir,
			"1",
		},
		LogFilePath: filepath.Join(outputDir, names.Log),
	}
	return runTool(ctx, g.base, spec, filepath.Join(outputDir, names.File))
}

// Stage adapts the generator to the first pipeline stage.
func (g *Generator) Stage(req GenerateRequest) pipeline.GenerateFunc {
	return func(ctx context.Context, outputDir string) (*pipeline.Artifact, error) {
		r := req
		r.OutputDir = outputDir
		return g.Generate(ctx, r)
	}
}
