package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"pfbverify/internal/dada"
	"pfbverify/internal/logging"
	"pfbverify/internal/services"
)

const (
	ChannelizedPrefix = "channelized."
	SynthesizedPrefix = "synthesized."
)

// Output names where a transform stage writes its artifact.
type Output struct {
	FileName string
	Dir      string
}

// Artifact is the output of one stage: the file it was asked to write, the
// log its tool wrote and, once loaded, the file contents. A stage that fails
// after its tool ran still returns the paths so they can be cleaned up.
type Artifact struct {
	Path string
	Log  string
	File *dada.File
}

// Loaded wraps a file that needs no tool log.
func Loaded(f *dada.File) *Artifact {
	return &Artifact{Path: f.Path, File: f}
}

func (a *Artifact) Forward() string {
	if a == nil {
		return ""
	}
	return a.Path
}

func (a *Artifact) BackingPaths() []string {
	if a == nil {
		return nil
	}
	var paths []string
	for _, p := range []string{a.Path, a.Log} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// GenerateFunc produces the initial artifact inside outputDir.
type GenerateFunc func(ctx context.Context, outputDir string) (*Artifact, error)

// TransformFunc processes the artifact at input and writes the result to out.
type TransformFunc func(ctx context.Context, input string, out Output) (*Artifact, error)

// Result holds every artifact produced by one pipeline run.
type Result struct {
	Input       *Artifact
	Channelized *Artifact
	Synthesized *Artifact
}

// Artifacts returns the artifacts in stage order.
func (r Result) Artifacts() []*Artifact {
	return []*Artifact{r.Input, r.Channelized, r.Synthesized}
}

// BackingPaths lists every artifact and tool log, so a Result can be disposed
// as a group.
func (r Result) BackingPaths() []string {
	var paths []string
	for _, a := range r.Artifacts() {
		paths = append(paths, a.BackingPaths()...)
	}
	return paths
}

// Pipeline runs generate, channelize and synthesize in sequence.
type Pipeline struct {
	generate   GenerateFunc
	channelize TransformFunc
	synthesize TransformFunc
	outputDir  string
	logger     *slog.Logger
}

// New composes the three stages. All artifacts are written to outputDir.
func New(generate GenerateFunc, channelize, synthesize TransformFunc, outputDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		generate:   generate,
		channelize: channelize,
		synthesize: synthesize,
		outputDir:  outputDir,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes the stages. On failure the artifacts produced before the
// failing stage are returned alongside the error so callers can dispose them.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	logger := logging.WithContext(ctx, p.logger)

	var name string
	run := Chain(
		func(ctx context.Context, _ string) (*Artifact, error) {
			input, err := p.generate(services.WithStage(ctx, "generate"), p.outputDir)
			res.Input = input
			if err != nil {
				return input, fmt.Errorf("generate: %w", err)
			}
			name = filepath.Base(input.Path)
			logger.Debug("test vector ready", logging.String("path", input.Path))
			return input, nil
		},
		func(ctx context.Context, input string) (*Artifact, error) {
			out, err := p.channelize(services.WithStage(ctx, "channelize"), input,
				Output{FileName: ChannelizedPrefix + name, Dir: p.outputDir})
			res.Channelized = out
			if err != nil {
				return out, fmt.Errorf("channelize: %w", err)
			}
			return out, nil
		},
		func(ctx context.Context, input string) (*Artifact, error) {
			out, err := p.synthesize(services.WithStage(ctx, "synthesize"), input,
				Output{FileName: SynthesizedPrefix + name, Dir: p.outputDir})
			res.Synthesized = out
			if err != nil {
				return out, fmt.Errorf("synthesize: %w", err)
			}
			return out, nil
		},
	)

	if _, err := run(ctx, ""); err != nil {
		return res, err
	}

	logger.Info("pipeline complete",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("input", res.Input.Path),
		logging.String("channelized", res.Channelized.Path),
		logging.String("synthesized", res.Synthesized.Path),
	)
	return res, nil
}

// Existing returns a generator that loads an artifact already on disk.
func Existing(path string) GenerateFunc {
	return func(context.Context, string) (*Artifact, error) {
		f, err := dada.Load(path)
		if err != nil {
			return nil, err
		}
		return Loaded(f), nil
	}
}
