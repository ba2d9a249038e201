package datagen

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"pfbverify/internal/config"
	"pfbverify/internal/pipeline"
	"pfbverify/internal/rational"
	"pfbverify/internal/runner"
)

// ChannelizeRequest describes one channelizer call. Zero values take the
// configured filterbank settings.
type ChannelizeRequest struct {
	Input          string
	Channels       int
	OSFactor       rational.Ratio
	FIRFilterPath  string
	OutputFileName string
	OutputDir      string
	UsePadded      bool
}

// Channelizer runs the channelize tool.
type Channelizer struct {
	base     *runner.Base
	binary   string
	backend  string
	channels int
	osFactor rational.Ratio
	fir      string
}

// NewChannelizer builds a Channelizer from configuration.
func NewChannelizer(cfg *config.Config, opts ...runner.Option) *Channelizer {
	return &Channelizer{
		base:     runner.NewBase("channelize", opts...),
		binary:   cfg.BuildBinary("channelize"),
		backend:  cfg.Backend.Channelize,
		channels: cfg.Filterbank.Channels,
		osFactor: cfg.OSFactor(),
		fir:      cfg.FIRFilterPath(),
	}
}

// Channelize runs the tool and loads the channelized file.
func (c *Channelizer) Channelize(ctx context.Context, req ChannelizeRequest) (*pipeline.Artifact, error) {
	if err := requireBackend("channelize", c.backend); err != nil {
		return nil, err
	}
	channels := req.Channels
	if channels <= 0 {
		channels = c.channels
	}
	osFactor := req.OSFactor
	if osFactor.Denominator == 0 {
		osFactor = c.osFactor
	}
	fir := req.FIRFilterPath
	if fir == "" {
		fir = c.fir
	}
	names := NamesFor(req.OutputFileName, fmt.Sprintf("channelize.%d.%s", channels, osFactor.FileLabel()))

	state, err := c.base.Begin(runner.Request{FilePath: req.Input, OutputFileName: names.File, OutputDir: req.OutputDir})
	if err != nil {
		return nil, err
	}
	defer c.base.End()
	outputDir := outputDirOr(state.OutputDir, "")

	padded := "0"
	if req.UsePadded {
		padded = "1"
	}
	spec := runner.CommandSpec{
		Executable: c.binary,
		Args: []string{
			req.Input,
			strconv.Itoa(channels),
			osFactor.String(),
			fir,
			names.File,
			outputDir,
			"1",
			padded,
		},
		LogFilePath: filepath.Join(outputDir, names.Log),
	}
	return runTool(ctx, c.base, spec, filepath.Join(outputDir, names.File))
}

// Stage adapts the channelizer to the pipeline.
func (c *Channelizer) Stage() pipeline.TransformFunc {
	return func(ctx context.Context, input string, out pipeline.Output) (*pipeline.Artifact, error) {
		return c.Channelize(ctx, ChannelizeRequest{Input: input, OutputFileName: out.FileName, OutputDir: out.Dir})
	}
}
