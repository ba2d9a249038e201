package dspsr

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"pfbverify/internal/logging"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// psrdiff always writes its report to this file in its working directory.
const psrdiffDefaultOutput = "psrdiff.out"

// DiffRequest names the archives to compare.
type DiffRequest struct {
	Files []string
	// OutputFileName defaults to the input basenames joined with "-" plus ".out".
	OutputFileName string
	// OutputDir defaults to the current directory.
	OutputDir string
}

// DiffResult names the psrdiff report and its log.
type DiffResult struct {
	Output string
	Log    string
}

func (r DiffResult) Forward() string { return r.Output }

func (r DiffResult) BackingPaths() []string { return []string{r.Output, r.Log} }

// DiffRunner invokes psrdiff.
type DiffRunner struct {
	base   *runner.Base
	binary string
	work   workDir
}

// NewDiffRunner constructs a psrdiff runner sharing the dspsr work directory.
func NewDiffRunner(binary, workDir string, opts ...runner.Option) *DiffRunner {
	if binary == "" {
		binary = "psrdiff"
	}
	return &DiffRunner{
		base:   runner.NewBase("psrdiff", opts...),
		binary: binary,
		work:   newWorkDir(workDir, ""),
	}
}

// Run executes psrdiff and moves its report to the requested name.
func (r *DiffRunner) Run(ctx context.Context, req DiffRequest) (DiffResult, error) {
	if len(req.Files) < 2 {
		return DiffResult{}, services.Wrap(services.ErrValidation, "psrdiff", "run", "at least two archives required", nil)
	}
	outputName := req.OutputFileName
	if strings.TrimSpace(outputName) == "" {
		bases := make([]string, len(req.Files))
		for i, f := range req.Files {
			bases[i] = runner.FileBase(f, "")
		}
		outputName = strings.Join(bases, "-") + ".out"
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	state, err := r.base.Begin(runner.Request{FilePath: req.Files[0], OutputFileName: outputName, OutputDir: outputDir})
	if err != nil {
		return DiffResult{}, err
	}
	defer r.base.End()
	lock, err := r.work.acquire("psrdiff")
	if err != nil {
		return DiffResult{}, err
	}
	logger := logging.WithContext(ctx, r.base.Logger())
	defer release(lock, logger)

	result := DiffResult{
		Output: absPath(filepath.Join(state.OutputDir, outputName)),
		Log:    absPath(filepath.Join(state.OutputDir, state.OutputBase+".log")),
	}
	args := make([]string, len(req.Files))
	for i, f := range req.Files {
		args[i] = absPath(f)
	}
	spec := runner.CommandSpec{
		Executable:  r.binary,
		Args:        args,
		WorkingDir:  r.work.path,
		LogFilePath: result.Log,
	}
	if err := r.base.Execute(ctx, spec); err != nil {
		return result, err
	}
	move := MoveFile{From: r.work.join(psrdiffDefaultOutput), To: result.Output}
	if err := move.Run(ctx, r.base.Executor()); err != nil {
		if errors.Is(err, services.ErrMissingArtifact) {
			return result, err
		}
		return result, services.Wrap(services.ErrExternalTool, "psrdiff", "move report", move.String(), err)
	}
	return result, nil
}
