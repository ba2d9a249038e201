package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Executor runs a command to completion. A nonzero exit is reported through
// the exit code with a nil error; err is reserved for failures to start the
// process or to open its log destinations.
type Executor interface {
	Run(ctx context.Context, spec CommandSpec) (exitCode int, err error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, spec CommandSpec) (int, error)

func (f ExecutorFunc) Run(ctx context.Context, spec CommandSpec) (int, error) {
	return f(ctx, spec)
}

// NewExecutor returns the os/exec backed executor.
func NewExecutor() Executor {
	return commandExecutor{}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, spec CommandSpec) (int, error) {
	if spec.Executable == "" {
		return -1, errors.New("executable required")
	}
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...) //nolint:gosec
	cmd.Dir = spec.WorkingDir

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	var logWriter io.Writer = io.Discard
	if spec.LogFilePath != "" {
		logFile, err := createFile(spec.LogFilePath)
		if err != nil {
			return -1, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, logFile)
		logWriter = logFile
	}
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter

	if spec.StdoutPath != "" {
		outFile, err := createFile(spec.StdoutPath)
		if err != nil {
			return -1, fmt.Errorf("open stdout file: %w", err)
		}
		closers = append(closers, outFile)
		cmd.Stdout = outFile
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
