package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"pfbverify/internal/logging"
	"pfbverify/internal/services"
)

// Request carries the common arguments of a runner call.
type Request struct {
	FilePath string
	// OutputFileName overrides the input basename when deriving the output base.
	OutputFileName string
	// OutputDir defaults to the directory holding FilePath.
	OutputDir string
	ExtraArgs string
}

// State is the scratch state of one call. It is owned by a single Base and
// cleared when the call ends.
type State struct {
	OutputDir  string
	OutputBase string
	ExtraArgs  []string
}

// IsZero reports whether no call is in flight.
func (s State) IsZero() bool {
	return s.OutputDir == "" && s.OutputBase == "" && len(s.ExtraArgs) == 0
}

// Option configures a Base.
type Option func(*Base)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(b *Base) {
		if exec != nil {
			b.exec = exec
		}
	}
}

// WithLogger sets the logger used for command lines and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Base implements the call lifecycle shared by every tool runner.
type Base struct {
	name   string
	exec   Executor
	logger *slog.Logger

	mu    sync.Mutex
	busy  bool
	state State
}

// NewBase constructs a Base for the named tool.
func NewBase(name string, opts ...Option) *Base {
	b := &Base{name: name, exec: NewExecutor(), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, name)
	return b
}

// Name returns the tool name used for logging.
func (b *Base) Name() string { return b.name }

// Logger returns the component logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Begin marks the runner busy and installs the scratch state derived from req.
// Every successful Begin must be paired with End.
func (b *Base) Begin(req Request) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy {
		return State{}, services.Wrap(services.ErrRunnerBusy, b.name, "begin", "runner already has a call in flight", nil)
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(req.FilePath)
	}
	b.state = State{
		OutputDir:  outputDir,
		OutputBase: FileBase(req.FilePath, req.OutputFileName),
		ExtraArgs:  SplitArgs(req.ExtraArgs),
	}
	b.busy = true
	return b.state, nil
}

// End clears the scratch state so later calls cannot observe stale values.
func (b *Base) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = State{}
	b.busy = false
}

// State returns the scratch state of the call in flight.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs spec synchronously. A nonzero exit is logged with the full
// command line and returned as services.ErrExternalTool.
func (b *Base) Execute(ctx context.Context, spec CommandSpec) error {
	logger := logging.WithContext(ctx, b.logger)
	logger.Info("command started",
		logging.String(logging.FieldEventType, "command_start"),
		logging.String(logging.FieldCommand, spec.String()),
		logging.String("log_file", spec.LogFilePath),
	)
	code, err := b.exec.Run(ctx, spec)
	if err != nil {
		logger.Error("command could not run",
			logging.String(logging.FieldEventType, "command_failure"),
			logging.String(logging.FieldCommand, spec.String()),
			logging.Error(err),
		)
		return services.Wrap(services.ErrExternalTool, b.name, "execute", spec.String(), err)
	}
	if code != 0 {
		logger.Error("command exited with failure",
			logging.String(logging.FieldEventType, "command_failure"),
			logging.String(logging.FieldCommand, spec.String()),
			logging.Int("exit_code", code),
			logging.String("log_file", spec.LogFilePath),
		)
		return services.Wrap(services.ErrExternalTool, b.name, "execute",
			fmt.Sprintf("%s exited with status %d", spec.String(), code), nil)
	}
	logger.Debug("command finished",
		logging.String(logging.FieldEventType, "command_complete"),
		logging.String(logging.FieldCommand, spec.String()),
	)
	return nil
}

// Executor exposes the configured executor, for follow-up commands.
func (b *Base) Executor() Executor { return b.exec }

// FileBase returns the basename of outputFileName, or of filePath when no
// override is given, with its final extension removed.
func FileBase(filePath, outputFileName string) string {
	name := filepath.Base(filePath)
	if strings.TrimSpace(outputFileName) != "" {
		name = outputFileName
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
