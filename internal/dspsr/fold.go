package dspsr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"pfbverify/internal/logging"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// LogPrefix is prepended to the base name of the dspsr log.
const LogPrefix = "dspsr."

// Ephemeris carries the pulsar parameters passed to dspsr.
type Ephemeris struct {
	DM     float64
	Period float64
}

// FoldConfig configures a FoldRunner.
type FoldConfig struct {
	Binary    string
	Ephemeris Ephemeris
	WorkDir   string
	// StrayPattern is swept from WorkDir after every invocation. Defaults to *.dat.
	StrayPattern string
}

// FoldRequest describes one dspsr run.
type FoldRequest struct {
	runner.Request
	// Ephemeris overrides the configured DM and period when set.
	Ephemeris *Ephemeris
}

// FoldResult names the files produced by dspsr.
type FoldResult struct {
	Archive string
	Log     string
}

func (r FoldResult) Forward() string { return r.Archive }

func (r FoldResult) BackingPaths() []string { return []string{r.Archive, r.Log} }

// FoldRunner invokes dspsr.
type FoldRunner struct {
	base      *runner.Base
	binary    string
	ephemeris Ephemeris
	work      workDir
}

// NewFoldRunner constructs a dspsr runner.
func NewFoldRunner(cfg FoldConfig, opts ...runner.Option) *FoldRunner {
	binary := cfg.Binary
	if binary == "" {
		binary = "dspsr"
	}
	return &FoldRunner{
		base:      runner.NewBase("dspsr", opts...),
		binary:    binary,
		ephemeris: cfg.Ephemeris,
		work:      newWorkDir(cfg.WorkDir, cfg.StrayPattern),
	}
}

// WorkDir returns the directory dspsr runs in.
func (r *FoldRunner) WorkDir() string { return r.work.path }

// Run executes dspsr without a follow-up.
func (r *FoldRunner) Run(ctx context.Context, req FoldRequest) (FoldResult, error) {
	inv, err := r.Start(ctx, req)
	if err != nil {
		return FoldResult{}, err
	}
	return inv.Finish(ctx, nil)
}

// Start executes dspsr and returns the invocation awaiting its follow-up. It
// fails only when the invocation cannot begin; the outcome of dspsr itself is
// reported by Invocation.Err and Invocation.Finish. Every Invocation returned
// must be finished.
func (r *FoldRunner) Start(ctx context.Context, req FoldRequest) (*Invocation, error) {
	state, err := r.base.Begin(req.Request)
	if err != nil {
		return nil, err
	}
	lock, err := r.work.acquire("dspsr")
	if err != nil {
		r.base.End()
		return nil, err
	}

	eph := r.ephemeris
	if req.Ephemeris != nil {
		eph = *req.Ephemeris
	}
	outputBase := absPath(filepath.Join(state.OutputDir, state.OutputBase))
	// dspsr. keeps the log apart from the one written by the stage that
	// produced the input under the same base name.
	logPath := absPath(filepath.Join(state.OutputDir, LogPrefix+state.OutputBase+".log"))
	inv := &Invocation{
		runner:  r,
		state:   state,
		lock:    lock,
		phase:   PhaseStarted,
		archive: outputBase + ".ar",
		log:     logPath,
		logger:  logging.WithContext(ctx, r.base.Logger()),
	}

	args := []string{
		"-c", formatFloat(eph.Period),
		"-D", formatFloat(eph.DM),
		absPath(req.FilePath),
		"-O", outputBase,
	}
	args = append(args, state.ExtraArgs...)
	inv.spec = runner.CommandSpec{
		Executable:  r.binary,
		Args:        args,
		WorkingDir:  r.work.path,
		LogFilePath: inv.log,
	}
	inv.logger.Debug("dspsr outputs",
		logging.String("archive", inv.archive),
		logging.String("log", inv.log),
	)

	inv.runErr = r.base.Execute(ctx, inv.spec)
	inv.phase = PhaseAwaitingFollowUp
	return inv, nil
}

// Phase is the lifecycle position of an Invocation.
type Phase int

const (
	PhaseStarted Phase = iota
	PhaseAwaitingFollowUp
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseStarted:
		return "started"
	case PhaseAwaitingFollowUp:
		return "awaiting_follow_up"
	case PhaseFinished:
		return "finished"
	default:
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// Invocation is one dspsr execution paused between the primary command and
// finalization.
type Invocation struct {
	runner  *FoldRunner
	state   runner.State
	spec    runner.CommandSpec
	lock    *flock.Flock
	phase   Phase
	runErr  error
	archive string
	log     string
	logger  *slog.Logger
}

// Phase reports the current lifecycle phase.
func (inv *Invocation) Phase() Phase { return inv.phase }

// State returns the scratch state the invocation was started with.
func (inv *Invocation) State() runner.State { return inv.state }

// Command returns the primary command.
func (inv *Invocation) Command() runner.CommandSpec { return inv.spec }

// Err reports the primary command failure, if any.
func (inv *Invocation) Err() error { return inv.runErr }

// Finish runs followUp when the primary command succeeded, sweeps stray files
// from the work directory and releases the runner. followUp may be nil.
func (inv *Invocation) Finish(ctx context.Context, followUp FollowUp) (FoldResult, error) {
	if inv.phase != PhaseAwaitingFollowUp {
		return FoldResult{}, services.Wrap(services.ErrValidation, "dspsr", "finish",
			fmt.Sprintf("invocation is %s", inv.phase), nil)
	}
	r := inv.runner
	defer func() {
		inv.phase = PhaseFinished
		release(inv.lock, inv.logger)
		r.base.End()
	}()

	err := inv.runErr
	switch {
	case followUp == nil:
	case err != nil:
		inv.logger.Warn("follow-up skipped after dspsr failure",
			logging.String(logging.FieldEventType, "follow_up_skipped"),
			logging.String("follow_up", followUp.String()),
		)
	default:
		inv.logger.Debug("running follow-up", logging.String("follow_up", followUp.String()))
		if ferr := followUp.Run(ctx, r.base.Executor()); ferr != nil {
			if errors.Is(ferr, services.ErrMissingArtifact) {
				err = ferr
			} else {
				err = services.Wrap(services.ErrExternalTool, "dspsr", "follow-up", followUp.String(), ferr)
			}
		}
	}

	r.work.sweep(inv.logger)
	return FoldResult{Archive: inv.archive, Log: inv.log}, err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
