package dspsr

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pfbverify/internal/fileutil"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// FollowUp runs after a successful primary command, before the invocation
// is finalized.
type FollowUp interface {
	Run(ctx context.Context, exec runner.Executor) error
	String() string
}

// MoveFile relocates a fixed-name tool output to its run-specific path.
type MoveFile struct {
	From string
	To   string
}

// Run fails with ErrMissingArtifact when From was never written.
func (m MoveFile) Run(context.Context, runner.Executor) error {
	if _, err := os.Stat(m.From); errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrMissingArtifact, "dspsr", "follow-up",
			fmt.Sprintf("%s not written", m.From), err)
	}
	return fileutil.MoveFile(m.From, m.To)
}

func (m MoveFile) String() string {
	return fmt.Sprintf("mv %s %s", m.From, m.To)
}

// Command runs an arbitrary external command as the follow-up.
type Command struct {
	Spec runner.CommandSpec
}

func (c Command) Run(ctx context.Context, exec runner.Executor) error {
	code, err := exec.Run(ctx, c.Spec)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("exited with status %d", code)
	}
	return nil
}

func (c Command) String() string { return c.Spec.String() }

// FollowUpFunc adapts a callback to FollowUp.
type FollowUpFunc func(ctx context.Context) error

func (f FollowUpFunc) Run(ctx context.Context, _ runner.Executor) error { return f(ctx) }

func (f FollowUpFunc) String() string { return "callback" }
