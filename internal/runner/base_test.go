package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

type recordingExecutor struct {
	specs []runner.CommandSpec
	code  int
	err   error
}

func (r *recordingExecutor) Run(_ context.Context, spec runner.CommandSpec) (int, error) {
	r.specs = append(r.specs, spec)
	return r.code, r.err
}

func TestBeginDerivesOutputNames(t *testing.T) {
	base := runner.NewBase("tool")
	state, err := base.Begin(runner.Request{FilePath: "/data/channelized.impulse.dump", ExtraArgs: " -IF 1:1792  -V"})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer base.End()

	if state.OutputDir != "/data" {
		t.Fatalf("output dir = %q, want /data", state.OutputDir)
	}
	if state.OutputBase != "channelized.impulse" {
		t.Fatalf("output base = %q", state.OutputBase)
	}
	if strings.Join(state.ExtraArgs, "|") != "-IF|1:1792|-V" {
		t.Fatalf("extra args = %q", state.ExtraArgs)
	}
}

func TestBeginHonoursOverrides(t *testing.T) {
	base := runner.NewBase("tool")
	state, err := base.Begin(runner.Request{FilePath: "/data/in.dump", OutputFileName: "custom.name.dump", OutputDir: "/out"})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer base.End()
	if state.OutputDir != "/out" || state.OutputBase != "custom.name" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestEndResetsState(t *testing.T) {
	base := runner.NewBase("tool")
	if _, err := base.Begin(runner.Request{FilePath: "/a/first.dump"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	base.End()
	if !base.State().IsZero() {
		t.Fatalf("state not reset: %+v", base.State())
	}

	state, err := base.Begin(runner.Request{FilePath: "/b/second.dump"})
	if err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	defer base.End()
	if state.OutputBase != "second" || state.OutputDir != "/b" {
		t.Fatalf("second call observed stale state: %+v", state)
	}
}

func TestBeginRejectsReentry(t *testing.T) {
	base := runner.NewBase("tool")
	if _, err := base.Begin(runner.Request{FilePath: "x.dump"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer base.End()
	if _, err := base.Begin(runner.Request{FilePath: "y.dump"}); !errors.Is(err, services.ErrRunnerBusy) {
		t.Fatalf("expected ErrRunnerBusy, got %v", err)
	}
}

func TestExecuteNonzeroExitIsExternalToolFailure(t *testing.T) {
	exec := &recordingExecutor{code: 2}
	base := runner.NewBase("dspsr", runner.WithExecutor(exec))
	err := base.Execute(context.Background(), runner.CommandSpec{Executable: "dspsr", Args: []string{"-c", "0.1"}})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "dspsr -c 0.1") {
		t.Fatalf("error should carry the command line, got %v", err)
	}
	if len(exec.specs) != 1 {
		t.Fatalf("expected a single execution, got %d", len(exec.specs))
	}
}

func TestExecuteStartFailureIsExternalToolFailure(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("no such file")}
	base := runner.NewBase("dspsr", runner.WithExecutor(exec))
	if err := base.Execute(context.Background(), runner.CommandSpec{Executable: "dspsr"}); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestFileBase(t *testing.T) {
	cases := []struct {
		path, override, want string
	}{
		{"/a/b/file.dump", "", "file"},
		{"/a/b/file.tar.gz", "", "file.tar"},
		{"/a/b/file.dump", "synthesized.file.dump", "synthesized.file"},
		{"noext", "", "noext"},
	}
	for _, tc := range cases {
		if got := runner.FileBase(tc.path, tc.override); got != tc.want {
			t.Fatalf("FileBase(%q, %q) = %q, want %q", tc.path, tc.override, got, tc.want)
		}
	}
}

func TestCommandSpecString(t *testing.T) {
	spec := runner.CommandSpec{Executable: "psrdiff", Args: []string{"a b.ar", "c.ar"}}
	if got := spec.String(); got != "psrdiff 'a b.ar' c.ar" {
		t.Fatalf("String() = %q", got)
	}
}

func TestCommandExecutorCapturesOutput(t *testing.T) {
	sh, err := lookShell()
	if err != nil {
		t.Skip(err)
	}
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "tool.log")
	code, err := runner.NewExecutor().Run(context.Background(), runner.CommandSpec{
		Executable:  sh,
		Args:        []string{"-c", "echo out; echo err 1>&2; exit 3"},
		WorkingDir:  dir,
		LogFilePath: logPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "out") || !strings.Contains(string(content), "err") {
		t.Fatalf("log missing output: %q", content)
	}
}

func TestCommandExecutorSeparatesStdout(t *testing.T) {
	sh, err := lookShell()
	if err != nil {
		t.Skip(err)
	}
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tool.log")
	outPath := filepath.Join(dir, "tool.txt")
	code, err := runner.NewExecutor().Run(context.Background(), runner.CommandSpec{
		Executable:  sh,
		Args:        []string{"-c", "echo data; echo warn 1>&2"},
		LogFilePath: logPath,
		StdoutPath:  outPath,
	})
	if err != nil || code != 0 {
		t.Fatalf("Run: code=%d err=%v", code, err)
	}
	out, _ := os.ReadFile(outPath)
	logContent, _ := os.ReadFile(logPath)
	if strings.TrimSpace(string(out)) != "data" {
		t.Fatalf("stdout file = %q", out)
	}
	if strings.TrimSpace(string(logContent)) != "warn" {
		t.Fatalf("log file = %q", logContent)
	}
}

func lookShell() (string, error) {
	for _, candidate := range []string{"/bin/sh", "/usr/bin/sh"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.New("no POSIX shell available")
}
