package dspsr_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pfbverify/internal/dada"
	"pfbverify/internal/dspsr"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// fakeDspsr imitates dspsr: it writes the log, leaves a stray .dat file in
// its working directory and, when -dump is requested, the fixed-name dump.
type fakeDspsr struct {
	t      *testing.T
	code   int
	noDump bool
	specs  []runner.CommandSpec
}

func (f *fakeDspsr) Run(_ context.Context, spec runner.CommandSpec) (int, error) {
	f.specs = append(f.specs, spec)
	if err := os.WriteFile(spec.LogFilePath, []byte("output_fft_length=229376 \n"), 0o644); err != nil {
		f.t.Fatalf("write log: %v", err)
	}
	if err := os.WriteFile(filepath.Join(spec.WorkingDir, "stray.dat"), nil, 0o644); err != nil {
		f.t.Fatalf("write stray: %v", err)
	}
	if idx := slices.Index(spec.Args, "-dump"); idx >= 0 && !f.noDump {
		h := dada.NewHeader()
		h.Set("NCHAN", "1")
		h.Set("NPOL", "1")
		dump := &dada.File{
			Path:   filepath.Join(spec.WorkingDir, dspsr.DumpFileName(spec.Args[idx+1])),
			Header: h,
			Data:   []complex64{1, 2, 3},
		}
		if err := dump.Write(); err != nil {
			f.t.Fatalf("write dump: %v", err)
		}
	}
	return f.code, nil
}

func newFold(t *testing.T, exec runner.Executor) (*dspsr.FoldRunner, string) {
	t.Helper()
	work := t.TempDir()
	fold := dspsr.NewFoldRunner(dspsr.FoldConfig{
		Binary:    "dspsr",
		Ephemeris: dspsr.Ephemeris{DM: 2.64476, Period: 0.00575745},
		WorkDir:   work,
	}, runner.WithExecutor(exec))
	return fold, work
}

func TestFoldRunBuildsCommand(t *testing.T) {
	exec := &fakeDspsr{t: t}
	fold, work := newFold(t, exec)
	out := t.TempDir()

	res, err := fold.Run(context.Background(), dspsr.FoldRequest{
		Request: runner.Request{FilePath: "/data/channelized.x.dump", OutputDir: out, ExtraArgs: "-IF 1:1792:224 -V"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Archive != filepath.Join(out, "channelized.x.ar") || res.Log != filepath.Join(out, "dspsr.channelized.x.log") {
		t.Fatalf("unexpected result %+v", res)
	}
	want := []string{"-c", "0.00575745", "-D", "2.64476", "/data/channelized.x.dump", "-O", filepath.Join(out, "channelized.x"), "-IF", "1:1792:224", "-V"}
	if got := exec.specs[0].Args; !slices.Equal(got, want) {
		t.Fatalf("args = %q\nwant %q", got, want)
	}
	if exec.specs[0].WorkingDir != work {
		t.Fatalf("working dir = %s, want %s", exec.specs[0].WorkingDir, work)
	}
	if _, err := os.Stat(filepath.Join(work, "stray.dat")); !os.IsNotExist(err) {
		t.Fatal("stray .dat file should be swept")
	}
}

func TestFoldEphemerisOverride(t *testing.T) {
	exec := &fakeDspsr{t: t}
	fold, _ := newFold(t, exec)
	_, err := fold.Run(context.Background(), dspsr.FoldRequest{
		Request:   runner.Request{FilePath: filepath.Join(t.TempDir(), "in.dump")},
		Ephemeris: &dspsr.Ephemeris{DM: 10, Period: 0.5},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := exec.specs[0].Args[:4]; !slices.Equal(got, []string{"-c", "0.5", "-D", "10"}) {
		t.Fatalf("args = %q", got)
	}
}

func TestFollowUpSkippedOnFailure(t *testing.T) {
	exec := &fakeDspsr{t: t, code: 1}
	fold, work := newFold(t, exec)
	target := filepath.Join(t.TempDir(), "moved")

	inv, err := fold.Start(context.Background(), dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(t.TempDir(), "in.dump")}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if inv.Phase() != dspsr.PhaseAwaitingFollowUp {
		t.Fatalf("phase = %s", inv.Phase())
	}
	if !errors.Is(inv.Err(), services.ErrExternalTool) {
		t.Fatalf("expected primary failure, got %v", inv.Err())
	}

	ran := false
	_, err = inv.Finish(context.Background(), dspsr.FollowUpFunc(func(context.Context) error {
		ran = true
		return os.WriteFile(target, nil, 0o644)
	}))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if ran {
		t.Fatal("follow-up must not run after a failed primary command")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("final artifact should be absent")
	}
	if _, err := os.Stat(filepath.Join(work, "stray.dat")); !os.IsNotExist(err) {
		t.Fatal("stray files must be swept even on failure")
	}
	if inv.Phase() != dspsr.PhaseFinished {
		t.Fatalf("phase = %s", inv.Phase())
	}
}

func TestFinishTwiceFails(t *testing.T) {
	fold, _ := newFold(t, &fakeDspsr{t: t})
	inv, err := fold.Start(context.Background(), dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(t.TempDir(), "in.dump")}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := inv.Finish(context.Background(), nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := inv.Finish(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestStartWhileInFlightIsBusy(t *testing.T) {
	fold, work := newFold(t, &fakeDspsr{t: t})
	inv, err := fold.Start(context.Background(), dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(t.TempDir(), "a.dump")}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := fold.Start(context.Background(), dspsr.FoldRequest{Request: runner.Request{FilePath: "b.dump"}}); !errors.Is(err, services.ErrRunnerBusy) {
		t.Fatalf("expected ErrRunnerBusy from the same runner, got %v", err)
	}

	other := dspsr.NewFoldRunner(dspsr.FoldConfig{WorkDir: work}, runner.WithExecutor(&fakeDspsr{t: t}))
	if _, err := other.Start(context.Background(), dspsr.FoldRequest{Request: runner.Request{FilePath: "c.dump"}}); !errors.Is(err, services.ErrRunnerBusy) {
		t.Fatalf("expected ErrRunnerBusy from a runner sharing the work dir, got %v", err)
	}

	if _, err := inv.Finish(context.Background(), nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := other.Run(context.Background(), dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(t.TempDir(), "c.dump")}}); err != nil {
		t.Fatalf("work dir should be free after Finish: %v", err)
	}
}

func TestDumpRunnerRelocatesAndLoadsDump(t *testing.T) {
	exec := &fakeDspsr{t: t}
	fold, work := newFold(t, exec)
	dumper := dspsr.NewDumpRunner(fold, "")
	out := t.TempDir()

	res, err := dumper.Run(context.Background(), dspsr.DumpRequest{
		FoldRequest: dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(out, "channelized.impulse.dump"), ExtraArgs: "-V"}},
		Stage:       "convolution",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := filepath.Join(out, "pre_Convolution.channelized.impulse.dump")
	if res.DumpPath() != want {
		t.Fatalf("dump path = %s, want %s", res.DumpPath(), want)
	}
	if len(res.Dump.Data) != 3 {
		t.Fatalf("dump not loaded: %+v", res.Dump)
	}
	args := exec.specs[0].Args
	if !strings.HasSuffix(strings.Join(args, " "), "-V -dump Convolution") {
		t.Fatalf("dump flag missing from %q", args)
	}
	if _, err := os.Stat(filepath.Join(work, "pre_Convolution.dump")); !os.IsNotExist(err) {
		t.Fatal("fixed-name dump should have been moved")
	}
}

func TestDumpRunnerFailureLeavesNoDump(t *testing.T) {
	fold, _ := newFold(t, &fakeDspsr{t: t, code: 255})
	out := t.TempDir()
	res, err := dspsr.NewDumpRunner(fold, "Detection").Run(context.Background(), dspsr.DumpRequest{
		FoldRequest: dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(out, "in.dump")}},
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if res.Dump != nil {
		t.Fatal("no dump expected after failure")
	}
	if _, err := os.Stat(filepath.Join(out, "pre_Detection.in.dump")); !os.IsNotExist(err) {
		t.Fatal("relocated dump must be absent after failure")
	}
}

func TestDumpRunnerMissingDumpAfterSuccess(t *testing.T) {
	fold, _ := newFold(t, &fakeDspsr{t: t, noDump: true})
	out := t.TempDir()
	res, err := dspsr.NewDumpRunner(fold, "Detection").Run(context.Background(), dspsr.DumpRequest{
		FoldRequest: dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(out, "in.dump")}},
	})
	if !errors.Is(err, services.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
	if errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("missing dump must not be reported as a tool failure: %v", err)
	}
	if code := services.ExitCode(err); code != 4 {
		t.Fatalf("exit code = %d, want 4", code)
	}
	if res.Dump != nil {
		t.Fatal("no dump expected")
	}
}

func TestSequentialCallsUseFreshState(t *testing.T) {
	exec := &fakeDspsr{t: t}
	fold, _ := newFold(t, exec)
	dumper := dspsr.NewDumpRunner(fold, "Detection")
	dirA, dirB := t.TempDir(), t.TempDir()

	first, err := dumper.Run(context.Background(), dspsr.DumpRequest{FoldRequest: dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(dirA, "first.dump")}}})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := dumper.Run(context.Background(), dspsr.DumpRequest{FoldRequest: dspsr.FoldRequest{Request: runner.Request{FilePath: filepath.Join(dirB, "second.dump")}}})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.DumpPath() == second.DumpPath() {
		t.Fatal("expected distinct artifacts")
	}
	if second.DumpPath() != filepath.Join(dirB, "pre_Detection.second.dump") {
		t.Fatalf("second dump = %s", second.DumpPath())
	}
	for _, p := range []string{first.DumpPath(), second.DumpPath()} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("artifact %s missing: %v", p, err)
		}
	}
}

func TestCapitalizeStage(t *testing.T) {
	for in, want := range map[string]string{"detection": "Detection", "CONVOLUTION": "Convolution", " Fold ": "Fold"} {
		if got := dspsr.CapitalizeStage(in); got != want {
			t.Fatalf("CapitalizeStage(%q) = %q, want %q", in, got, want)
		}
	}
}
