package dspsr_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pfbverify/internal/config"
	"pfbverify/internal/dspsr"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

func TestDiffRunnerMovesReport(t *testing.T) {
	work := t.TempDir()
	out := t.TempDir()
	var args []string
	exec := runner.ExecutorFunc(func(_ context.Context, spec runner.CommandSpec) (int, error) {
		args = spec.Args
		return 0, os.WriteFile(filepath.Join(spec.WorkingDir, "psrdiff.out"), []byte("diff"), 0o644)
	})
	diff := dspsr.NewDiffRunner("psrdiff", work, runner.WithExecutor(exec))

	res, err := diff.Run(context.Background(), dspsr.DiffRequest{
		Files:     []string{"/a/matlab.ar", "/b/dspsr.ar"},
		OutputDir: out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != filepath.Join(out, "matlab-dspsr.out") || res.Log != filepath.Join(out, "matlab-dspsr.log") {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(args) != 2 || args[0] != "/a/matlab.ar" {
		t.Fatalf("args = %q", args)
	}
	content, err := os.ReadFile(res.Output)
	if err != nil || string(content) != "diff" {
		t.Fatalf("report not moved: %q %v", content, err)
	}
}

func TestDiffRunnerMissingReport(t *testing.T) {
	exec := runner.ExecutorFunc(func(context.Context, runner.CommandSpec) (int, error) { return 0, nil })
	diff := dspsr.NewDiffRunner("", t.TempDir(), runner.WithExecutor(exec))
	_, err := diff.Run(context.Background(), dspsr.DiffRequest{Files: []string{"a.ar", "b.ar"}, OutputDir: t.TempDir()})
	if !errors.Is(err, services.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
}

func TestDiffRunnerRequiresTwoFiles(t *testing.T) {
	diff := dspsr.NewDiffRunner("", t.TempDir())
	if _, err := diff.Run(context.Background(), dspsr.DiffRequest{Files: []string{"a.ar"}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTextRunnerSeparatesStreams(t *testing.T) {
	dir := t.TempDir()
	var captured runner.CommandSpec
	exec := runner.ExecutorFunc(func(_ context.Context, spec runner.CommandSpec) (int, error) {
		captured = spec
		if err := os.WriteFile(spec.StdoutPath, []byte("0 0 1.5\n0 1 2.5\n\n"), 0o644); err != nil {
			return -1, err
		}
		return 0, nil
	})
	text := dspsr.NewTextRunner("psrtxt", runner.WithExecutor(exec))
	res, err := text.Run(context.Background(), runner.Request{FilePath: filepath.Join(dir, "pulsar.ar")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Text != filepath.Join(dir, "pulsar.txt") || captured.LogFilePath != filepath.Join(dir, "pulsar.log") {
		t.Fatalf("unexpected result %+v / %+v", res, captured)
	}

	cols, err := dspsr.LoadText(res.Text)
	if err != nil {
		t.Fatalf("LoadText: %v", err)
	}
	if len(cols) != 3 || len(cols[2]) != 2 || cols[2][1] != 2.5 || cols[1][1] != 1 {
		t.Fatalf("unexpected columns %v", cols)
	}
}

func TestLoadTextRejectsRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte("1 2\n3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := dspsr.LoadText(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFindInLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dspsr.log")
	content := "InverseFilterbank: input_fft_length=1792 \noutput_fft_length=229376 \nnchan=8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	vals, err := dspsr.FindInLog(path, "output_fft_length")
	if err != nil {
		t.Fatalf("FindInLog: %v", err)
	}
	if vals[0] != "229376" {
		t.Fatalf("value = %q, want 229376", vals[0])
	}

	vals, err = dspsr.FindInLog(path, "input_fft_length", "nchan")
	if err != nil {
		t.Fatalf("FindInLog: %v", err)
	}
	if vals[0] != "1792" || vals[1] != "8" {
		t.Fatalf("values = %q", vals)
	}

	if _, err := dspsr.FindInLog(path, "absent_key"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLogScannerCustomSeparators(t *testing.T) {
	scanner := dspsr.LogScanner{Sep: ":", Delimiter: ","}
	got, err := scanner.Find("nchan: 8, npol: 2", "npol")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != " 2" {
		t.Fatalf("value = %q", got)
	}
}

func TestToolboxBuildsOneRunnerPerType(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	reg := runner.NewRegistry()

	first := dspsr.NewToolbox(reg, &cfg)
	second := dspsr.NewToolbox(reg, &cfg)
	if first.Fold != second.Fold || first.Dump != second.Dump || first.Diff != second.Diff || first.Text != second.Text {
		t.Fatal("toolboxes from one registry must share runner instances")
	}
	if reg.Len() != 4 {
		t.Fatalf("registry holds %d runner types, want 4", reg.Len())
	}
	if first.Fold.WorkDir() != cfg.Paths.WorkDir {
		t.Fatalf("work dir = %s", first.Fold.WorkDir())
	}
}
