package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"pfbverify/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "fir.mat")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFile("fir", f); !r.Passed {
		t.Fatalf("expected pass: %s", r.Detail)
	}
	if r := CheckFile("fir", ""); r.Passed {
		t.Fatal("expected failure for unconfigured file")
	}
	if r := CheckFile("fir", filepath.Dir(f)); r.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReadyEnvironment(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithDirectories(),
		testsupport.WithBuildTools(),
		testsupport.WithStubbedBinaries(),
	)
	testsupport.WriteFile(t, cfg.FIRFilterPath(), 16)
	testsupport.WriteFile(t, cfg.HeaderTemplatePath(), 16)

	results := RunAll(cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if len(results) != 11 {
		t.Fatalf("expected 11 results, got %d", len(results))
	}
}

func TestRunAll_MissingBuildTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories(), testsupport.WithStubbedBinaries())
	testsupport.WriteFile(t, cfg.FIRFilterPath(), 16)
	testsupport.WriteFile(t, cfg.HeaderTemplatePath(), 16)

	failed := Failed(RunAll(cfg))
	if len(failed) != 3 {
		t.Fatalf("expected the three build tools to fail, got %+v", failed)
	}
}
