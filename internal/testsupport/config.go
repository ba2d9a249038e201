package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pfbverify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The required filter, header and pulsar fields are filled so the result
// validates, and any provided options are applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BuildDir = filepath.Join(base, "build")
	cfgVal.Paths.ConfigDir = filepath.Join(base, "config")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ProductsDir = filepath.Join(base, "products")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Filterbank.FIRFilterCoeffFilePath = "OS_Prototype_FIR_8.mat"
	cfgVal.Filterbank.HeaderFilePath = "default_header.json"
	cfgVal.Dspsr.DM = 2.64476
	cfgVal.Dspsr.Period = 0.00575745
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDirectories creates every configured directory.
func WithDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
		for _, dir := range []string{b.cfg.Paths.BuildDir, b.cfg.Paths.ConfigDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				b.t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
	}
}

// WithFilterbank overrides the filterbank settings.
func WithFilterbank(fn func(*config.Filterbank)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Filterbank)
	}
}

// WithBuildTools writes stub executables for the MATLAB-compiled tools into
// the build directory. If names is empty, all three tools are stubbed.
func WithBuildTools(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"generate_test_vector", "channelize", "synthesize"}
		}
		writeStubs(b.t, b.cfg.Paths.BuildDir, names)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the dspsr tools are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"dspsr", "psrdiff", "psrtxt"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		writeStubs(b.t, binDir, names)

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

func writeStubs(t testing.TB, dir string, names []string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range names {
		target := filepath.Join(dir, name)
		if err := os.WriteFile(target, script, 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
