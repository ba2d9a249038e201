package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pfbverify/internal/config"
	"pfbverify/internal/reportstore"
	"pfbverify/internal/services"
	"pfbverify/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithDirectories()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "pfbverify.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
build_dir = %q
config_dir = %q
data_dir = %q
products_dir = %q
work_dir = %q
log_dir = %q

[filterbank]
fir_filter_coeff_file_path = %q
header_file_path = %q

[dspsr]
dm = %g
period = %g

[logging]
format = "json"
level = "error"

[profiles.high]
input_fft_length = 14336
input_overlap = 1792
`,
		cfg.Paths.BuildDir,
		cfg.Paths.ConfigDir,
		cfg.Paths.DataDir,
		cfg.Paths.ProductsDir,
		cfg.Paths.WorkDir,
		cfg.Paths.LogDir,
		cfg.Filterbank.FIRFilterCoeffFilePath,
		cfg.Filterbank.HeaderFilePath,
		cfg.Dspsr.DM,
		cfg.Dspsr.Period,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "12544")

	out, _, err = runCLI(t, []string{"--profile", "high", "config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate high: %v", err)
	}
	requireContains(t, out, "Profile: high")
	requireContains(t, out, "100352")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestConfigValidateRejectsUnknownProfile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--profile", "nope", "config", "validate"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithBuildTools(), testsupport.WithStubbedBinaries())
	testsupport.WriteFile(t, env.cfg.FIRFilterPath(), 8)
	testsupport.WriteFile(t, env.cfg.HeaderTemplatePath(), 8)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "generate_test_vector")
	requireContains(t, out, "ok")
}

func TestDoctorReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	requireContains(t, out, "FAILED")
	if services.ExitCode(err) != 2 {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
}

func TestVerifyRequiresSuite(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"verify"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestReportsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"reports", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("reports list: %v", err)
	}
	requireContains(t, out, "No verification runs recorded")

	store := testsupport.MustOpenStore(t, env.cfg)
	err = store.SaveRun(context.Background(), reportstore.Run{
		ID:             "run-abc",
		StartedAt:      time.Now(),
		FinishedAt:     time.Now(),
		OSFactor:       "8/7",
		Channels:       8,
		InputFFTLength: 1792,
		InputOverlap:   224,
		Threshold:      1e-7,
		Status:         reportstore.StatusPassed,
		Cases:          []reportstore.Case{{Suite: "time", Label: "offset=1618", Mean: 1, Passed: true}},
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	out, _, err = runCLI(t, []string{"reports", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("reports list: %v", err)
	}
	requireContains(t, out, "run-abc")
	requireContains(t, out, "1/1")

	out, _, err = runCLI(t, []string{"reports", "show", "run-abc"}, env.configPath)
	if err != nil {
		t.Fatalf("reports show: %v", err)
	}
	requireContains(t, out, "offset=1618")

	if _, _, err := runCLI(t, []string{"reports", "show", "missing"}, env.configPath); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindInLog(t *testing.T) {
	log := filepath.Join(t.TempDir(), "dspsr.log")
	if err := os.WriteFile(log, []byte("nchan=8 output_fft_length=229376 \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"find-in-log", log, "output_fft_length", "nchan"}, "")
	if err != nil {
		t.Fatalf("find-in-log: %v", err)
	}
	requireContains(t, out, "output_fft_length=229376")
	requireContains(t, out, "nchan=8")

	if _, _, err := runCLI(t, []string{"find-in-log", log, "missing_key"}, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFoldWithStubDspsr(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("dspsr"))
	input := filepath.Join(env.cfg.Paths.DataDir, "channelized.impulse.dump")
	testsupport.WriteDump(t, input, []complex64{1, 2})

	out, _, err := runCLI(t, []string{"fold", input}, env.configPath)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	requireContains(t, out, filepath.Join(env.cfg.Paths.DataDir, "channelized.impulse.ar"))
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.DataDir, "dspsr.channelized.impulse.log")); err != nil {
		t.Fatalf("expected dspsr log: %v", err)
	}
}
