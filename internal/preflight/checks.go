package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"pfbverify/internal/config"
	"pfbverify/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that a configuration input exists and is readable.
func CheckFile(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the build-dir tools and the dspsr tool chain.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "generate_test_vector",
			Command:     cfg.BuildBinary("generate_test_vector"),
			Description: "Required for test vector generation",
		},
		{
			Name:        "channelize",
			Command:     cfg.BuildBinary("channelize"),
			Description: "Required for the reference channelizer",
		},
		{
			Name:        "synthesize",
			Command:     cfg.BuildBinary("synthesize"),
			Description: "Required for the reference inversion",
		},
		{
			Name:        "dspsr",
			Command:     cfg.Dspsr.Binary,
			Description: "Required for the production inversion",
		},
		{
			Name:        "psrdiff",
			Command:     cfg.Dspsr.PsrdiffBinary,
			Description: "Compares folded archives",
			Optional:    true,
		},
		{
			Name:        "psrtxt",
			Command:     cfg.Dspsr.PsrtxtBinary,
			Description: "Converts archives to text",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
