package preflight

import (
	"pfbverify/internal/config"
	"pfbverify/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional failures are reported but do not block a run.
	Optional bool
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Products directory", cfg.Paths.ProductsDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckFile("FIR filter coefficients", cfg.FIRFilterPath()),
		CheckFile("Header template", cfg.HeaderTemplatePath()),
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(s deps.Status) Result {
	r := Result{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: s.Command}
	if !s.Available {
		r.Detail = s.Detail
	}
	return r
}
