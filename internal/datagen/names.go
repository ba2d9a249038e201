package datagen

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pfbverify/internal/dada"
	"pfbverify/internal/pipeline"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// BackendMatlab is the only backend whose tools can be executed.
const BackendMatlab = "matlab"

const dumpExt = ".dump"

// OutputNames are the file names one tool call writes.
type OutputNames struct {
	Base string
	File string
	Log  string
}

// NamesFor derives the output names. An override file name wins and its base
// is the name without extension; otherwise defaultBase plus ".dump" is used.
func NamesFor(override, defaultBase string) OutputNames {
	base := defaultBase
	file := defaultBase + dumpExt
	if name := strings.TrimSpace(override); name != "" {
		file = name
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return OutputNames{Base: base, File: file, Log: base + ".log"}
}

func requireBackend(stage, backend string) error {
	if backend != BackendMatlab {
		return services.Wrap(services.ErrConfiguration, stage, "backend",
			fmt.Sprintf("unsupported backend %q", backend), nil)
	}
	return nil
}

func formatArgs(args []float64, sep string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%.3f", a)
	}
	return strings.Join(parts, sep)
}

func outputDirOr(dir, fallback string) string {
	if strings.TrimSpace(dir) != "" {
		return dir
	}
	if fallback == "" {
		return "."
	}
	return fallback
}

// runTool executes spec and loads the file it was asked to write. The output
// and log paths are returned even when the tool or the load fails.
func runTool(ctx context.Context, base *runner.Base, spec runner.CommandSpec, output string) (*pipeline.Artifact, error) {
	art := &pipeline.Artifact{Path: output, Log: spec.LogFilePath}
	if err := base.Execute(ctx, spec); err != nil {
		return art, err
	}
	f, err := dada.Load(output)
	if err != nil {
		return art, err
	}
	art.File = f
	return art, nil
}
