package dspsr

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pfbverify/internal/dada"
	"pfbverify/internal/logging"
	"pfbverify/internal/services"
)

// DefaultDumpStage is the dspsr operation dumped when none is requested.
const DefaultDumpStage = "Detection"

// DumpRequest describes a dspsr run that dumps data before a named operation.
type DumpRequest struct {
	FoldRequest
	Stage string
}

// DumpResult holds the loaded stage dump and the dspsr outputs.
type DumpResult struct {
	Dump    *dada.File
	Archive string
	Log     string
}

func (r DumpResult) Forward() string { return r.DumpPath() }

// DumpPath returns the dump location, or "" when no dump was produced.
func (r DumpResult) DumpPath() string {
	if r.Dump == nil {
		return ""
	}
	return r.Dump.Path
}

func (r DumpResult) BackingPaths() []string {
	return []string{r.DumpPath(), r.Archive, r.Log}
}

// DumpRunner runs dspsr with -dump and relocates the fixed-name dump file.
type DumpRunner struct {
	fold         *FoldRunner
	defaultStage string
}

// NewDumpRunner wraps fold. defaultStage is used when a request names none.
func NewDumpRunner(fold *FoldRunner, defaultStage string) *DumpRunner {
	if strings.TrimSpace(defaultStage) == "" {
		defaultStage = DefaultDumpStage
	}
	return &DumpRunner{fold: fold, defaultStage: defaultStage}
}

// CapitalizeStage normalizes a dspsr operation name ("detection" -> "Detection").
func CapitalizeStage(stage string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(stage))
}

// DumpFileName is the name dspsr gives the dump in its working directory.
func DumpFileName(stage string) string {
	return "pre_" + stage + ".dump"
}

// Run executes dspsr, moves pre_<Stage>.dump to
// <output_dir>/pre_<Stage>.<output_base>.dump and loads it.
func (r *DumpRunner) Run(ctx context.Context, req DumpRequest) (DumpResult, error) {
	stage := req.Stage
	if strings.TrimSpace(stage) == "" {
		stage = r.defaultStage
	}
	stage = CapitalizeStage(stage)

	fold := req.FoldRequest
	fold.ExtraArgs = strings.TrimSpace(fold.ExtraArgs + " -dump " + stage)

	inv, err := r.fold.Start(ctx, fold)
	if err != nil {
		return DumpResult{}, err
	}
	st := inv.State()
	dumpPath := absPath(filepath.Join(st.OutputDir, "pre_"+stage+"."+st.OutputBase+".dump"))
	inv.logger.Debug("dumping before operation",
		logging.String("dump_stage", stage),
		logging.String("dump", dumpPath),
	)

	res, err := inv.Finish(ctx, MoveFile{From: r.fold.work.join(DumpFileName(stage)), To: dumpPath})
	out := DumpResult{Archive: res.Archive, Log: res.Log}
	if err != nil {
		return out, err
	}
	dump, err := dada.Load(dumpPath)
	if err != nil {
		if errors.Is(err, services.ErrMissingArtifact) {
			return out, err
		}
		return out, services.Wrap(services.ErrValidation, "dspsr", "load dump", dumpPath, err)
	}
	out.Dump = dump
	return out, nil
}
