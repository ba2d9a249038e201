package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pfbverify/internal/datagen"
	"pfbverify/internal/dspsr"
	"pfbverify/internal/logging"
	"pfbverify/internal/runner"
	"pfbverify/internal/services"
)

// DefaultProcessFFTSize is the dspsr forward FFT length used when processing
// a test vector tree.
const DefaultProcessFFTSize = 16384

// ProcessTestVectors runs dspsr with a stage dump on the channelized file of
// every case directory under base/time and base/freq, and records the
// produced archive and dump names in each case's meta.json. It returns the
// dump paths keyed by domain.
func ProcessTestVectors(ctx context.Context, dumper Dumper, base string, fftSize int, logger *slog.Logger) (map[string][]string, error) {
	if fftSize <= 0 {
		fftSize = DefaultProcessFFTSize
	}
	logger = logging.NewComponentLogger(logger, "process")
	report := make(map[string][]string)
	for _, domain := range []datagen.Domain{datagen.DomainTime, datagen.DomainFreq} {
		domainDir := filepath.Join(base, string(domain))
		entries, err := os.ReadDir(domainDir)
		if err != nil {
			return report, services.Wrap(services.ErrMissingArtifact, "process", "read", domainDir, err)
		}
		report[string(domain)] = []string{}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			caseDir := filepath.Join(domainDir, entry.Name())
			dump, err := processCase(services.WithCase(ctx, string(domain)+"/"+entry.Name()), dumper, caseDir, fftSize, logger)
			if err != nil {
				return report, err
			}
			report[string(domain)] = append(report[string(domain)], dump)
		}
	}
	return report, nil
}

func processCase(ctx context.Context, dumper Dumper, dir string, fftSize int, logger *slog.Logger) (string, error) {
	logging.WithContext(ctx, logger).Debug("processing test vector", logging.String("dir", dir))
	meta, err := datagen.LoadMeta(dir)
	if err != nil {
		return "", err
	}
	if meta.ChannelizedFile == "" {
		return "", services.Wrap(services.ErrValidation, "process", "meta",
			fmt.Sprintf("%s has no channelized_file", filepath.Join(dir, datagen.MetaFileName)), nil)
	}
	res, err := dumper.Run(ctx, dspsr.DumpRequest{
		FoldRequest: dspsr.FoldRequest{Request: runner.Request{
			FilePath:  filepath.Join(dir, meta.ChannelizedFile),
			OutputDir: dir,
			ExtraArgs: fmt.Sprintf("-IF 1:%d", fftSize),
		}},
	})
	if err != nil {
		return "", err
	}
	meta.DspsrArchive = filepath.Base(res.Archive)
	meta.DspsrDump = filepath.Base(res.DumpPath())
	if err := datagen.SaveMeta(dir, meta); err != nil {
		return "", err
	}
	return res.DumpPath(), nil
}
