package dspsr

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"pfbverify/internal/fileutil"
	"pfbverify/internal/logging"
	"pfbverify/internal/services"
)

const (
	lockFileName        = ".pfbverify.lock"
	defaultStrayPattern = "*.dat"
)

// workDir is the directory the tools run in. It is shared by every runner.
type workDir struct {
	path         string
	strayPattern string
}

func newWorkDir(path, strayPattern string) workDir {
	if path == "" {
		path = "."
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if strayPattern == "" {
		strayPattern = defaultStrayPattern
	}
	return workDir{path: path, strayPattern: strayPattern}
}

// acquire takes the work directory lock without blocking.
func (w workDir) acquire(stage string) (*flock.Flock, error) {
	if err := os.MkdirAll(w.path, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "prepare work dir", w.path, err)
	}
	lock := flock.New(filepath.Join(w.path, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrRunnerBusy, stage, "lock work dir", w.path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrRunnerBusy, stage, "lock work dir",
			"another invocation holds "+w.path, nil)
	}
	return lock, nil
}

// sweep deletes every stray file in the work directory, whichever run made it.
func (w workDir) sweep(logger *slog.Logger) {
	removed, err := fileutil.RemoveMatching(w.path, w.strayPattern)
	if err != nil {
		logger.Warn("stray file sweep incomplete",
			logging.String(logging.FieldEventType, "sweep_failed"),
			logging.String("work_dir", w.path),
			logging.Error(err),
		)
	}
	if len(removed) > 0 {
		logger.Debug("stray files removed",
			logging.String(logging.FieldEventType, "sweep"),
			logging.Strings("paths", removed),
		)
	}
}

// join resolves a tool-relative file name inside the work directory.
func (w workDir) join(name string) string {
	return filepath.Join(w.path, name)
}

func release(lock *flock.Flock, logger *slog.Logger) {
	if lock == nil {
		return
	}
	if err := lock.Unlock(); err != nil {
		logger.Warn("failed to release work dir lock", logging.Error(err))
	}
}

func absPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
