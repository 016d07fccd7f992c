package pack

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"replipack/domain/artefact"
	"replipack/domain/core"
)

// Writer serializes calibrated samples into the run directory. Each run owns
// its directory exclusively: the writer takes a lock file before touching
// anything and refuses to proceed when another run holds it.
type Writer struct {
	outDir    string
	overwrite bool
	logger    *zap.Logger
}

// NewWriter creates a writer for one run directory.
func NewWriter(outDir string, overwrite bool, logger *zap.Logger) *Writer {
	return &Writer{outDir: outDir, overwrite: overwrite, logger: logger}
}

// AcquireLock creates the exclusive lock file, failing fast on collision
// rather than interleaving writes with a concurrent run. The returned
// release function removes the lock.
func (w *Writer) AcquireLock() (func(), error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return nil, core.NewWriteError(w.outDir, err)
	}

	path := filepath.Join(w.outDir, lockFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrOutputCollision, w.outDir)
		}
		return nil, core.NewWriteError(path, err)
	}
	f.Close()

	return func() {
		if err := os.Remove(path); err != nil {
			w.logger.Warn("failed to remove run lock", zap.String("path", path), zap.Error(err))
		}
	}, nil
}

// WriteLevelCSV writes one level's calibrated samples: header "C", one value
// per row at the fixed precision, in generation order. Without overwrite an
// existing artefact is a collision, not a silent replacement.
func (w *Writer) WriteLevelCSV(level artefact.Level, samples []float64) (artefact.Artefact, error) {
	path := filepath.Join(w.outDir, level.Filename())

	if !w.overwrite {
		if _, err := os.Stat(path); err == nil {
			return artefact.Artefact{}, fmt.Errorf("%w: %s", core.ErrOutputCollision, path)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return artefact.Artefact{}, core.NewWriteError(path, err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if _, err := buf.WriteString("C\n"); err != nil {
		return artefact.Artefact{}, core.NewWriteError(path, err)
	}
	for _, v := range samples {
		if _, err := fmt.Fprintf(buf, "%.*f\n", artefact.CSVPrecision, v); err != nil {
			return artefact.Artefact{}, core.NewWriteError(path, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return artefact.Artefact{}, core.NewWriteError(path, err)
	}

	w.logger.Debug("wrote level artefact",
		zap.String("level", level.ID.String()),
		zap.String("path", path),
		zap.Int("samples", len(samples)))

	return artefact.Artefact{
		Filename:  level.Filename(),
		Path:      path,
		CreatedAt: core.Now(),
	}, nil
}

// Path resolves a filename inside the run directory.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.outDir, name)
}
