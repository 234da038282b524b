// Package logs bridges github.com/btcsuite/btclog's leveled logging
// backend to a rotating file writer, mirroring the role the teacher's own
// (not retrieved into this pack) daglabs/btcd/logs package played for
// logger.go: a Write that fans out to stdout and a log-rotator pipe, and
// is a safe no-op until a rotator has actually been attached.
package logs

import (
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

// maxRollFiles is the number of historical rotated log files kept,
// matching the teacher's logger.initLogRotator.
const maxRollFiles = 3

// rollSizeBytes is the size, in kilobytes, a log file grows to before
// rotation (rotator.New takes its threshold in KB, so this is 10 MiB).
const rollSizeBytes = 10 * 1024

// GatedWriter writes to stdout and an attached rotator, but is a harmless
// no-op until Attach has been called — this lets package-level loggers be
// constructed eagerly (as the teacher's logger.go does) before the
// application has decided on a log file path.
type GatedWriter struct {
	rotator *rotator.Rotator
}

// Write implements io.Writer.
func (w *GatedWriter) Write(p []byte) (int, error) {
	if w.rotator == nil {
		return len(p), nil
	}
	os.Stdout.Write(p)
	return w.rotator.Write(p)
}

// Attach opens a rotator at logFile and wires it into w. It must be called
// once, early during application startup, before log output is expected to
// reach disk.
func (w *GatedWriter) Attach(logFile string) (*rotator.Rotator, error) {
	dir := filepath.Dir(logFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	r, err := rotator.New(logFile, rollSizeBytes, false, maxRollFiles)
	if err != nil {
		return nil, err
	}
	w.rotator = r
	return r, nil
}
