// Package logging builds the process logger. Console output goes to stderr
// so stdout stays reserved for the answer payload; debug runs additionally
// tee structured JSON to a per-run file under the data directory, which is
// what gets attached when reporting selector drift.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	runID     string
	runIDOnce sync.Once
)

// RunID returns the identifier shared by every logger in this invocation.
// It names the debug log file and is stamped on each file entry.
func RunID() string {
	runIDOnce.Do(func() {
		runID = uuid.NewString()[:8]
	})
	return runID
}

// New builds the process logger. When debug is false only warnings and
// errors reach stderr. When debug is true the console drops to debug level
// and a JSON file sink is added at <dataDir>/logs/<run-id>.log; if the file
// cannot be created the console core still works, so a full disk never
// blocks a query.
func New(debug bool, dataDir string) *zap.Logger {
	consoleLevel := zapcore.WarnLevel
	if debug {
		consoleLevel = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			consoleLevel,
		),
	}

	if debug {
		if fileCore, err := newFileCore(dataDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: debug log file unavailable: %v\n", err)
		} else {
			cores = append(cores, fileCore)
		}
	}

	log := zap.New(zapcore.NewTee(cores...))
	if debug {
		log = log.With(zap.String("run_id", RunID()))
	}
	return log
}

// newFileCore opens the per-run JSON sink under <dataDir>/logs.
func newFileCore(dataDir string) (zapcore.Core, error) {
	dir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, RunID()+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(file),
		zapcore.DebugLevel,
	), nil
}
