// Package logging builds the zap loggers used by the coordinator and worker
// processes. Each process logs to stderr and, when a log directory is
// configured, to a per-process file such as output/logs/worker_8082.log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a named production logger. If dir is non-empty the logger also
// writes to <dir>/<name>.log, creating the directory as needed. File setup
// failures are not fatal; the process continues with stderr only.
func New(name, dir string) (*zap.Logger, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), zap.InfoLevel),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "logging: cannot create %s: %v\n", dir, err)
		} else {
			path := filepath.Join(dir, name+".log")
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "logging: cannot open %s: %v\n", path, err)
			} else {
				cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(f), zap.InfoLevel))
			}
		}
	}

	return zap.New(zapcore.NewTee(cores...)).Named(name), nil
}

// Startup logs the banner every process emits first, matching across the
// coordinator and workers so log collection can line processes up.
func Startup(log *zap.Logger, role, mode, version string) {
	log.Info("process starting",
		zap.String("role", role),
		zap.String("deployment_mode", mode),
		zap.String("version", version),
		zap.Int("pid", os.Getpid()),
	)
}
