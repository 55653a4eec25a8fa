package logs

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger. It discards everything until
	// Initialize is called, so tests and library use stay quiet.
	Logger = zap.NewNop().Sugar()
	base   = zap.NewNop()
	mu     sync.Mutex
)

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize points the logger at <logDir>/debug.log. The terminal UI owns
// stdout, so logs always go to a file. An empty logDir logs to stderr.
func Initialize(logDir, level string) error {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}
		logPath := filepath.Join(logDir, "debug.log")
		cfg.OutputPaths = []string{logPath}
		cfg.ErrorOutputPaths = []string{logPath}
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	_ = base.Sync()
	base = l.With(zap.String("service_name", "cardview"))
	Logger = base.Sugar()
	Logger.Debugw("logger initialized", "dir", logDir, "level", level)
	return nil
}

// Named returns a child logger tagged with a component name.
func Named(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return Logger.Named(name)
}

// Close flushes buffered log entries.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return base.Sync()
}

// Base returns the unsugared logger for components that log with typed fields.
func Base() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}
