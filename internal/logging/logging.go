// Package logging builds the shared structured logger.
// Security events (violations, audit failures) go through the same sink
// as operational messages so one file carries the whole story.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	// File is the log file path. Empty means stderr only.
	File string
	// Debug lowers the level to debug.
	Debug bool
	// JSON switches the console encoder to JSON output.
	JSON bool
}

// New creates a leveled logger. When a file path is given, output is
// rotated at 10 MB with 3 backups kept.
func New(opts Options) *zap.Logger {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), level),
	}

	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		fileEnc := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(rotated), level))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// Nop returns a logger that discards everything. Used in tests and as the
// default when callers pass nil.
func Nop() *zap.Logger {
	return zap.NewNop()
}
