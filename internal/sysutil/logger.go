package sysutil

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()
var LogSugar = Log.Sugar()

// InitLogger logs to stderr, since stdout carries the report. Warnings only
// by default, info with verbose, everything with debug.
func InitLogger(debug, verbose bool) {
	level := zap.WarnLevel
	switch {
	case debug:
		level = zap.DebugLevel
	case verbose:
		level = zap.InfoLevel
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if ColorEnabled(os.Stderr) {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config.EncoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
	opts := []zap.Option{}
	if debug {
		opts = append(opts, zap.AddCaller())
	}
	Log = zap.New(core, opts...)
	LogSugar = Log.Sugar()
}

// ColorEnabled reports whether f is a terminal.
func ColorEnabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
