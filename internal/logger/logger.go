// Package logger builds the structured loggers the dat tools hand to the
// reader core. The core reports recoverable container defects through
// that logger: a shadow table shorter than the settler table, index blocks
// with unknown category tags, animation records whose cross-file
// references dangle, and frame payloads that fail to decode. The binaries
// decide here where those reports go.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation bounds. Container diagnostics are bursty (one line
// per defective slot, and damaged files have many), so the file sink is
// capped rather than unbounded.
const (
	maxLogSizeMB  = 20
	maxLogBackups = 3
	maxLogAgeDays = 7
)

// Options selects the sinks and verbosity of a tool logger.
type Options struct {
	// Level is the minimum level to record: debug, info, warn or error.
	// Empty or unrecognized values mean info.
	Level string
	// File, when set, mirrors entries into a lumberjack-rotated log file.
	File string
	// Console, when set, writes colored entries to stderr. Stderr keeps
	// dattool's stdout output pipeable.
	Console bool
}

// New builds a logger from the options. With neither sink selected the
// returned logger discards everything, which is what library-only callers
// want.
func New(opts Options) *zap.Logger {
	lvl := parseLevel(opts.Level)

	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, consoleCore(lvl))
	}
	if opts.File != "" {
		cores = append(cores, fileCore(opts.File, lvl))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func consoleCore(lvl zapcore.Level) zapcore.Core {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	})
	return zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), lvl)
}

func fileCore(path string, lvl zapcore.Level) zapcore.Core {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
		LocalTime:  true,
	}
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	})
	return zapcore.NewCore(encoder, zapcore.AddSync(writer), lvl)
}

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
