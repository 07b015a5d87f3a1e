// Package logutil configures slog for the runtime and adds a TRACE level
// below DEBUG for per-node evaluation records.
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace slog.Level = -8

// NewLogger returns a text logger writing to w at level, with TRACE rendered
// by name and source files trimmed to their base name.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// Level maps the debug setting to a log level: 0 is INFO, 1 DEBUG and
// anything higher TRACE.
func Level(debug int) slog.Level {
	switch {
	case debug <= 0:
		return slog.LevelInfo
	case debug == 1:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// Trace logs at LevelTrace on logger.
func Trace(logger *slog.Logger, msg string, args ...any) {
	trace(context.Background(), logger, msg, args...)
}

// TraceContext logs at LevelTrace on logger with ctx.
func TraceContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	trace(ctx, logger, msg, args...)
}

// trace attributes the record to the caller of Trace or TraceContext.
func trace(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}
