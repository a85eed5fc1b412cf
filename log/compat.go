// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log is the mempool's logging façade: a thin re-export of
// github.com/luxfi/log (a log/slog-based structured logger), plus the
// handler constructors the debug CLI wires up at startup.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	luxlog "github.com/luxfi/log"
)

// Logger is re-exported from luxfi/log.
type Logger = luxlog.Logger

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

var (
	New  = luxlog.New
	Root = luxlog.Root
)

// Package-level convenience loggers, writing through the root logger.
func Trace(msg string, ctx ...interface{}) { luxlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { luxlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { luxlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { luxlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { luxlog.Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { luxlog.Root().Crit(msg, ctx...) }

// Enabled reports whether level would actually be emitted by the root
// logger's current handler.
func Enabled(ctx context.Context, level slog.Level) bool {
	return luxlog.Root().Enabled(ctx, level)
}

// SetDefault installs l as the logger the package-level helpers above
// delegate to.
func SetDefault(l Logger) {
	luxlog.SetDefault(l)
}

// NewLogger wraps an slog.Handler as a Logger.
func NewLogger(h slog.Handler) Logger {
	return luxlog.NewWithHandler(h)
}

// LvlFromString parses a level name such as "info" or "debug".
func LvlFromString(lvlString string) (slog.Level, error) {
	level, err := luxlog.ToLevel(lvlString)
	return slog.Level(level), err
}

// DiscardHandler discards every record; used by tests that don't want log
// noise on stderr.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

// NewTerminalHandlerWithLevel returns a GlogHandler writing human-readable
// lines to w at minLevel and above, colorized when w is an attached
// terminal.
func NewTerminalHandlerWithLevel(w *os.File, minLevel slog.Level, color bool) slog.Handler {
	out := io.Writer(w)
	if color && isatty.IsTerminal(w.Fd()) {
		out = colorable.NewColorable(w)
	}
	h := NewGlogHandler(slog.NewTextHandler(out, nil))
	h.Verbosity(minLevel)
	return h
}

// NewFileHandler returns a handler writing JSON lines to a lumberjack
// rotated file. mempoolctl has no flag that installs it.
func NewFileHandler(path string, maxSizeMB, maxBackups, maxAgeDays int) slog.Handler {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return slog.NewJSONHandler(w, nil)
}
