// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the structured logger used across the module. It is a thin layer over
// go-ethereum's slog based logger; loggers obtained through WithContext resolve the root
// logger lazily, so package level loggers follow a later SetDefault.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger is the logging interface.
type Logger = ethlog.Logger

// Log levels.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit

	// LegacyLevelInfo is the info level on the legacy 0..9 verbosity scale.
	LegacyLevelInfo = 3
)

// Root returns the root logger.
func Root() Logger {
	return ethlog.Root()
}

// SetDefault replaces the root logger.
func SetDefault(l Logger) {
	ethlog.SetDefault(l)
}

// NewLogger creates a logger writing to the given handler.
func NewLogger(h slog.Handler) Logger {
	return ethlog.NewLogger(h)
}

// NewTerminalHandlerWithLevel returns a human readable handler filtering below lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Leveler, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(wr, lvl.Level(), useColor)
}

// JSONHandler returns a handler emitting one json object per record.
func JSONHandler(wr io.Writer) slog.Handler {
	return ethlog.JSONHandler(wr)
}

// DiscardHandler returns a handler that drops every record.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

// FromLegacyLevel converts a 0..9 verbosity into a slog level.
func FromLegacyLevel(lvl int) slog.Level {
	return ethlog.FromLegacyLevel(lvl)
}

// WithContext returns a logger carrying the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root().Crit(msg, ctx...) }

// lazyLogger binds its context to whatever the root logger is at call time.
type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) logger() Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...any) Logger {
	return &lazyLogger{ctx: append(append([]any{}, l.ctx...), ctx...)}
}

func (l *lazyLogger) New(ctx ...any) Logger { return l.With(ctx...) }

func (l *lazyLogger) Log(level slog.Level, msg string, ctx ...any) {
	l.logger().Log(level, msg, ctx...)
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.logger().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.logger().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.logger().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.logger().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.logger().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...any)  { l.logger().Crit(msg, ctx...) }

func (l *lazyLogger) Write(level slog.Level, msg string, attrs ...any) {
	l.logger().Write(level, msg, attrs...)
}

func (l *lazyLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger().Enabled(ctx, level)
}

func (l *lazyLogger) Handler() slog.Handler {
	return l.logger().Handler()
}
