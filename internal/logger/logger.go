// Copyright 2026 The Capisuite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is the concrete form of spec §6's "two opaque byte sinks,
// debug and error, with a log level": a slog-backed leveled logger with
// five severities and text/json output, file sinks rotated through
// lumberjack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severities, widest first. capisuite's numeric log-level 0-3 maps onto a
// subset of these (see LevelForConfig).
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(100)
)

var severityNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
}

// LevelForConfig maps spec §6's 0-3 log-level range onto a slog.Level: 0 is
// errors only, 3 is everything including TRACE.
func LevelForConfig(n int) slog.Level {
	switch {
	case n <= 0:
		return LevelError
	case n == 1:
		return LevelWarn
	case n == 2:
		return LevelInfo
	default:
		return LevelTrace
	}
}

// loggerFactory owns the writer(s), format, and level for one sink and
// knows how to rebuild the underlying *slog.Logger when any of those
// change, mirroring the teacher's internal/logger factory.
type loggerFactory struct {
	file       *lumberjack.Logger
	sysWriter  io.Writer
	format     string // "text" or "json"
	level      *slog.LevelVar
	namePrefix string
}

func newFactory(prefix string) *loggerFactory {
	lv := new(slog.LevelVar)
	lv.Set(LevelInfo)
	return &loggerFactory{sysWriter: os.Stderr, format: "text", level: lv, namePrefix: prefix}
}

func (f *loggerFactory) writer() io.Writer {
	if f.file != nil {
		return f.file
	}
	return f.sysWriter
}

func (f *loggerFactory) build() *slog.Logger {
	return slog.New(f.createJsonOrTextHandler(f.writer(), f.level, f.namePrefix))
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				lvl, _ := a.Value.Any().(slog.Level)
				name, ok := severityNames[lvl]
				if !ok {
					name = lvl.String()
				}
				return slog.String("severity", name)
			case slog.MessageKey:
				return slog.String("message", prefix+a.Value.String())
			}
			return a
		},
	}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

var (
	debugFactory  = newFactory("")
	errorFactory  = newFactory("")
	defaultLogger = debugFactory.build()
	errorLogger   = errorFactory.build()
)

// SetLogFormat switches the output format ("text" or "json"; an empty
// string selects json, any other value text) for the debug sink and
// rebuilds it.
func SetLogFormat(format string) {
	if format == "" {
		format = "json"
	}
	debugFactory.format = format
	defaultLogger = debugFactory.build()
}

// InitFileSinks opens the debug and error log files (lumberjack-rotated) and
// sets the configured level, per spec §6's log_file/error_log_file/log_level
// keys. Empty paths leave the sink on stderr.
func InitFileSinks(debugPath, errorPath string, level int) error {
	lvl := LevelForConfig(level)
	debugFactory.level.Set(lvl)
	errorFactory.level.Set(lvl)

	if debugPath != "" {
		debugFactory.file = &lumberjack.Logger{Filename: debugPath, MaxSize: 10, MaxBackups: 5, Compress: true}
	}
	if errorPath != "" {
		errorFactory.file = &lumberjack.Logger{Filename: errorPath, MaxSize: 10, MaxBackups: 5, Compress: true}
	}

	defaultLogger = debugFactory.build()
	errorLogger = errorFactory.build()
	return nil
}

func logAt(l *slog.Logger, level slog.Level, format string, args ...interface{}) {
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Tracef logs at the widest severity, reserved for per-message CAPI wire
// traces.
func Tracef(format string, args ...interface{}) { logAt(defaultLogger, LevelTrace, format, args...) }

// Debugf logs state-machine transitions and other operator diagnostics.
func Debugf(format string, args ...interface{}) { logAt(defaultLogger, LevelDebug, format, args...) }

// Infof logs lifecycle events (startup, listen masks applied, shutdown).
func Infof(format string, args ...interface{}) { logAt(defaultLogger, LevelInfo, format, args...) }

// Warnf logs recoverable per-operation failures.
func Warnf(format string, args ...interface{}) { logAt(defaultLogger, LevelWarn, format, args...) }

// Errorf logs to the error sink: driver errors that stop the reader or
// terminate a connection, and fatal startup failures.
func Errorf(format string, args ...interface{}) { logAt(errorLogger, LevelError, format, args...) }

// Info and Error are non-formatting conveniences matching the teacher's
// logger.Info(...) call sites that pass a single pre-built string.
func Info(msg string)  { logAt(defaultLogger, LevelInfo, "%s", msg) }
func Error(msg string) { logAt(errorLogger, LevelError, "%s", msg) }
