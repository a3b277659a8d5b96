// MIT License
//
// Copyright (c) 2022-2026 Arsene Tochemey Gandote
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package log defines the leveled logging sink used across the runtime.
// The configuration is fully carried by the constructed value: there is no
// process-wide mutable logging state.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level specifies the log level
type Level int

const (
	// InfoLevel indicates Info log level.
	InfoLevel Level = iota
	// WarningLevel indicates Warning log level.
	WarningLevel
	// ErrorLevel indicates Error log level.
	ErrorLevel
	// FatalLevel indicates Fatal log level.
	FatalLevel
	// DebugLevel indicates Debug log level.
	DebugLevel
)

// DefaultLogger represents the default Log to use.
// This Log wraps zap under the hood
var DefaultLogger = New(InfoLevel, os.Stderr)

// DiscardLogger is used not to output anything
var DiscardLogger = New(InfoLevel, io.Discard)

// Logger represents an active logging object that generates lines of
// output to one or more io.Writer.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(args ...any)
	// Debugf logs a message at DebugLevel.
	Debugf(format string, args ...any)
	// Info logs a message at InfoLevel.
	Info(args ...any)
	// Infof logs a message at InfoLevel.
	Infof(format string, args ...any)
	// Warn logs a message at WarningLevel.
	Warn(args ...any)
	// Warnf logs a message at WarningLevel.
	Warnf(format string, args ...any)
	// Error logs a message at ErrorLevel.
	Error(args ...any)
	// Errorf logs a message at ErrorLevel.
	Errorf(format string, args ...any)
	// Fatal logs a message at FatalLevel then calls os.Exit(1).
	Fatal(args ...any)
	// Fatalf logs a message at FatalLevel then calls os.Exit(1).
	Fatalf(format string, args ...any)
	// LogLevel returns the log level being used
	LogLevel() Level
}

// Log implements Logger interface with the underlying zap as
// the underlying logging library
type Log struct {
	*zap.SugaredLogger
	level Level
}

// enforce compilation and linter error
var _ Logger = (*Log)(nil)

// New creates an instance of Log
func New(level Level, writers ...io.Writer) *Log {
	// create the zap Log configuration
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	// create the zap log core
	var syncWriters []zapcore.WriteSyncer
	for _, writer := range writers {
		syncWriters = append(syncWriters, zapcore.AddSync(writer))
	}

	// set the log level
	var zapLevel zapcore.Level
	switch level {
	case InfoLevel:
		zapLevel = zapcore.InfoLevel
	case DebugLevel:
		zapLevel = zapcore.DebugLevel
	case WarningLevel:
		zapLevel = zapcore.WarnLevel
	case ErrorLevel:
		zapLevel = zapcore.ErrorLevel
	case FatalLevel:
		zapLevel = zapcore.FatalLevel
	default:
		zapLevel = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zap.CombineWriteSyncers(syncWriters...),
		zapLevel,
	)

	// get the zap Log
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &Log{
		SugaredLogger: zapLogger.Sugar(),
		level:         level,
	}
}

// LogLevel returns the log level that is used
func (l *Log) LogLevel() Level {
	return l.level
}
