//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package log provides the leveled logger shared by the data API tools,
// the embedders and the dataapi command.
package log

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level constants
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Default writes to stderr so that stdio based transports keep stdout for protocol frames.
// Replace it with any value implementing Logger.
var Default Logger = newSugared(os.Stderr, 1)

// ContextDefault backs the *Context helpers. It is a separate logger so that
// caller skipping accounts for the extra helper frame.
var ContextDefault Logger = newSugared(os.Stderr, 2)

func newSugared(w io.Writer, callerSkip int) *zap.SugaredLogger {
	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(w),
			zapLevel,
		),
		zap.AddCaller(),
		zap.AddCallerSkip(callerSkip),
	).Sugar()
}

// SetOutput redirects Default and ContextDefault to w, keeping the current level.
func SetOutput(w io.Writer) {
	Default = newSugared(w, 1)
	ContextDefault = newSugared(w, 2)
}

// SetLevel sets the log level. Unknown levels fall back to info.
func SetLevel(level string) {
	switch level {
	case LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	default:
		zapLevel.SetLevel(zapcore.InfoLevel)
	}
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Logger is the logging interface used across the module.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

// Debug logs to DEBUG log. Arguments are handled in the manner of fmt.Print.
func Debug(args ...any) {
	Default.Debug(args...)
}

// Debugf logs to DEBUG log. Arguments are handled in the manner of fmt.Printf.
func Debugf(format string, args ...any) {
	Default.Debugf(format, args...)
}

// Info logs to INFO log. Arguments are handled in the manner of fmt.Print.
func Info(args ...any) {
	Default.Info(args...)
}

// Infof logs to INFO log. Arguments are handled in the manner of fmt.Printf.
func Infof(format string, args ...any) {
	Default.Infof(format, args...)
}

// Warn logs to WARNING log. Arguments are handled in the manner of fmt.Print.
func Warn(args ...any) {
	Default.Warn(args...)
}

// Warnf logs to WARNING log. Arguments are handled in the manner of fmt.Printf.
func Warnf(format string, args ...any) {
	Default.Warnf(format, args...)
}

// Error logs to ERROR log. Arguments are handled in the manner of fmt.Print.
func Error(args ...any) {
	Default.Error(args...)
}

// Errorf logs to ERROR log. Arguments are handled in the manner of fmt.Printf.
func Errorf(format string, args ...any) {
	Default.Errorf(format, args...)
}

// DebugfContext logs to DEBUG log with context and formatting.
// The context is ignored by default; replace the variable to extract request scoped fields.
var DebugfContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Debugf(format, args...)
}

// InfofContext logs to INFO log with context and formatting.
var InfofContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Infof(format, args...)
}

// WarnfContext logs to WARNING log with context and formatting.
var WarnfContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Warnf(format, args...)
}

// ErrorfContext logs to ERROR log with context and formatting.
var ErrorfContext = func(_ context.Context, format string, args ...any) {
	ContextDefault.Errorf(format, args...)
}

// DebugContext logs to DEBUG log with context.
var DebugContext = func(_ context.Context, args ...any) {
	ContextDefault.Debug(args...)
}

// InfoContext logs to INFO log with context.
var InfoContext = func(_ context.Context, args ...any) {
	ContextDefault.Info(args...)
}

// WarnContext logs to WARNING log with context.
var WarnContext = func(_ context.Context, args ...any) {
	ContextDefault.Warn(args...)
}

// ErrorContext logs to ERROR log with context.
var ErrorContext = func(_ context.Context, args ...any) {
	ContextDefault.Error(args...)
}
