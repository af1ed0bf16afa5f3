//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })
	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, c := range cases {
		SetLevel(c.in)
		assert.Equal(t, c.expected, zapLevel.Level(), "SetLevel(%q)", c.in)
	}
}

func TestSetOutput(t *testing.T) {
	oldDefault, oldContext := Default, ContextDefault
	t.Cleanup(func() {
		Default, ContextDefault = oldDefault, oldContext
		SetLevel(LevelInfo)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	Debugf("hidden %d", 1)
	Infof("visible %d", 2)
	WarnfContext(context.Background(), "ctx %s", "warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "ctx warn")
	assert.Contains(t, out, "WARN")
}

func TestContextHelpersUseContextDefault(t *testing.T) {
	original := ContextDefault
	t.Cleanup(func() { ContextDefault = original })

	logger := &countLogger{}
	ContextDefault = logger

	InfofContext(context.Background(), "test %d", 1)
	DebugfContext(context.Background(), "test %d", 2)

	assert.Equal(t, 1, logger.infoCalls)
	assert.Equal(t, 1, logger.debugCalls)
}

type countLogger struct {
	infoCalls  int
	debugCalls int
}

func (*countLogger) Debug(args ...any)                   {}
func (c *countLogger) Debugf(format string, args ...any) { c.debugCalls++ }
func (*countLogger) Info(args ...any)                    {}
func (c *countLogger) Infof(format string, args ...any)  { c.infoCalls++ }
func (*countLogger) Warn(args ...any)                    {}
func (*countLogger) Warnf(format string, args ...any)    {}
func (*countLogger) Error(args ...any)                   {}
func (*countLogger) Errorf(format string, args ...any)   {}
