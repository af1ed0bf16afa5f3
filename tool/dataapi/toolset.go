//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dataapi

import (
	"context"
	"errors"
	"time"

	"trpc.group/trpc-go/trpc-agent-dataapi/tool"
)

const defaultToolSetName = "dataapi"

// Definition describes one tool of a ToolSet. Zero values keep the shared
// options passed with WithToolOptions.
type Definition struct {
	Name           string
	APIName        string
	Description    string
	Fields         []FieldDescriptor
	Timeout        time.Duration
	ResponseFields []string
}

// ToolSetOption configures a ToolSet.
type ToolSetOption func(*toolSetConfig)

type toolSetConfig struct {
	name    string
	options []Option
}

// WithToolSetName sets the name of the tool set.
func WithToolSetName(name string) ToolSetOption {
	return func(c *toolSetConfig) {
		c.name = name
	}
}

// WithToolOptions sets options applied to every tool before its own Definition.
func WithToolOptions(opts ...Option) ToolSetOption {
	return func(c *toolSetConfig) {
		c.options = append(c.options, opts...)
	}
}

// ToolSet is a fixed group of data API tools.
type ToolSet struct {
	name  string
	tools []*Tool
}

var _ tool.ToolSet = (*ToolSet)(nil)

// NewToolSet builds one Tool per definition. The first definition that cannot
// be built fails the whole set with its *ConstructionError.
func NewToolSet(defs []Definition, opts ...ToolSetOption) (*ToolSet, error) {
	c := &toolSetConfig{name: defaultToolSetName}
	for _, opt := range opts {
		opt(c)
	}
	ts := &ToolSet{name: c.name}
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if _, dup := seen[def.Name]; dup {
			return nil, &ConstructionError{Tool: def.Name, Err: errors.New("duplicate tool name in tool set")}
		}
		seen[def.Name] = struct{}{}

		toolOpts := append([]Option{}, c.options...)
		toolOpts = append(toolOpts, def.options()...)
		t, err := New(def.Name, toolOpts...)
		if err != nil {
			return nil, err
		}
		ts.tools = append(ts.tools, t)
	}
	return ts, nil
}

func (d Definition) options() []Option {
	var opts []Option
	if d.APIName != "" {
		opts = append(opts, WithAPIName(d.APIName))
	}
	if d.Description != "" {
		opts = append(opts, WithDescription(d.Description))
	}
	if len(d.Fields) > 0 {
		opts = append(opts, WithFields(d.Fields...))
	}
	if d.Timeout != 0 {
		opts = append(opts, WithTimeout(d.Timeout))
	}
	if len(d.ResponseFields) > 0 {
		opts = append(opts, WithResponseFields(d.ResponseFields...))
	}
	return opts
}

// Tools implements the ToolSet interface.
func (ts *ToolSet) Tools(context.Context) []tool.Tool {
	out := make([]tool.Tool, 0, len(ts.tools))
	for _, t := range ts.tools {
		out = append(out, t)
	}
	return out
}

// DataTools returns the concrete tools in definition order.
func (ts *ToolSet) DataTools() []*Tool {
	out := make([]*Tool, len(ts.tools))
	copy(out, ts.tools)
	return out
}

// Close implements the ToolSet interface.
func (ts *ToolSet) Close() error {
	return nil
}

// Name implements the ToolSet interface.
func (ts *ToolSet) Name() string {
	return ts.name
}
