//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import "context"

// ToolSet defines an interface for managing a set of tools.
// It provides methods to retrieve the current tools and to perform cleanup.
type ToolSet interface {
	// Tools returns a slice of Tool instances available in the set based on the provided context.
	Tools(context.Context) []Tool

	// Close releases any resources held by the ToolSet.
	Close() error

	// Name returns the name of the ToolSet for identification and conflict resolution.
	Name() string
}

// FilterFunc reports whether a tool is kept.
type FilterFunc func(ctx context.Context, tool Tool) bool

// FilterTools filters tools from a list of tools based on a filter function.
func FilterTools(ctx context.Context, tools []Tool, filter FilterFunc) []Tool {
	if filter == nil {
		return tools
	}
	filtered := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if filter(ctx, t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// FilterToolSet creates a new ToolSet that filters tools from the original ToolSet.
func FilterToolSet(toolset ToolSet, filter FilterFunc) ToolSet {
	return &filteredToolSet{
		original: toolset,
		filter:   filter,
	}
}

type filteredToolSet struct {
	original ToolSet
	filter   FilterFunc
}

// Tools implements the ToolSet interface.
func (f *filteredToolSet) Tools(ctx context.Context) []Tool {
	return FilterTools(ctx, f.original.Tools(ctx), f.filter)
}

// Close implements the ToolSet interface.
func (f *filteredToolSet) Close() error {
	return f.original.Close()
}

// Name implements the ToolSet interface.
func (f *filteredToolSet) Name() string {
	return f.original.Name()
}

// NewIncludeToolNamesFilter creates a FilterFunc that includes only the specified tool names.
func NewIncludeToolNamesFilter(names ...string) FilterFunc {
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}
	return func(_ context.Context, t Tool) bool {
		decl := t.Declaration()
		if decl == nil {
			return false
		}
		_, ok := allowed[decl.Name]
		return ok
	}
}

// NewExcludeToolNamesFilter creates a FilterFunc that excludes the specified tool names.
func NewExcludeToolNamesFilter(names ...string) FilterFunc {
	excluded := make(map[string]struct{}, len(names))
	for _, name := range names {
		excluded[name] = struct{}{}
	}
	return func(_ context.Context, t Tool) bool {
		decl := t.Declaration()
		if decl == nil {
			return true
		}
		_, ok := excluded[decl.Name]
		return !ok
	}
}
