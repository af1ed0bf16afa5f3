//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the tool interfaces shared by concrete tool packages
// such as tool/dataapi.
package tool

import "context"

// Tool is the basic interface of a tool that can be offered to an agent.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool is a Tool that can be called with JSON encoded arguments.
type CallableTool interface {
	Tool
	// Call runs the tool. jsonArgs is the JSON object produced by the model.
	Call(ctx context.Context, jsonArgs []byte) (any, error)
}

// Declaration describes a tool to the model.
type Declaration struct {
	// Name is the unique name of the tool.
	Name string `json:"name"`
	// Description tells the model when and how to use the tool.
	Description string `json:"description"`
	// InputSchema is the JSON schema of the arguments.
	InputSchema *Schema `json:"inputSchema"`
	// OutputSchema is the JSON schema of the result, optional.
	OutputSchema *Schema `json:"outputSchema,omitempty"`
}
