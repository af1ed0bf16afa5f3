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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidToolName is wrapped by the ConstructionError returned for a bad tool name.
	ErrInvalidToolName = errors.New("the name of this tool is not a valid alphanumeric string")
	// ErrTimeout is wrapped by the TransportError returned when the request deadline passes.
	ErrTimeout = errors.New("request timed out")
	// ErrInvalidResponseFormat matches every FormatError.
	ErrInvalidResponseFormat = errors.New("invalid response format")
)

// ConstructionError reports a tool that cannot be built. It is returned by New
// and NewToolSet, never by an invocation.
type ConstructionError struct {
	Tool  string
	Field string
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid tool %q: field %q: %v", e.Tool, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid tool %q: %v", e.Tool, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Issue is one field that failed the contract.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports arguments rejected before any request is sent:
// malformed JSON (Err set) or contract issues, in field order.
type ValidationError struct {
	Issues []Issue
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "invalid JSON arguments: " + e.Err.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError reports a failed exchange with the upstream API: a network
// error, a timeout, or a non-2xx status.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a 2xx response whose body is not JSON.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidResponseFormat, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports ErrInvalidResponseFormat as a match.
func (e *FormatError) Is(target error) bool { return target == ErrInvalidResponseFormat }
