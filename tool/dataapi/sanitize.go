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
	"math"
	"strings"
)

// Pagination values Sanitize applies when the field is absent or falsy.
// They intentionally differ from the contract defaults.
const (
	SanitizedLimit  = 10000
	SanitizedOffset = 0
)

// Sanitize returns a copy of params ready for the request envelope. Every
// top-level string has "%" doubled to "%%" because the upstream API formats
// parameters with printf-style interpolation. Nested values are left as is.
// A falsy limit becomes SanitizedLimit and a falsy offset SanitizedOffset.
func Sanitize(params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+2)
	for k, v := range params {
		if s, ok := v.(string); ok {
			v = strings.ReplaceAll(s, "%", "%%")
		}
		out[k] = v
	}
	if falsy(out[FieldLimit]) {
		out[FieldLimit] = SanitizedLimit
	}
	if falsy(out[FieldOffset]) {
		out[FieldOffset] = SanitizedOffset
	}
	return out
}

// falsy follows loose truthiness: nil, false, zero, NaN and "" are falsy.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0 || math.IsNaN(t)
	}
	if f, ok := toFloat(v); ok {
		return f == 0
	}
	return false
}
